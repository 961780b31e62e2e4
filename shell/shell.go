// Package shell dispatches the statements typed at the console, or read from
// a script, onto the table store and the execution engine.
package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dianpeng/chunkdb/exec"
	"github.com/dianpeng/chunkdb/format"
	"github.com/dianpeng/chunkdb/internal/config"
	"github.com/dianpeng/chunkdb/internal/logger"
	"github.com/dianpeng/chunkdb/meta"
	"github.com/dianpeng/chunkdb/plan"
	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

// ErrExit is returned by Exec when the user asks to leave.
var ErrExit = errors.New("exit")

const helpText = `statements:
  create_table <table> <col>,<col>,...      also: create table t(c1,c2)
  insert_into <table> <col>=<value>,...     also: insert into
  [explain] select <cols> from <table>
      [join <table> [as <alias>] on <t1.c>==<t2.c> [into <table>]]
      [where <clause>]
      [group_by <col>]                      with one of COUNT() SUM(c) MIN(c) MAX(c)
      [order_by <col> [asc|desc]]
commands:
  tables    list tables
  help      this text
  exit      leave
`

type Shell struct {
	Engine *exec.Engine
	Store  *table.Store
	Meta   *meta.Store
	Config *config.Config
	Out    io.Writer
	Log    *logger.Logger
}

func New(cfg *config.Config, store *table.Store, ms *meta.Store, engine *exec.Engine, out io.Writer, log *logger.Logger) *Shell {
	if log == nil {
		log = logger.NewNop()
	}
	return &Shell{
		Engine: engine,
		Store:  store,
		Meta:   ms,
		Config: cfg,
		Out:    out,
		Log:    log.Named("shell"),
	}
}

// Exec runs one line. Blank lines are ignored.
func (self *Shell) Exec(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch strings.ToLower(strings.TrimSuffix(line, ";")) {
	case "exit", "quit":
		return ErrExit
	case "help":
		_, err := io.WriteString(self.Out, helpText)
		return err
	case "tables":
		return self.tables()
	}

	c, err := sql.NewParser(line).Parse()
	if err != nil {
		self.Engine.Metrics.Statement("parse", err)
		return err
	}

	switch s := c.Stmt.(type) {
	case *sql.CreateTable:
		err = self.createTable(s)
		self.Engine.Metrics.Statement("create_table", err)
	case *sql.Insert:
		err = self.insert(s)
		self.Engine.Metrics.Statement("insert", err)
	case *sql.Select:
		err = self.query(c)
		self.Engine.Metrics.Statement("select", err)
	default:
		err = fmt.Errorf("%w: unknown statement", exec.ErrUnsupported)
	}
	return err
}

func (self *Shell) tables() error {
	names, err := self.Store.Tables()
	if err != nil {
		return err
	}
	for _, n := range names {
		if cnt, ok := self.Meta.RowCount(n); ok {
			fmt.Fprintf(self.Out, "%s\t%d\n", n, cnt)
		} else {
			fmt.Fprintf(self.Out, "%s\n", n)
		}
	}
	return nil
}

func (self *Shell) createTable(s *sql.CreateTable) error {
	if _, err := self.Store.Create(s.Table, s.Columns); err != nil {
		return err
	}
	if err := self.Meta.Register(s.Table); err != nil {
		return err
	}
	self.Log.Info("table created", "table", s.Table, "columns", s.Columns)
	fmt.Fprintf(self.Out, "table %s created\n", s.Table)
	return nil
}

func (self *Shell) insert(s *sql.Insert) error {
	values := make(map[string]string, len(s.Values))
	for _, a := range s.Values {
		values[a.Column] = a.Value
	}
	if err := self.Store.Insert(s.Table, values); err != nil {
		return err
	}
	if err := self.Meta.RecordInsert(s.Table); err != nil {
		return err
	}
	self.Log.Debug("row inserted", "table", s.Table)
	fmt.Fprintf(self.Out, "1 row inserted into %s\n", s.Table)
	return nil
}

func (self *Shell) query(c *sql.Code) error {
	p, err := plan.PlanCode(c, plan.Config{
		OrderByTable: self.Config.Exec.OrderByTable,
	})
	if err != nil {
		return err
	}
	if p.Explain {
		_, err := io.WriteString(self.Out, p.Print())
		return err
	}
	return self.run(p)
}

// scanColumns widens the scan projection with the sort column, the output
// phase projects it away again after sorting.
func scanColumns(p *plan.Plan) []string {
	cols := p.TableScan.Projection
	if !p.HasSort() || len(cols) == 0 {
		return cols
	}
	for _, c := range cols {
		if c == "*" || c == p.Sort.Column {
			return cols
		}
	}
	return append(append([]string{}, cols...), p.Sort.Column)
}

// run executes a plan phase by phase and prints the output.
func (self *Shell) run(p *plan.Plan) error {
	var src exec.RowSource
	chunkFrom := p.TableScan.Table

	switch {
	case p.HasJoin():
		res, err := self.Engine.Join(exec.JoinSpec{
			Left:     p.TableScan.Table,
			Right:    p.Join.Table,
			Alias:    p.Join.Alias,
			LeftKey:  p.Join.LeftKey,
			RightKey: p.Join.RightKey,
			Filter:   p.Join.Filter,
			Out:      p.Join.Out,
		})
		if err != nil {
			return err
		}
		if res.Rows == 0 {
			return format.NewPrinter(self.Out, self.Config.Output.Color, self.Config.Output.Padding).Footer()
		}
		chunkFrom = res.Table

		if p.HasSort() {
			src, err = self.Engine.Scan(res.Table, nil, nil)
		} else {
			src, err = self.Engine.Scan(res.Table, p.Output.Columns, nil)
		}
		if err != nil {
			return err
		}

	case p.HasGroupBy():
		res, err := self.Engine.GroupBy(exec.GroupSpec{
			Table:     p.TableScan.Table,
			Column:    p.GroupBy.Column,
			Func:      p.GroupBy.Func,
			AggColumn: p.GroupBy.AggColumn,
			Filter:    p.TableScan.Filter,
		})
		if err != nil {
			return err
		}
		src = res.Source(self.Engine.ChunkSize(p.TableScan.Table))

	default:
		s, err := self.Engine.Scan(p.TableScan.Table, scanColumns(p), p.TableScan.Filter)
		if err != nil {
			return err
		}
		src = s
	}

	if p.HasSort() {
		res, err := self.Engine.OrderBy(exec.OrderSpec{
			Source:    src,
			Column:    p.Sort.Column,
			Desc:      p.Sort.Desc,
			ChunkSize: self.Engine.ChunkSize(chunkFrom),
			Out:       p.Sort.Out,
		})
		if err != nil {
			return err
		}
		self.Log.Debug("sorted", "table", res.Table, "rows", res.Rows, "runs", res.Runs, "rounds", res.Rounds)
		if src, err = self.Engine.Scan(res.Table, p.Output.Columns, nil); err != nil {
			return err
		}
	}

	return self.print(src)
}

func (self *Shell) print(src exec.RowSource) error {
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	pr := format.NewPrinter(self.Out, self.Config.Output.Color, self.Config.Output.Padding)
	if err := pr.Header(src.Schema().Columns); err != nil {
		return err
	}
	for {
		rows, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := pr.Row(r.Values); err != nil {
				return err
			}
		}
	}
	return pr.Footer()
}
