package exec

import (
	"io"
	"path/filepath"
	"strings"
	"testing"

	gawki "github.com/benhoyt/goawk/interp"
	gawkp "github.com/benhoyt/goawk/parser"
	"github.com/stretchr/testify/assert"

	"github.com/dianpeng/chunkdb/internal/logger"
	"github.com/dianpeng/chunkdb/meta"
	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

type fixture struct {
	t      *testing.T
	dir    string
	store  *table.Store
	meta   *meta.Store
	engine *Engine
}

func newFixture(t *testing.T, divisor, workers int) *fixture {
	dir := t.TempDir()
	st, err := table.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	m, err := meta.Open(filepath.Join(dir, "meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		t:     t,
		dir:   dir,
		store: st,
		meta:  m,
		engine: NewEngine(st, m, logger.NewNop(), Config{
			ChunkDivisor: divisor,
			MergeWorkers: workers,
		}),
	}
}

// reopen the same directory with another configuration
func (self *fixture) with(divisor, workers int) *fixture {
	return &fixture{
		t:     self.t,
		dir:   self.dir,
		store: self.store,
		meta:  self.meta,
		engine: NewEngine(self.store, self.meta, logger.NewNop(), Config{
			ChunkDivisor: divisor,
			MergeWorkers: workers,
		}),
	}
}

func (self *fixture) table(name string, cols []string, rows ...[]string) {
	if _, err := self.store.Create(name, cols); err != nil {
		self.t.Fatal(err)
	}
	if err := self.meta.Register(name); err != nil {
		self.t.Fatal(err)
	}
	for _, r := range rows {
		values := map[string]string{}
		for i, c := range cols {
			values[c] = r[i]
		}
		if err := self.store.Insert(name, values); err != nil {
			self.t.Fatal(err)
		}
		if err := self.meta.RecordInsert(name); err != nil {
			self.t.Fatal(err)
		}
	}
}

// header and rows of a table file, a nil header means an empty file
func (self *fixture) read(name string) ([]string, [][]string) {
	tbl, err := self.store.Open(name)
	if err != nil {
		self.t.Fatal(err)
	}
	c, err := tbl.Cursor()
	if err != nil {
		self.t.Fatal(err)
	}
	defer c.Close()

	out := [][]string{}
	for {
		rows, err := c.ReadChunk(16)
		if err == io.EOF {
			break
		}
		if err != nil {
			self.t.Fatal(err)
		}
		for _, r := range rows {
			out = append(out, r.Values)
		}
	}
	if tbl.Schema.Len() == 0 {
		return nil, out
	}
	return tbl.Schema.Columns, out
}

func (self *fixture) runFiles() []string {
	m, _ := filepath.Glob(filepath.Join(self.dir, runPrefix+"*"))
	return m
}

func mustClause(t *testing.T, c string) sql.Expr {
	cl, err := sql.ParseClause(c)
	if err != nil {
		t.Fatalf("clause %q: %s", c, err)
	}
	return cl.Where
}

func runGoAwk(code string, files ...string) (string, error) {
	prog, err := gawkp.ParseProgram(
		[]byte(code),
		nil,
	)
	if err != nil {
		return "", err
	}

	buf := strings.Builder{}
	interp, err := gawki.New(prog)
	if err != nil {
		return "", err
	}
	config := &gawki.Config{
		Output: &buf,
		Args:   files,
	}
	if _, err = interp.Execute(config); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func drainMaps(assert *assert.Assertions, src RowSource) []map[string]string {
	rows, err := Drain(src)
	assert.Nil(err)
	out := []map[string]string{}
	for _, r := range rows {
		out = append(out, r.Map())
	}
	return out
}
