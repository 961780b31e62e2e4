package plan

import (
	"fmt"
	"strings"

	"github.com/dianpeng/chunkdb/sql"
)

const defOrderByTable = "order_by_result"

type TableScan struct {
	Table      string
	Projection []string // empty when the projection is applied after a join
	Filter     sql.Expr
}

type Join struct {
	Table    string // right side, the left side is the scanned table
	Alias    string
	LeftKey  sql.ColName
	RightKey sql.ColName
	Filter   sql.Expr // post filter over the joined row
	Out      string
}

func (self *Join) Dump() string {
	buf := strings.Builder{}
	buf.WriteString("##> Join\n")
	buf.WriteString("Name: block-nested-loop\n")
	buf.WriteString(fmt.Sprintf("Table: %s\n", self.Table))
	if self.Alias != "" {
		buf.WriteString(fmt.Sprintf("Alias: %s\n", self.Alias))
	}
	buf.WriteString(fmt.Sprintf("On: %s==%s\n", self.LeftKey, self.RightKey))
	buf.WriteString(fmt.Sprintf("Filter: %s\n", sql.PrintExpr(self.Filter)))
	buf.WriteString(fmt.Sprintf("Out: %s\n", self.Out))
	return buf.String()
}

type GroupBy struct {
	Column    string
	Func      string
	AggColumn string
}

func (self *GroupBy) AggName() string { return self.Func + "(" + self.AggColumn + ")" }

type Sort struct {
	Column string
	Desc   bool
	Out    string
}

type Output struct {
	Table   string   // table the output reads from, empty for the scan stream
	Columns []string // columns to print
}

// Planner configuration
type Config struct {
	OrderByTable string
}

type Plan struct {
	Config  Config
	Explain bool

	TableScan *TableScan
	Join      *Join
	GroupBy   *GroupBy
	Sort      *Sort
	Output    *Output
}

func newPlan(c Config) *Plan {
	if c.OrderByTable == "" {
		c.OrderByTable = defOrderByTable
	}
	return &Plan{
		Config: c,
	}
}

func (self *Plan) HasJoin() bool    { return self.Join != nil }
func (self *Plan) HasGroupBy() bool { return self.GroupBy != nil }
func (self *Plan) HasSort() bool    { return self.Sort != nil }

func (self *Plan) err(stage string, f string, args ...interface{}) error {
	msg := fmt.Sprintf(f, args...)
	return fmt.Errorf("%w: stage(%s): %s", ErrPlan, stage, msg)
}

// PlanCode plans a parsed select statement.
func PlanCode(c *sql.Code, config Config) (*Plan, error) {
	s, ok := c.Stmt.(*sql.Select)
	if !ok {
		return nil, fmt.Errorf("%w: only select statement can be planned", ErrPlan)
	}
	return PlanSelect(s, config)
}

func PlanSelect(s *sql.Select, config Config) (*Plan, error) {
	p := newPlan(config)
	if err := p.plan(s); err != nil {
		return nil, err
	}
	return p, nil
}
