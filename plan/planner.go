package plan

import (
	"errors"

	"github.com/dianpeng/chunkdb/sql"
)

var ErrPlan = errors.New("plan error")

func isWildcard(proj []string) bool {
	for _, p := range proj {
		if p == "*" {
			return true
		}
	}
	return len(proj) == 0
}

// ----------------------------------------------------------------------------
// semantic check, everything that can be rejected before touching a table
func (self *Plan) semaCheck(s *sql.Select) error {
	if s.From == "" {
		return self.err("table-scan", "no table specified")
	}

	if s.Agg != nil {
		if !sql.IsAggFunc(s.Agg.Func) {
			return self.err("group-by", "unknown aggregation function %s", s.Agg.Func)
		}
		if s.GroupBy == nil {
			return self.err("group-by", "aggregation %s requires a *group_by*", s.Agg.Func)
		}
		if s.Agg.Func != sql.AggCount && s.Agg.Column == "" {
			return self.err("group-by", "aggregation %s requires a column", s.Agg.Func)
		}
	}

	if s.GroupBy != nil {
		if s.Agg == nil {
			return self.err("group-by", "*group_by* requires an aggregation function in projection")
		}
		if s.Join != nil {
			return self.err("group-by", "*group_by* over a join is not supported")
		}
		for _, c := range s.Projection {
			if c != s.GroupBy.Column {
				return self.err("group-by", "column %s is neither grouped nor aggregated", c)
			}
		}
	}

	if s.Into != "" && s.Join == nil {
		return self.err("join", "*into* is only allowed with a join")
	}

	if s.Join != nil {
		out := s.Into
		if out == "" {
			out = s.From + "_join_" + s.Join.Table
		}
		if out == s.From || out == s.Join.Table {
			return self.err("join", "join output %s would overwrite its input", out)
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// plan table scan, the filter is pushed into the scan unless it has to wait
// for the joined row
func (self *Plan) planTableScan(s *sql.Select) {
	ts := &TableScan{
		Table: s.From,
	}
	if s.Join == nil && s.Where != nil {
		ts.Filter = s.Where.Condition
	}
	if s.Join == nil && s.GroupBy == nil {
		ts.Projection = s.Projection
	}
	self.TableScan = ts
}

// ----------------------------------------------------------------------------
// plan join node
func (self *Plan) planJoin(s *sql.Select) {
	if s.Join == nil {
		return
	}
	j := &Join{
		Table:    s.Join.Table,
		Alias:    s.Join.Alias,
		LeftKey:  s.Join.LeftKey,
		RightKey: s.Join.RightKey,
		Out:      s.Into,
	}
	if j.Out == "" {
		j.Out = s.From + "_join_" + s.Join.Table
	}
	if s.Where != nil {
		j.Filter = s.Where.Condition
	}
	self.Join = j
}

// ----------------------------------------------------------------------------
// plan group by
func (self *Plan) planGroupBy(s *sql.Select) {
	if s.GroupBy == nil {
		return
	}
	self.GroupBy = &GroupBy{
		Column:    s.GroupBy.Column,
		Func:      s.Agg.Func,
		AggColumn: s.Agg.Column,
	}
	if s.Agg.Func == sql.AggCount {
		self.GroupBy.AggColumn = ""
	}
}

// ----------------------------------------------------------------------------
// plan the sorting
func (self *Plan) planSort(s *sql.Select) {
	if s.OrderBy == nil {
		return
	}
	self.Sort = &Sort{
		Column: s.OrderBy.Column,
		Desc:   s.OrderBy.Desc(),
		Out:    self.Config.OrderByTable,
	}
}

// ----------------------------------------------------------------------------
// plan output
func (self *Plan) planOutput(s *sql.Select) {
	out := &Output{}

	switch {
	case self.HasGroupBy():
		out.Columns = []string{self.GroupBy.Column, self.GroupBy.AggName()}
	case isWildcard(s.Projection):
		out.Columns = []string{"*"}
	default:
		out.Columns = s.Projection
	}

	switch {
	case self.HasSort():
		out.Table = self.Sort.Out
	case self.HasJoin():
		out.Table = self.Join.Out
	}
	self.Output = out
}

func (self *Plan) plan(s *sql.Select) error {
	if err := self.semaCheck(s); err != nil {
		return err
	}
	self.Explain = s.Explain
	self.planTableScan(s)
	self.planJoin(s)
	self.planGroupBy(s)
	self.planSort(s)
	self.planOutput(s)
	return nil
}
