package exec

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

type GroupSpec struct {
	Table     string
	Column    string   // group column
	Func      string   // COUNT, SUM, MIN or MAX
	AggColumn string   // ignored by COUNT
	Filter    sql.Expr // applied before aggregation
}

// State of one group. All four aggregates are kept whatever the function is,
// so partial states merge the same way for every function.
type GroupState struct {
	Count int64
	Sum   decimal.Decimal
	Min   float64
	Max   float64
}

func newGroupState() *GroupState {
	return &GroupState{
		Sum: decimal.Zero,
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}
}

func (self *GroupState) add(d decimal.Decimal, f float64) {
	self.Count++
	self.Sum = self.Sum.Add(d)
	if f < self.Min {
		self.Min = f
	}
	if f > self.Max {
		self.Max = f
	}
}

func (self *GroupState) merge(that *GroupState) {
	self.Count += that.Count
	self.Sum = self.Sum.Add(that.Sum)
	if that.Min < self.Min {
		self.Min = that.Min
	}
	if that.Max > self.Max {
		self.Max = that.Max
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (self *GroupState) Value(fn string) string {
	switch fn {
	case sql.AggCount:
		return strconv.FormatInt(self.Count, 10)
	case sql.AggSum:
		return self.Sum.String()
	case sql.AggMin:
		return formatFloat(self.Min)
	case sql.AggMax:
		return formatFloat(self.Max)
	default:
		return ""
	}
}

// groups in order of first appearance
type groupTable struct {
	keys  []string
	state map[string]*GroupState
}

func newGroupTable() *groupTable {
	return &groupTable{
		state: make(map[string]*GroupState),
	}
}

func (self *groupTable) get(key string) *GroupState {
	s, ok := self.state[key]
	if !ok {
		s = newGroupState()
		self.state[key] = s
		self.keys = append(self.keys, key)
	}
	return s
}

func (self *groupTable) merge(that *groupTable) {
	for _, k := range that.keys {
		self.get(k).merge(that.state[k])
	}
}

type GroupResult struct {
	Column    string
	Func      string
	AggColumn string
	Keys      []string
	States    []*GroupState
	Warnings  int // values coerced to 0
}

func (self *GroupResult) Value(key string) (string, bool) {
	for i, k := range self.Keys {
		if k == key {
			return self.States[i].Value(self.Func), true
		}
	}
	return "", false
}

// Header names the aggregate column the way it is written in a query,
// ie SUM(salary) or COUNT().
func (self *GroupResult) Header() []string {
	return []string{self.Column, self.Func + "(" + self.AggColumn + ")"}
}

func (self *GroupResult) Schema() *table.Schema {
	s, _ := table.NewSchema(self.Header())
	return s
}

func (self *GroupResult) Rows() []*table.Row {
	s := self.Schema()
	out := make([]*table.Row, len(self.Keys))
	for i, k := range self.Keys {
		out[i] = table.NewRow(s, []string{k, self.States[i].Value(self.Func)})
	}
	return out
}

// Source serves the groups as rows, so an ORDER BY can be layered on top.
func (self *GroupResult) Source(chunk int) RowSource {
	return NewSliceSource(self.Schema(), self.Rows(), chunk)
}

// GroupBy aggregates a table by one column. Every chunk is folded into a
// chunk local table of partial states first, which is then merged into the
// running table. Values that are not numbers count as 0 with a warning.
func (self *Engine) GroupBy(spec GroupSpec) (*GroupResult, error) {
	spec.Func = strings.ToUpper(spec.Func)
	if !sql.IsAggFunc(spec.Func) {
		return nil, fmt.Errorf("%w: unknown aggregation function %s", ErrUnsupported, spec.Func)
	}
	if spec.Func == sql.AggCount {
		spec.AggColumn = ""
	} else if spec.AggColumn == "" {
		return nil, fmt.Errorf("%w: %s requires a column", ErrSchemaMismatch, spec.Func)
	}

	t, err := self.Store.Open(spec.Table)
	if err != nil {
		return nil, err
	}
	gi := t.Schema.Index(spec.Column)
	if gi < 0 {
		return nil, fmt.Errorf("%w: table %s has no group column %s", ErrSchemaMismatch, spec.Table, spec.Column)
	}
	ai := -1
	if spec.AggColumn != "" {
		if ai = t.Schema.Index(spec.AggColumn); ai < 0 {
			return nil, fmt.Errorf("%w: table %s has no column %s", ErrSchemaMismatch, spec.Table, spec.AggColumn)
		}
	}

	scan, err := NewScan(t, nil, spec.Filter, self.ChunkSize(spec.Table))
	if err != nil {
		return nil, err
	}
	scan.metrics = self.Metrics
	defer scan.Close()

	res := &GroupResult{
		Column:    spec.Column,
		Func:      spec.Func,
		AggColumn: spec.AggColumn,
	}
	running := newGroupTable()

	for {
		rows, err := scan.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		partial := newGroupTable()
		for _, r := range rows {
			d, f := decimal.Zero, 0.0
			if ai >= 0 {
				var ok bool
				if d, f, ok = toNumber(r.Values[ai]); !ok {
					res.Warnings++
					self.Metrics.Warnings.Inc()
					self.Log.Warn("value is not a number, counted as 0",
						"table", spec.Table,
						"column", spec.AggColumn,
						"value", r.Values[ai],
					)
				}
			}
			partial.get(r.Values[gi]).add(d, f)
		}
		running.merge(partial)
	}

	res.Keys = running.keys
	res.States = make([]*GroupState, len(running.keys))
	for i, k := range running.keys {
		res.States[i] = running.state[k]
	}
	return res, nil
}

// toNumber coerces an aggregation value, anything that is not a number is 0
func toNumber(v string) (decimal.Decimal, float64, bool) {
	f, ok := parseNumber(v)
	if !ok {
		return decimal.Zero, 0, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		d = decimal.NewFromFloat(f)
	}
	return d, f, true
}
