package exec

import (
	"fmt"
	"io"
	"os"

	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

type JoinSpec struct {
	Left     string
	Right    string
	Alias    string // qualifier of the right side, optional
	LeftKey  sql.ColName
	RightKey sql.ColName
	Filter   sql.Expr // evaluated against the combined, qualified row
	Out      string   // output table, defaults to <left>_join_<right>
}

type JoinResult struct {
	Table  string
	Schema *table.Schema
	Pairs  int64 // row pairs compared
	Rows   int   // rows written
}

func DefaultJoinTable(left, right string) string {
	return left + "_join_" + right
}

// qualifiers of both sides, a self join without alias qualifies the right
// side as <table>_2
func (self *JoinSpec) qualifiers() (string, string) {
	l := self.Left
	r := self.Right
	if self.Alias != "" {
		r = self.Alias
	}
	if l == r {
		r = self.Right + "_2"
	}
	return l, r
}

// bind the two keys of the join condition to the left and right side, the
// condition may name them in either order
func (self *JoinSpec) bindKeys() (string, string, error) {
	lq, rq := self.qualifiers()
	isLeft := func(c sql.ColName) bool { return c.Table == lq }
	isRight := func(c sql.ColName) bool { return c.Table == rq || c.Table == self.Right }

	a, b := self.LeftKey, self.RightKey
	switch {
	case isLeft(a) && isRight(b):
		return a.Name, b.Name, nil
	case isRight(a) && isLeft(b):
		return b.Name, a.Name, nil
	default:
		return "", "", fmt.Errorf("%w: join condition %s==%s does not refer to %s and %s",
			ErrSchemaMismatch, a, b, lq, rq)
	}
}

// Join runs a block nested loop join. The left table is read chunk by chunk
// and, for every left chunk, the right table is read again in full through a
// fresh cursor. Rows whose keys have the same text are combined and written
// to the output table when they pass the filter.
func (self *Engine) Join(spec JoinSpec) (*JoinResult, error) {
	if spec.Out == "" {
		spec.Out = DefaultJoinTable(spec.Left, spec.Right)
	}
	if spec.Out == spec.Left || spec.Out == spec.Right {
		return nil, fmt.Errorf("%w: join output %s overwrites its input", ErrUnsupported, spec.Out)
	}

	left, err := self.Store.Open(spec.Left)
	if err != nil {
		return nil, err
	}
	right, err := self.Store.Open(spec.Right)
	if err != nil {
		return nil, err
	}

	lkey, rkey, err := spec.bindKeys()
	if err != nil {
		return nil, err
	}
	li := left.Schema.Index(lkey)
	if li < 0 {
		return nil, fmt.Errorf("%w: table %s has no column %s", ErrSchemaMismatch, spec.Left, lkey)
	}
	ri := right.Schema.Index(rkey)
	if ri < 0 {
		return nil, fmt.Errorf("%w: table %s has no column %s", ErrSchemaMismatch, spec.Right, rkey)
	}

	lq, rq := spec.qualifiers()
	schema, err := table.NewSchema(append(left.Schema.Qualify(lq), right.Schema.Qualify(rq)...))
	if err != nil {
		return nil, err
	}

	path := self.Store.Path(spec.Out)
	w, err := table.NewWriter(path, schema, true)
	if err != nil {
		return nil, err
	}

	res := &JoinResult{
		Table:  spec.Out,
		Schema: schema,
	}
	if err := self.nestedLoop(left, right, li, ri, spec.Filter, schema, w, res); err != nil {
		w.Close()
		os.Remove(path)
		return nil, err
	}
	if err := w.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	res.Rows = w.Rows

	self.Metrics.JoinPairs.Add(float64(res.Pairs))
	self.recordRowCount(spec.Out, res.Rows)
	self.Log.Debug("join finished",
		"left", spec.Left,
		"right", spec.Right,
		"pairs", res.Pairs,
		"rows", res.Rows,
		"output", spec.Out,
	)
	return res, nil
}

func (self *Engine) nestedLoop(
	left *table.Table,
	right *table.Table,
	li int,
	ri int,
	filter sql.Expr,
	schema *table.Schema,
	w *table.Writer,
	res *JoinResult,
) error {
	lchunk := self.ChunkSize(left.Name)
	rchunk := self.ChunkSize(right.Name)

	lc, err := left.Cursor()
	if err != nil {
		return err
	}
	defer lc.Close()

	for {
		lrows, err := lc.ReadChunk(lchunk)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		self.Metrics.RowsScanned.Add(float64(len(lrows)))

		if err := self.probe(lrows, right, rchunk, li, ri, filter, schema, w, res); err != nil {
			return err
		}
	}
}

// join one left chunk against the whole right table
func (self *Engine) probe(
	lrows []*table.Row,
	right *table.Table,
	rchunk int,
	li int,
	ri int,
	filter sql.Expr,
	schema *table.Schema,
	w *table.Writer,
	res *JoinResult,
) error {
	rc, err := right.Cursor()
	if err != nil {
		return err
	}
	defer rc.Close()

	for {
		rrows, err := rc.ReadChunk(rchunk)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		self.Metrics.RowsScanned.Add(float64(len(rrows)))

		for _, l := range lrows {
			for _, r := range rrows {
				res.Pairs++
				if l.Values[li] != r.Values[ri] {
					continue
				}
				values := make([]string, 0, schema.Len())
				values = append(values, l.Values...)
				values = append(values, r.Values...)
				row := table.NewRow(schema, values)

				ok, err := Evaluate(filter, row)
				if err != nil {
					return err
				}
				if ok {
					if err := w.WriteRow(row); err != nil {
						return err
					}
				}
			}
		}
	}
}
