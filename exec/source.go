package exec

import (
	"io"

	"github.com/dianpeng/chunkdb/table"
)

// A row source yields batches of rows sharing one schema, Next returns
// io.EOF once exhausted.
type RowSource interface {
	Schema() *table.Schema
	Next() ([]*table.Row, error)
}

// SliceSource serves rows already in memory in batches of Chunk rows.
type SliceSource struct {
	schema *table.Schema
	rows   []*table.Row
	Chunk  int
}

func NewSliceSource(s *table.Schema, rows []*table.Row, chunk int) *SliceSource {
	if chunk < 1 {
		chunk = 1
	}
	return &SliceSource{
		schema: s,
		rows:   rows,
		Chunk:  chunk,
	}
}

func (self *SliceSource) Schema() *table.Schema { return self.schema }

func (self *SliceSource) Next() ([]*table.Row, error) {
	if len(self.rows) == 0 {
		return nil, io.EOF
	}
	n := self.Chunk
	if n > len(self.rows) {
		n = len(self.rows)
	}
	out := self.rows[:n]
	self.rows = self.rows[n:]
	return out, nil
}

// Drain reads a source to its end, only meant for results known to be small.
func Drain(src RowSource) ([]*table.Row, error) {
	out := []*table.Row{}
	for {
		rows, err := src.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
}
