package table

import (
	"encoding/csv"
	"io"
	"os"
)

// Sequential, forward only reader over the rows of a table. The header is
// consumed when the cursor is opened.
type Cursor struct {
	table *Table
	file  *os.File
	r     *csv.Reader
	done  bool
}

func newCursor(t *Table) (*Cursor, error) {
	f, err := os.Open(t.Path)
	if err != nil {
		return nil, err
	}
	c := &Cursor{
		table: t,
		file:  f,
		r:     newReader(f),
	}
	if _, err := c.r.Read(); err != nil {
		if err == io.EOF {
			c.done = true
		} else {
			f.Close()
			return nil, err
		}
	}
	return c, nil
}

func (self *Cursor) Schema() *Schema { return self.table.Schema }

// ReadChunk reads at most n rows. A short chunk is returned together with a
// nil error, io.EOF is only returned once no row is left.
func (self *Cursor) ReadChunk(n int) ([]*Row, error) {
	if n < 1 {
		n = 1
	}
	if self.done {
		return nil, io.EOF
	}
	s := self.table.Schema
	out := make([]*Row, 0, n)
	for len(out) < n {
		rec, err := self.r.Read()
		if err == io.EOF {
			self.done = true
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, NewRow(s, fit(rec, s.Len())))
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (self *Cursor) Close() error {
	return self.file.Close()
}

// pad or cut a record to the schema width
func fit(rec []string, n int) []string {
	if len(rec) == n {
		return rec
	}
	out := make([]string, n)
	copy(out, rec)
	return out
}
