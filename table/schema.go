package table

import (
	"fmt"
	"strings"
)

// Ordered, unique list of column names read from the header of a table.
type Schema struct {
	Columns []string
	index   map[string]int
}

// NewSchema accepts an empty column list, a projection may drop every column.
func NewSchema(cols []string) (*Schema, error) {
	s := &Schema{
		Columns: make([]string, 0, len(cols)),
		index:   make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("%w: empty column name", ErrSchema)
		}
		if _, ok := s.index[c]; ok {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchema, c)
		}
		s.index[c] = len(s.Columns)
		s.Columns = append(s.Columns, c)
	}
	return s, nil
}

// schema of a table whose file has no header yet, ie an empty join result
func emptySchema() *Schema {
	return &Schema{
		index: make(map[string]int),
	}
}

func (self *Schema) Len() int { return len(self.Columns) }

// Index returns the position of the column or -1.
func (self *Schema) Index(name string) int {
	if idx, ok := self.index[name]; ok {
		return idx
	}
	return -1
}

func (self *Schema) Has(name string) bool {
	_, ok := self.index[name]
	return ok
}

// Qualify prefixes every column with "prefix.", used to build joined rows.
func (self *Schema) Qualify(prefix string) []string {
	out := make([]string, 0, len(self.Columns))
	for _, c := range self.Columns {
		out = append(out, prefix+"."+c)
	}
	return out
}

func (self *Schema) String() string {
	return strings.Join(self.Columns, ",")
}
