package table

// A row is the values of one record, ordered the way its schema orders the
// column names. Rows sharing a chunk share the schema pointer.
type Row struct {
	Schema *Schema
	Values []string
}

func NewRow(s *Schema, values []string) *Row {
	return &Row{
		Schema: s,
		Values: values,
	}
}

func (self *Row) Get(col string) (string, bool) {
	idx := self.Schema.Index(col)
	if idx < 0 || idx >= len(self.Values) {
		return "", false
	}
	return self.Values[idx], true
}

func (self *Row) Map() map[string]string {
	out := make(map[string]string, len(self.Values))
	for i, c := range self.Schema.Columns {
		if i < len(self.Values) {
			out[c] = self.Values[i]
		}
	}
	return out
}

// Project returns a row over the target schema, the target's columns are
// looked up in self by index list.
func (self *Row) Project(target *Schema, index []int) *Row {
	v := make([]string, len(index))
	for i, idx := range index {
		v[i] = self.Values[idx]
	}
	return NewRow(target, v)
}
