package exec

import (
	"io"

	"github.com/dianpeng/chunkdb/internal/logger"
	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

// Scan streams the rows of a table that pass the filter, projected to the
// requested columns. Each call to Next reads one chunk from the table, so a
// scan never holds more than a chunk in memory. A scan can not be restarted,
// open a new one to read the table again.
type Scan struct {
	cursor  *table.Cursor
	schema  *table.Schema
	index   []int
	filter  sql.Expr
	chunk   int
	missing []string
	done    bool

	log     *logger.Logger
	metrics *Metrics
}

// NewScan opens a scan. "*" in the projection expands to every column and an
// empty projection means every column, columns the table lacks are dropped.
func NewScan(t *table.Table, projection []string, filter sql.Expr, chunk int) (*Scan, error) {
	if chunk < 1 {
		chunk = 1
	}

	cols := []string{}
	index := []int{}
	seen := map[string]bool{}
	missing := []string{}

	add := func(c string) {
		if seen[c] {
			return
		}
		seen[c] = true
		cols = append(cols, c)
		index = append(index, t.Schema.Index(c))
	}

	if len(projection) == 0 {
		projection = []string{"*"}
	}
	for _, p := range projection {
		if p == "*" {
			for _, c := range t.Schema.Columns {
				add(c)
			}
		} else if t.Schema.Has(p) {
			add(p)
		} else {
			missing = append(missing, p)
		}
	}

	s, err := table.NewSchema(cols)
	if err != nil {
		return nil, err
	}
	c, err := t.Cursor()
	if err != nil {
		return nil, err
	}
	return &Scan{
		cursor:  c,
		schema:  s,
		index:   index,
		filter:  filter,
		chunk:   chunk,
		missing: missing,
	}, nil
}

func (self *Scan) dropped(log *logger.Logger) {
	for _, c := range self.missing {
		log.Debug("projection column not found, dropped", "column", c)
	}
}

func (self *Scan) Schema() *table.Schema { return self.schema }

func (self *Scan) ChunkSize() int { return self.chunk }

// Next returns the rows of the next chunk passing the filter, chunks where
// no row passes are skipped. io.EOF is returned once the table is exhausted.
func (self *Scan) Next() ([]*table.Row, error) {
	for !self.done {
		rows, err := self.cursor.ReadChunk(self.chunk)
		if err == io.EOF {
			self.Close()
			break
		}
		if err != nil {
			self.Close()
			return nil, err
		}
		if self.metrics != nil {
			self.metrics.RowsScanned.Add(float64(len(rows)))
		}

		out := make([]*table.Row, 0, len(rows))
		for _, r := range rows {
			ok, err := Evaluate(self.filter, r)
			if err != nil {
				self.Close()
				return nil, err
			}
			if ok {
				out = append(out, r.Project(self.schema, self.index))
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return nil, io.EOF
}

func (self *Scan) Close() error {
	if self.done {
		return nil
	}
	self.done = true
	return self.cursor.Close()
}
