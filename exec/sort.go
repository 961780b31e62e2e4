package exec

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/dianpeng/chunkdb/table"
)

const (
	DefaultOrderByTable = "order_by_result"
	runPrefix           = ".run-"
)

type OrderSpec struct {
	Source    RowSource
	Column    string
	Desc      bool
	ChunkSize int    // rows per sorted run
	Out       string // output table, defaults to order_by_result
}

type OrderResult struct {
	Table   string
	Schema  *table.Schema
	Rows    int
	Runs    int  // runs spilled in the first phase
	Rounds  int  // merge rounds
	Numeric bool // whether keys were compared as numbers
}

// keys compare as numbers when every key of the sort is a number, an empty
// key reads as 0
type comparator struct {
	numeric bool
	desc    bool
}

func sortKey(v string) (float64, bool) {
	if v == "" {
		return 0, true
	}
	return parseNumber(v)
}

func (self comparator) compare(a, b string) int {
	c := 0
	if self.numeric {
		fa, _ := sortKey(a)
		fb, _ := sortKey(b)
		switch {
		case fa < fb:
			c = -1
		case fa > fb:
			c = 1
		}
	} else {
		c = strings.Compare(a, b)
	}
	if self.desc {
		return -c
	}
	return c
}

type run struct {
	path    string
	rows    int
	numeric bool
}

// live run files of one sort, every file still registered when the sort
// returns is removed
type runFiles struct {
	dir  string
	mu   sync.Mutex
	live map[string]bool
}

func (self *runFiles) create() string {
	path := filepath.Join(self.dir, runPrefix+uuid.NewString()+".csv")
	self.mu.Lock()
	self.live[path] = true
	self.mu.Unlock()
	return path
}

func (self *runFiles) remove(path string) {
	self.mu.Lock()
	delete(self.live, path)
	self.mu.Unlock()
	os.Remove(path)
}

// forget keeps the file on disk, ie the final run renamed to the output
func (self *runFiles) forget(path string) {
	self.mu.Lock()
	delete(self.live, path)
	self.mu.Unlock()
}

func (self *runFiles) cleanup() {
	self.mu.Lock()
	defer self.mu.Unlock()
	for p := range self.live {
		os.Remove(p)
	}
	self.live = make(map[string]bool)
}

type sorter struct {
	engine *Engine
	schema *table.Schema
	key    int
	desc   bool
	chunk  int
	files  *runFiles
	runs   []*run
}

// OrderBy sorts a row stream by one column with an external merge sort.
//
// The stream is cut into chunks, each chunk is sorted in memory and spilled
// to its own run file. Adjacent runs are then merged pairwise, round after
// round, until a single run is left which becomes the output table. Pairs of
// one round are merged on a worker pool, ties always prefer the left run so
// the result is the same whatever the number of workers is.
func (self *Engine) OrderBy(spec OrderSpec) (*OrderResult, error) {
	if c, ok := spec.Source.(io.Closer); ok {
		defer c.Close()
	}
	if spec.Out == "" {
		spec.Out = DefaultOrderByTable
	}
	if spec.ChunkSize < 1 {
		spec.ChunkSize = 1
	}

	schema := spec.Source.Schema()
	key := schema.Index(spec.Column)
	if key < 0 {
		return nil, fmt.Errorf("%w: %s is not a column of %s", ErrInvalidSortColumn, spec.Column, schema)
	}

	s := &sorter{
		engine: self,
		schema: schema,
		key:    key,
		desc:   spec.Desc,
		chunk:  spec.ChunkSize,
		files: &runFiles{
			dir:  self.Store.Dir,
			live: make(map[string]bool),
		},
	}
	defer s.files.cleanup()

	res := &OrderResult{
		Table:  spec.Out,
		Schema: schema,
	}

	if err := s.generate(spec.Source, res); err != nil {
		return nil, err
	}
	res.Runs = len(s.runs)
	res.Numeric = s.fixComparator()
	if err := s.normalize(res.Numeric); err != nil {
		return nil, err
	}
	if err := s.mergeAll(res); err != nil {
		return nil, err
	}

	out := self.Store.Path(spec.Out)
	if len(s.runs) == 0 {
		w, err := table.NewWriter(out, schema, false)
		if err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	} else {
		final := s.runs[0].path
		if err := os.Rename(final, out); err != nil {
			return nil, err
		}
		s.files.forget(final)
	}

	self.recordRowCount(spec.Out, res.Rows)
	self.Log.Debug("order by finished",
		"column", spec.Column,
		"desc", spec.Desc,
		"rows", res.Rows,
		"runs", res.Runs,
		"rounds", res.Rounds,
		"numeric", res.Numeric,
	)
	return res, nil
}

// phase 1, cut the stream into sorted runs
func (self *sorter) generate(src RowSource, res *OrderResult) error {
	var buf []*table.Row
	for {
		rows, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		res.Rows += len(rows)
		buf = append(buf, rows...)
		for len(buf) >= self.chunk {
			if err := self.spill(buf[:self.chunk]); err != nil {
				return err
			}
			buf = append([]*table.Row(nil), buf[self.chunk:]...)
		}
	}
	if len(buf) > 0 {
		return self.spill(buf)
	}
	return nil
}

func (self *sorter) numericChunk(rows []*table.Row) bool {
	for _, r := range rows {
		if _, ok := sortKey(r.Values[self.key]); !ok {
			return false
		}
	}
	return true
}

func (self *sorter) sortChunk(rows []*table.Row, numeric bool) {
	cmp := comparator{numeric: numeric, desc: self.desc}
	sort.SliceStable(rows, func(i, j int) bool {
		return cmp.compare(rows[i].Values[self.key], rows[j].Values[self.key]) < 0
	})
}

func (self *sorter) writeRun(path string, rows []*table.Row) error {
	w, err := table.NewWriter(path, self.schema, false)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.WriteRow(r); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func (self *sorter) spill(rows []*table.Row) error {
	numeric := self.numericChunk(rows)
	self.sortChunk(rows, numeric)

	path := self.files.create()
	if err := self.writeRun(path, rows); err != nil {
		return err
	}
	self.runs = append(self.runs, &run{
		path:    path,
		rows:    len(rows),
		numeric: numeric,
	})
	self.engine.Metrics.RunsSpilled.Inc()
	return nil
}

// the comparator of the whole sort is numeric only when every run is
func (self *sorter) fixComparator() bool {
	for _, r := range self.runs {
		if !r.numeric {
			return false
		}
	}
	return true
}

// re-sort the runs that were sorted with another comparator than the one
// the merge uses
func (self *sorter) normalize(numeric bool) error {
	for _, r := range self.runs {
		if r.numeric == numeric {
			continue
		}
		t, err := table.OpenFile(filepath.Base(r.path), r.path)
		if err != nil {
			return err
		}
		c, err := t.Cursor()
		if err != nil {
			return err
		}
		rows, err := c.ReadChunk(r.rows)
		c.Close()
		if err != nil {
			return err
		}
		self.sortChunk(rows, numeric)
		if err := self.writeRun(r.path, rows); err != nil {
			return err
		}
		r.numeric = numeric
	}
	return nil
}

// phase 2, merge rounds until at most one run is left
func (self *sorter) mergeAll(res *OrderResult) error {
	if len(self.runs) < 2 {
		return nil
	}

	pool, err := ants.NewPool(self.engine.Config.MergeWorkers)
	if err != nil {
		return err
	}
	defer pool.Release()

	cmp := comparator{numeric: res.Numeric, desc: self.desc}

	for len(self.runs) > 1 {
		res.Rounds++
		runs := self.runs
		next := make([]*run, (len(runs)+1)/2)
		errs := make([]error, len(next))

		var wg sync.WaitGroup
		for i := 0; i+1 < len(runs); i += 2 {
			idx := i / 2
			l, r := runs[i], runs[i+1]
			wg.Add(1)
			if err := pool.Submit(func() {
				defer func() {
					if v := recover(); v != nil {
						errs[idx] = fmt.Errorf("%w: merge panicked: %v", ErrInvariantViolation, v)
					}
					wg.Done()
				}()
				next[idx], errs[idx] = self.mergePair(l, r, cmp)
			}); err != nil {
				wg.Done()
				errs[idx] = err
			}
		}
		if len(runs)%2 == 1 {
			next[len(next)-1] = runs[len(runs)-1]
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		for i := 0; i+1 < len(runs); i += 2 {
			self.files.remove(runs[i].path)
			self.files.remove(runs[i+1].path)
		}
		self.runs = next
		self.engine.Log.Debug("merge round finished", "round", res.Rounds, "runs", len(next))
	}
	return nil
}

// buffered reader over a run, exposing its current row
type runReader struct {
	cursor *table.Cursor
	chunk  int
	buf    []*table.Row
	pos    int
	eof    bool
}

func openRun(r *run, chunk int) (*runReader, error) {
	t, err := table.OpenFile(filepath.Base(r.path), r.path)
	if err != nil {
		return nil, err
	}
	c, err := t.Cursor()
	if err != nil {
		return nil, err
	}
	rr := &runReader{
		cursor: c,
		chunk:  chunk,
	}
	if err := rr.fill(); err != nil {
		c.Close()
		return nil, err
	}
	return rr, nil
}

func (self *runReader) fill() error {
	rows, err := self.cursor.ReadChunk(self.chunk)
	if err == io.EOF {
		self.eof = true
		self.buf = nil
		self.pos = 0
		return nil
	}
	if err != nil {
		return err
	}
	self.buf = rows
	self.pos = 0
	return nil
}

func (self *runReader) head() (*table.Row, bool) {
	if self.eof {
		return nil, false
	}
	return self.buf[self.pos], true
}

func (self *runReader) advance() error {
	self.pos++
	if self.pos >= len(self.buf) {
		return self.fill()
	}
	return nil
}

func (self *runReader) Close() error {
	return self.cursor.Close()
}

func (self *sorter) mergePair(a, b *run, cmp comparator) (*run, error) {
	ra, err := openRun(a, self.chunk)
	if err != nil {
		return nil, err
	}
	defer ra.Close()
	rb, err := openRun(b, self.chunk)
	if err != nil {
		return nil, err
	}
	defer rb.Close()

	path := self.files.create()
	w, err := table.NewWriter(path, self.schema, false)
	if err != nil {
		return nil, err
	}

	for {
		x, okx := ra.head()
		y, oky := rb.head()
		if !okx && !oky {
			break
		}

		from := ra
		row := x
		if !okx || (oky && cmp.compare(y.Values[self.key], x.Values[self.key]) < 0) {
			from = rb
			row = y
		}
		if err := w.WriteRow(row); err != nil {
			w.Close()
			return nil, err
		}
		if err := from.advance(); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	self.engine.Metrics.RunsMerged.Inc()

	return &run{
		path:    path,
		rows:    a.rows + b.rows,
		numeric: cmp.numeric,
	}, nil
}
