package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrTableExists = errors.New("table already exists")
	ErrNoTable     = errors.New("table does not exist")
	ErrSchema      = errors.New("invalid schema")
	ErrColumn      = errors.New("unknown column")
)

const (
	tableExt = ".csv"

	// files starting with this prefix are private to the engine and never
	// listed as tables
	privatePrefix = "."
)

// A store is a directory of tables, one delimited file per table with its
// header row naming the columns.
type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{
		Dir: dir,
	}, nil
}

func (self *Store) Path(name string) string {
	return filepath.Join(self.Dir, name+tableExt)
}

func (self *Store) Exists(name string) bool {
	_, err := os.Stat(self.Path(name))
	return err == nil
}

// Tables lists the names of every table in the store, sorted.
func (self *Store) Tables() ([]string, error) {
	entries, err := os.ReadDir(self.Dir)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, privatePrefix) || !strings.HasSuffix(n, tableExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(n, tableExt))
	}
	sort.Strings(out)
	return out, nil
}

func (self *Store) Create(name string, cols []string) (*Table, error) {
	if name == "" || strings.HasPrefix(name, privatePrefix) {
		return nil, fmt.Errorf("%w: invalid table name %q", ErrSchema, name)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no column specified", ErrSchema)
	}
	s, err := NewSchema(cols)
	if err != nil {
		return nil, err
	}
	path := self.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableExists, name)
		}
		return nil, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(s.Columns); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return &Table{
		Name:   name,
		Path:   path,
		Schema: s,
	}, nil
}

func (self *Store) Open(name string) (*Table, error) {
	return OpenFile(name, self.Path(name))
}

// Insert appends one row, values are ordered by the header and columns not
// mentioned are stored as empty text.
func (self *Store) Insert(name string, values map[string]string) error {
	t, err := self.Open(name)
	if err != nil {
		return err
	}
	for col := range values {
		if !t.Schema.Has(col) {
			return fmt.Errorf("%w: table %s has no column %q", ErrColumn, name, col)
		}
	}
	record := make([]string, t.Schema.Len())
	for i, c := range t.Schema.Columns {
		record[i] = values[c]
	}

	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := writeRecord(w, f, record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (self *Store) Remove(name string) error {
	if err := os.Remove(self.Path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoTable, name)
		}
		return err
	}
	return nil
}

// A table handle, ie schema plus the file it lives in. Every cursor opened
// on a table is independent.
type Table struct {
	Name   string
	Path   string
	Schema *Schema
}

// OpenFile opens a table stored at an arbitrary path, run files use it.
func OpenFile(name, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoTable, name)
		}
		return nil, err
	}
	defer f.Close()

	r := newReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return &Table{
			Name:   name,
			Path:   path,
			Schema: emptySchema(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("table %s: bad header: %w", name, err)
	}
	s, err := NewSchema(header)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	return &Table{
		Name:   name,
		Path:   path,
		Schema: s,
	}, nil
}

func (self *Table) Cursor() (*Cursor, error) {
	return newCursor(self)
}

func newReader(r io.Reader) *csv.Reader {
	rr := csv.NewReader(r)
	rr.FieldsPerRecord = -1
	rr.ReuseRecord = false
	return rr
}
