// Package meta keeps the row count of every table. The counts are advisory,
// they are only used to size the chunks a table is scanned with.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// RowCounter is what the engine needs from the metadata store.
type RowCounter interface {
	RowCount(table string) (int, bool)
}

type entry struct {
	RowCount int `json:"row_count"`
}

// Store is a json file mapping table name to its metadata.
type Store struct {
	Path string

	mu     sync.Mutex
	tables map[string]*entry
}

func Open(path string) (*Store, error) {
	s := &Store{
		Path:   path,
		tables: make(map[string]*entry),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.tables); err != nil {
		return nil, fmt.Errorf("corrupted metadata file %s: %w", path, err)
	}
	return s, nil
}

func (self *Store) RowCount(table string) (int, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()
	if e, ok := self.tables[table]; ok {
		return e.RowCount, true
	}
	return 0, false
}

// Register records a freshly created, empty table.
func (self *Store) Register(table string) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.tables[table] = &entry{}
	return self.save()
}

func (self *Store) RecordInsert(table string) error {
	return self.add(table, 1)
}

// SetRowCount overwrites the count, used after a result table is written.
func (self *Store) SetRowCount(table string, n int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.tables[table] = &entry{RowCount: n}
	return self.save()
}

func (self *Store) Forget(table string) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	delete(self.tables, table)
	return self.save()
}

func (self *Store) add(table string, n int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	e, ok := self.tables[table]
	if !ok {
		e = &entry{}
		self.tables[table] = e
	}
	e.RowCount += n
	return self.save()
}

func (self *Store) save() error {
	data, err := json.MarshalIndent(self.tables, "", "  ")
	if err != nil {
		return err
	}
	tmp := self.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, self.Path)
}

// ChunkSize sizes the chunk of a table from its row count, max(1, n/divisor),
// and 1 when the count is unknown.
func ChunkSize(count int, known bool, divisor int) int {
	if !known {
		return 1
	}
	if divisor < 1 {
		divisor = 1
	}
	n := count / divisor
	if n < 1 {
		return 1
	}
	return n
}

// ChunkSizeOf is ChunkSize with the count looked up in the store.
func ChunkSizeOf(rc RowCounter, table string, divisor int) int {
	if rc == nil {
		return 1
	}
	n, ok := rc.RowCount(table)
	return ChunkSize(n, ok, divisor)
}
