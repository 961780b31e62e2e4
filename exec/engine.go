// Package exec runs queries over the tables of a store one chunk at a time.
// No operation holds more than a chunk of a table in memory, except group-by
// which holds one state per distinct group.
package exec

import (
	"github.com/dianpeng/chunkdb/internal/logger"
	"github.com/dianpeng/chunkdb/meta"
	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

type Config struct {
	ChunkDivisor int // chunk size is row count divided by this
	MergeWorkers int // pair merges of one sort round running at once
}

type Engine struct {
	Store   *table.Store
	Meta    meta.RowCounter
	Log     *logger.Logger
	Metrics *Metrics
	Config  Config
}

// row counts of result tables are written back when the collaborator
// supports it
type rowCountSetter interface {
	SetRowCount(table string, n int) error
}

func NewEngine(store *table.Store, rc meta.RowCounter, log *logger.Logger, config Config) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	if config.ChunkDivisor < 1 {
		config.ChunkDivisor = 5
	}
	if config.MergeWorkers < 1 {
		config.MergeWorkers = 1
	}
	return &Engine{
		Store:   store,
		Meta:    rc,
		Log:     log.Named("exec"),
		Metrics: NewMetrics(),
		Config:  config,
	}
}

func (self *Engine) ChunkSize(name string) int {
	return meta.ChunkSizeOf(self.Meta, name, self.Config.ChunkDivisor)
}

// Scan opens a chunked scan over a table with its chunk sized from the
// metadata store.
func (self *Engine) Scan(name string, projection []string, filter sql.Expr) (*Scan, error) {
	t, err := self.Store.Open(name)
	if err != nil {
		return nil, err
	}
	s, err := NewScan(t, projection, filter, self.ChunkSize(name))
	if err != nil {
		return nil, err
	}
	s.log = self.Log
	s.metrics = self.Metrics
	s.dropped(self.Log)
	return s, nil
}

func (self *Engine) recordRowCount(name string, n int) {
	if s, ok := self.Meta.(rowCountSetter); ok {
		if err := s.SetRowCount(name, n); err != nil {
			self.Log.Warn("cannot record row count", "table", name, "error", err)
		}
	}
}
