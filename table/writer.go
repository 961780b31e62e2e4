package table

import (
	"encoding/csv"
	"io"
	"os"
)

// Writer creates (or truncates) a table file and appends rows to it. With a
// lazy header the header row is written together with the first row, so a
// writer that never sees a row leaves an empty file behind.
type Writer struct {
	Path   string
	Schema *Schema
	Rows   int

	file   *os.File
	w      *csv.Writer
	lazy   bool
	header bool
}

func NewWriter(path string, s *Schema, lazyHeader bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		Path:   path,
		Schema: s,
		file:   f,
		w:      csv.NewWriter(f),
		lazy:   lazyHeader,
	}
	if !lazyHeader {
		if err := w.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

func (self *Writer) writeHeader() error {
	self.header = true
	return self.w.Write(self.Schema.Columns)
}

func (self *Writer) Write(values []string) error {
	if !self.header {
		if err := self.writeHeader(); err != nil {
			return err
		}
	}
	self.Rows++
	return writeRecord(self.w, self.file, values)
}

func (self *Writer) WriteRow(r *Row) error {
	return self.Write(r.Values)
}

func (self *Writer) Close() error {
	self.w.Flush()
	err := self.w.Error()
	if cerr := self.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// csv writes a record made of a single empty field as an empty line, which
// readers skip, so that record is quoted by hand
func writeRecord(w *csv.Writer, out io.Writer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(out, "\"\"\n")
		return err
	}
	return w.Write(record)
}
