package format

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Printer writes rows as they arrive, the width of every column is fixed by
// the header so a result never needs to be held in memory to be printed.
type Printer struct {
	Format *Format
	Out    *bufio.Writer

	width []int
	rows  int
}

func NewPrinter(out io.Writer, colored bool, padding int) *Printer {
	f := *Plain()
	if colored {
		f = *Color()
	}
	if padding >= 0 {
		p := *f.Padding
		p.IntOption = padding
		f.Padding = &p
	}
	return &Printer{
		Format: &f,
		Out:    bufio.NewWriter(out),
	}
}

const minWidth = 8

func (self *Printer) Header(cols []string) error {
	self.width = make([]int, len(cols))
	for i, c := range cols {
		w := utf8.RuneCountInString(c)
		if w < minWidth {
			w = minWidth
		}
		self.width[i] = w + self.Format.Padding.IntOption
	}

	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = stylish(self.Format.Title, self.pad(c, i))
	}
	return self.line(cells)
}

func (self *Printer) Row(values []string) error {
	cells := make([]string, len(values))
	for i, v := range values {
		ins := self.Format.String
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			ins = self.Format.Number
		}
		cells[i] = stylish(ins, self.pad(v, i))
	}
	self.rows++
	return self.line(cells)
}

func (self *Printer) pad(text string, idx int) string {
	if idx >= len(self.width) {
		return text
	}
	n := self.width[idx] - utf8.RuneCountInString(text)
	if n <= 0 {
		return text
	}
	return text + strings.Repeat(" ", n)
}

func (self *Printer) line(cells []string) error {
	border := self.Format.Border
	sep := stylish(border, border.StrOption)
	_, err := fmt.Fprintf(self.Out, "%s\n", strings.TrimRight(strings.Join(cells, sep), " "))
	return err
}

// Footer prints the row count and flushes.
func (self *Printer) Footer() error {
	unit := "rows"
	if self.rows == 1 {
		unit = "row"
	}
	if _, err := fmt.Fprintf(self.Out, "(%d %s)\n", self.rows, unit); err != nil {
		return err
	}
	return self.Out.Flush()
}

func (self *Printer) Flush() error {
	return self.Out.Flush()
}
