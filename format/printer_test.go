package format

import (
	"bytes"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"strings"
	"testing"
)

func TestPlain(t *testing.T) {
	assert := assert.New(t)
	buf := &bytes.Buffer{}
	p := NewPrinter(buf, false, 2)

	assert.Nil(p.Header([]string{"name", "age"}))
	assert.Nil(p.Row([]string{"Alice", "30"}))
	assert.Nil(p.Row([]string{"Bob", ""}))
	assert.Nil(p.Footer())

	assert.Equal(
		"name       age\n"+
			"Alice      30\n"+
			"Bob\n"+
			"(2 rows)\n",
		buf.String(),
	)
}

func TestPlainEmpty(t *testing.T) {
	assert := assert.New(t)
	buf := &bytes.Buffer{}
	p := NewPrinter(buf, false, 0)
	assert.Nil(p.Header([]string{"department_name"}))
	assert.Nil(p.Row([]string{"HR"}))
	assert.Nil(p.Footer())
	assert.Equal("department_name\nHR\n(1 row)\n", buf.String())
}

func TestColor(t *testing.T) {
	assert := assert.New(t)
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	buf := &bytes.Buffer{}
	p := NewPrinter(buf, true, 1)
	assert.Nil(p.Header([]string{"name", "age"}))
	assert.Nil(p.Row([]string{"Alice", "30"}))
	assert.Nil(p.Flush())

	out := buf.String()
	assert.True(strings.Contains(out, "\x1b["))
	assert.True(strings.Contains(out, "Alice"))
	assert.True(strings.Contains(out, "|"))
}

func TestStylish(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("x", stylish(nil, "x"))
	assert.Equal("x", stylish(&Instruction{Ignore: true, Color: ColorRed}, "x"))
	assert.Equal("x", stylish(&Instruction{Color: ColorNone}, "x"))
	assert.Equal(color.FgGreen, mapcolor(ColorGreen))
	assert.Equal(color.Reset, mapcolor(ColorNone))
}
