// Package format prints result rows as padded columns, plain or colored.
package format

import (
	"github.com/fatih/color"
)

// The format is a 2 layer system, the type of a cell (title, number or
// string) picks the instruction and an absent instruction means no styling.

const (
	ColorBlack = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorNone
)

type Instruction struct {
	Ignore    bool // whether this field is entirely ignored
	Bold      bool
	Italic    bool
	Underline bool
	Color     int
	StrOption string
	IntOption int
}

type Format struct {
	Title   *Instruction
	Border  *Instruction
	Padding *Instruction
	Number  *Instruction
	String  *Instruction
}

// builtin format policy
var plainFormat Format

var colorFormat Format

const defPadding = 2

func init() {
	{
		plainFormat.Title = &Instruction{
			Color: ColorNone,
		}
		plainFormat.Border = &Instruction{
			StrOption: " ",
			Color:     ColorNone,
		}
		plainFormat.Padding = &Instruction{
			IntOption: defPadding,
			Color:     ColorNone,
		}
	}

	{
		colorFormat.Title = &Instruction{
			Color: ColorBlue,
			Bold:  true,
		}
		colorFormat.Border = &Instruction{
			StrOption: "|",
			Color:     ColorBlack,
			Bold:      true,
		}
		colorFormat.Padding = &Instruction{
			IntOption: defPadding,
		}
		colorFormat.Number = &Instruction{
			Color: ColorGreen,
			Bold:  true,
		}
		colorFormat.String = &Instruction{
			Color:  ColorRed,
			Italic: true,
		}
	}

	plainFormat.verifyfield()
	colorFormat.verifyfield()
}

func (self *Format) verifyfield() {
	if self.Title == nil {
		panic("title unset")
	}
	if self.Border == nil {
		panic("border unset")
	}
	if self.Padding == nil {
		panic("padding unset")
	}
}

func Plain() *Format { return &plainFormat }
func Color() *Format { return &colorFormat }

func mapcolor(
	c int,
) color.Attribute {
	switch c {
	default:
		return color.Reset
	case ColorBlack:
		return color.FgBlack
	case ColorRed:
		return color.FgRed
	case ColorGreen:
		return color.FgGreen
	case ColorYellow:
		return color.FgYellow
	case ColorBlue:
		return color.FgBlue
	case ColorMagenta:
		return color.FgMagenta
	case ColorCyan:
		return color.FgCyan
	case ColorWhite:
		return color.FgWhite
	}
}

func stylish(
	ins *Instruction,
	text string,
) string {
	if ins == nil || ins.Ignore {
		return text
	}
	if ins.Color == ColorNone && !ins.Bold && !ins.Italic && !ins.Underline {
		return text
	}
	cobj := color.New(mapcolor(ins.Color))
	if ins.Bold {
		cobj.Add(color.Bold)
	}
	if ins.Underline {
		cobj.Add(color.Underline)
	}
	if ins.Italic {
		cobj.Add(color.Italic)
	}
	return cobj.Sprint(text)
}
