package sql

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// Literal
	TkAtom = iota
	TkStr

	// Keywords
	TkSelect
	TkFrom
	TkWhere
	TkJoin
	TkOn
	TkAs
	TkInto
	TkGroupBy
	TkOrderBy
	TkAsc
	TkDesc
	TkCreateTable
	TkInsertInto
	TkExplain

	// Punctuation
	TkComma
	TkSemicolon
	TkAssign
	TkLPar
	TkRPar

	TkLt
	TkLe
	TkGt
	TkGe
	TkEq
	TkNe

	TkAnd
	TkOr

	TkError
	TkEof
)

type Lexeme struct {
	Text string
}

type Lexer struct {
	Source string
	Cursor int
	Start  int // start position of current token
	Token  int
	Lexeme Lexeme
}

func (self *Lexer) nextRune() (rune, int) {
	if self.Cursor >= len(self.Source) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(self.Source[self.Cursor:])
}

func (self *Lexer) nextRune2() rune {
	if self.Cursor+1 >= len(self.Source) {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(self.Source[self.Cursor+1:])
	return r
}

func (self *Lexer) yield(tk int, sz int) int {
	self.Token = tk
	self.Cursor += sz
	return tk
}

func (self *Lexer) eof() int {
	self.Token = TkEof
	return TkEof
}

// generate a debug position for diagnostic information output
func (self *Lexer) pos(where int, source string) (int, int) {
	line := 1
	col := 1
	idx := 0

	for idx < where && idx < len(source) {
		r, sz := utf8.DecodeRuneInString(source[idx:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		idx += sz
	}

	return line, col
}

func (self *Lexer) dinfo() string {
	line, col := self.pos(self.Cursor, self.Source)
	return fmt.Sprintf("around position(%d: %d)", line, col)
}

func (self *Lexer) err(msg string) int {
	self.Lexeme.Text = fmt.Sprintf("%s: %s", self.dinfo(), msg)
	self.Token = TkError
	return TkError
}

func (self *Lexer) errUtf8() int {
	return self.err("invalid utf8 character")
}

func (self *Lexer) lexStr(c rune) int {
	buf := &bytes.Buffer{}

	quote := c
	self.Cursor++
	self.Lexeme.Text = ""

	for {
		c, sz := self.nextRune()

		if c == utf8.RuneError {
			if sz == 0 {
				return self.err("string literal is not closed by quote properly")
			} else {
				return self.errUtf8()
			}
		}

		if c == quote {
			self.Cursor += sz
			break
		}

		if c == '\\' {
			cc := self.nextRune2()
			switch cc {
			case 't':
				self.Cursor++
				buf.WriteRune('\t')
			case 'n':
				self.Cursor++
				buf.WriteRune('\n')
			case '\'':
				self.Cursor++
				buf.WriteRune('\'')
			case '"':
				self.Cursor++
				buf.WriteRune('"')
			case '\\':
				self.Cursor++
				buf.WriteRune('\\')
			default:
				return self.err("unknown escape sequences inside of string literal")
			}
		} else {
			buf.WriteRune(c)
		}

		self.Cursor += sz
	}

	self.Lexeme.Text = buf.String()
	self.Token = TkStr
	return self.Token
}

func (self *Lexer) isWS(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\b', '\v':
		return true
	default:
		return false
	}
}

// An atom is anything that is not whitespace, punctuation or an operator
// character, so numbers, identifiers, dotted column names and bare values all
// share one token kind. Whether an atom is a number is decided at evaluation.
func (self *Lexer) isAtomChar(r rune) bool {
	if self.isWS(r) {
		return false
	}
	switch r {
	case '(', ')', ',', ';', '\'', '"', '=', '!', '<', '>', '&', '|':
		return false
	default:
		return true
	}
}

// skip whitespace starting at offset and check whether the next word is w,
// returns the offset right after the word
func (self *Lexer) matchWord(w string, offset int) (bool, int) {
	c := self.Cursor + offset
	for c < len(self.Source) {
		r, sz := utf8.DecodeRuneInString(self.Source[c:])
		if !self.isWS(r) {
			break
		}
		c += sz
	}
	if c+len(w) > len(self.Source) {
		return false, -1
	}
	if !strings.EqualFold(self.Source[c:c+len(w)], w) {
		return false, -1
	}
	end := c + len(w)
	if end < len(self.Source) {
		r, _ := utf8.DecodeRuneInString(self.Source[end:])
		if self.isAtomChar(r) {
			return false, -1
		}
	}
	return true, end - self.Cursor
}

func (self *Lexer) keyword(word string) int {
	switch strings.ToLower(word) {
	case "select":
		return TkSelect
	case "from":
		return TkFrom
	case "where":
		return TkWhere
	case "join":
		return TkJoin
	case "on":
		return TkOn
	case "as":
		return TkAs
	case "into":
		return TkInto
	case "and":
		return TkAnd
	case "or":
		return TkOr
	case "asc":
		return TkAsc
	case "desc":
		return TkDesc
	case "group_by":
		return TkGroupBy
	case "order_by":
		return TkOrderBy
	case "create_table":
		return TkCreateTable
	case "insert_into":
		return TkInsertInto
	case "explain":
		return TkExplain
	default:
		return -1
	}
}

// two words keywords, ie "group by", "order by", "create table", "insert into"
func (self *Lexer) keyword2(word string) (int, string) {
	switch strings.ToLower(word) {
	case "group":
		return TkGroupBy, "by"
	case "order":
		return TkOrderBy, "by"
	case "create":
		return TkCreateTable, "table"
	case "insert":
		return TkInsertInto, "into"
	default:
		return -1, ""
	}
}

func (self *Lexer) lexAtom() int {
	start := self.Cursor
	for {
		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				break
			}
			return self.errUtf8()
		}
		if !self.isAtomChar(c) {
			break
		}
		self.Cursor += sz
	}

	word := self.Source[start:self.Cursor]
	self.Lexeme.Text = word

	if tk := self.keyword(word); tk >= 0 {
		self.Token = tk
		return tk
	}
	if tk, second := self.keyword2(word); tk >= 0 {
		if yes, l := self.matchWord(second, 0); yes {
			self.Cursor += l
			self.Lexeme.Text = self.Source[start:self.Cursor]
			self.Token = tk
			return tk
		}
	}

	self.Token = TkAtom
	return TkAtom
}

func (self *Lexer) Next() int {
	if self.Token == TkEof {
		return TkEof
	}
	return self.next()
}

func (self *Lexer) next() int {
	for {
		self.Start = self.Cursor

		c, sz := self.nextRune()
		if c == utf8.RuneError {
			if sz == 0 {
				return self.eof()
			} else {
				return self.errUtf8()
			}
		}

		switch c {
		case ',':
			return self.yield(TkComma, 1)

		case ';':
			return self.yield(TkSemicolon, 1)

		case '(':
			return self.yield(TkLPar, 1)
		case ')':
			return self.yield(TkRPar, 1)

		case '&':
			if self.nextRune2() == '&' {
				return self.yield(TkAnd, 2)
			}
			return self.err("are you missing '&' for and operator?")

		case '|':
			if self.nextRune2() == '|' {
				return self.yield(TkOr, 2)
			}
			return self.err("are you missing '|' for or operator?")

		case '=':
			if self.nextRune2() == '=' {
				return self.yield(TkEq, 2)
			} else {
				return self.yield(TkAssign, 1)
			}

		case '>':
			if self.nextRune2() == '=' {
				return self.yield(TkGe, 2)
			} else {
				return self.yield(TkGt, 1)
			}

		case '<':
			if self.nextRune2() == '=' {
				return self.yield(TkLe, 2)
			} else if self.nextRune2() == '>' {
				return self.yield(TkNe, 2)
			} else {
				return self.yield(TkLt, 1)
			}

		case '!':
			if self.nextRune2() == '=' {
				return self.yield(TkNe, 2)
			}
			return self.err("unknown operator '!'")

		case ' ', '\r', '\t', '\n', '\b', '\v':
			self.Cursor++

		case '\'', '"':
			return self.lexStr(c)

		default:
			return self.lexAtom()
		}
	}
}

func IsCompareOp(tk int) bool {
	switch tk {
	case TkEq, TkNe, TkLt, TkLe, TkGt, TkGe:
		return true
	default:
		return false
	}
}

func OpName(tk int) string {
	switch tk {
	case TkEq:
		return "=="
	case TkNe:
		return "!="
	case TkLt:
		return "<"
	case TkLe:
		return "<="
	case TkGt:
		return ">"
	case TkGe:
		return ">="
	case TkAnd:
		return "AND"
	case TkOr:
		return "OR"
	case TkAssign:
		return "="
	default:
		return "?"
	}
}

func newLexer(source string) *Lexer {
	return &Lexer{
		Source: source,
		Cursor: 0,
		Token:  TkError,
	}
}
