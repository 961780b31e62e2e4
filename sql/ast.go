package sql

import (
	"bytes"
	"strconv"
	"strings"
)

const (
	ExprAtom = iota
	ExprCompare
	ExprLogic
)

const (
	StmtCreateTable = iota
	StmtInsert
	StmtSelect
)

const (
	OrderAsc = iota
	OrderDesc
)

type CodeInfo struct {
	Start   int
	End     int
	Snippet string
}

/** -------------------------------------------------------------------------
 ** Expression
 ** -----------------------------------------------------------------------*/

// Leaf of the expression tree, a column name or a literal. Which one it is
// can only be told once a row is at hand.
type Atom struct {
	Text     string
	Quoted   bool
	CodeInfo CodeInfo
}

type Compare struct {
	Op       int
	L        *Atom
	R        *Atom
	CodeInfo CodeInfo
}

type Logic struct {
	Op       int // TkAnd or TkOr
	L        Expr
	R        Expr
	CodeInfo CodeInfo
}

type Expr interface {
	Type() int
	CInfo() CodeInfo
}

func (self *Atom) Type() int       { return ExprAtom }
func (self *Atom) CInfo() CodeInfo { return self.CodeInfo }

func (self *Compare) Type() int       { return ExprCompare }
func (self *Compare) CInfo() CodeInfo { return self.CodeInfo }

func (self *Logic) Type() int       { return ExprLogic }
func (self *Logic) CInfo() CodeInfo { return self.CodeInfo }

/** -------------------------------------------------------------------------
 ** Clause, ie the filter with an optional trailing ORDER_BY
 ** -----------------------------------------------------------------------*/

type OrderBy struct {
	CodeInfo CodeInfo
	Order    int
	Column   string
}

func (self *OrderBy) Desc() bool { return self.Order == OrderDesc }

type Clause struct {
	Where   Expr // nil means no condition
	OrderBy *OrderBy
}

/** -------------------------------------------------------------------------
 ** Statement
 ** -----------------------------------------------------------------------*/

type Stmt interface {
	Type() int
	CInfo() CodeInfo
}

type CreateTable struct {
	CodeInfo CodeInfo
	Table    string
	Columns  []string
}

type Assign struct {
	Column string
	Value  string
}

type Insert struct {
	CodeInfo CodeInfo
	Table    string
	Values   []*Assign
}

// Qualified column name, ie table.column
type ColName struct {
	Table string
	Name  string
}

func (self ColName) String() string {
	if self.Table == "" {
		return self.Name
	}
	return self.Table + "." + self.Name
}

type Join struct {
	CodeInfo CodeInfo
	Table    string
	Alias    string
	LeftKey  ColName
	RightKey ColName
}

type AggCall struct {
	Func   string // upper case function name
	Column string // empty for COUNT()
}

type Where struct {
	CodeInfo  CodeInfo
	Condition Expr
}

type GroupBy struct {
	CodeInfo CodeInfo
	Column   string
}

type Select struct {
	CodeInfo   CodeInfo
	Explain    bool
	Projection []string // plain columns, "*" for wildcard
	Agg        *AggCall
	From       string
	Join       *Join
	Into       string // output table of a join, optional
	Where      *Where
	GroupBy    *GroupBy
	OrderBy    *OrderBy
}

func (self *CreateTable) Type() int       { return StmtCreateTable }
func (self *CreateTable) CInfo() CodeInfo { return self.CodeInfo }

func (self *Insert) Type() int       { return StmtInsert }
func (self *Insert) CInfo() CodeInfo { return self.CodeInfo }

func (self *Select) Type() int       { return StmtSelect }
func (self *Select) CInfo() CodeInfo { return self.CodeInfo }

type Code struct {
	CodeInfo CodeInfo
	Stmt     Stmt
}

/* ----------------------------------------------------------------------------
 * Printer, fully parenthesized so the output can be parsed back
 * ---------------------------------------------------------------------------*/

func doPrintAtom(a *Atom, buf *bytes.Buffer) {
	if a.Quoted {
		buf.WriteString(strconv.Quote(a.Text))
	} else {
		buf.WriteString(a.Text)
	}
}

func doPrintExpr(expr Expr, buf *bytes.Buffer) {
	switch expr.Type() {
	case ExprAtom:
		doPrintAtom(expr.(*Atom), buf)

	case ExprCompare:
		c := expr.(*Compare)
		buf.WriteString("(")
		doPrintAtom(c.L, buf)
		buf.WriteString(" ")
		buf.WriteString(OpName(c.Op))
		buf.WriteString(" ")
		doPrintAtom(c.R, buf)
		buf.WriteString(")")

	case ExprLogic:
		l := expr.(*Logic)
		buf.WriteString("(")
		doPrintExpr(l.L, buf)
		buf.WriteString(" ")
		buf.WriteString(OpName(l.Op))
		buf.WriteString(" ")
		doPrintExpr(l.R, buf)
		buf.WriteString(")")

	default:
		panic("unreachable")
	}
}

func doPrintSelect(s *Select, buf *bytes.Buffer) {
	if s.Explain {
		buf.WriteString("explain ")
	}
	buf.WriteString("select ")
	cols := append([]string{}, s.Projection...)
	if s.Agg != nil {
		cols = append(cols, s.Agg.Func+"("+s.Agg.Column+")")
	}
	buf.WriteString(strings.Join(cols, ", "))
	buf.WriteString("\nfrom ")
	buf.WriteString(s.From)

	if j := s.Join; j != nil {
		buf.WriteString(" join ")
		buf.WriteString(j.Table)
		if j.Alias != "" {
			buf.WriteString(" as ")
			buf.WriteString(j.Alias)
		}
		buf.WriteString(" on ")
		buf.WriteString(j.LeftKey.String())
		buf.WriteString("==")
		buf.WriteString(j.RightKey.String())
	}
	if s.Into != "" {
		buf.WriteString(" into ")
		buf.WriteString(s.Into)
	}
	if s.Where != nil {
		buf.WriteString("\nwhere ")
		doPrintExpr(s.Where.Condition, buf)
	}
	if s.GroupBy != nil {
		buf.WriteString("\ngroup_by ")
		buf.WriteString(s.GroupBy.Column)
	}
	if s.OrderBy != nil {
		buf.WriteString("\norder_by ")
		buf.WriteString(s.OrderBy.Column)
		if s.OrderBy.Desc() {
			buf.WriteString(" desc")
		} else {
			buf.WriteString(" asc")
		}
	}
}

func PrintExpr(expr Expr) string {
	if expr == nil {
		return ""
	}
	b := &bytes.Buffer{}
	doPrintExpr(expr, b)
	return b.String()
}

func PrintSelect(s *Select) string {
	b := &bytes.Buffer{}
	doPrintSelect(s, b)
	return b.String()
}
