package sql

// parser of the command line and of the filter clause. We briefly describe
// the grammar as following EBNF
//
// ### statement -------------------------------------------------------------
//
// code := (create-table | insert | select) ';'?
//
// create-table := CREATE_TABLE ID ( '(' id-list ')' | id-list )
// id-list := ID (',' ID)*
//
// insert := INSERT_INTO ID assign (',' assign)*
// assign := ID '=' (ID|STR)
//
// select := EXPLAIN? SELECT projection FROM ID
//     join?
//     into?
//     where?
//     group-by?
//     order-by?
//
// projection := proj-var (',' proj-var)*
// proj-var := ID | ID '(' ID? ')'
// join := JOIN ID (AS ID)? ON ID '==' ID
// into := INTO ID
// where := WHERE clause
// group-by := GROUP_BY ID
// order-by := ORDER_BY (ID | ID '(' ID? ')') (ASC|DESC)?
//
// ### clause ----------------------------------------------------------------
//
// clause := or-expr
// or-expr := and-expr (OR and-expr)*
// and-expr := term (AND term)*
// term := '(' clause ')' | comparison
// comparison := atom op atom
// op := '==' | '!=' | '<' | '>' | '<=' | '>='
// atom := ID | STR
//
// ----------------------------------------------------------------------------

import (
	"errors"
	"fmt"
	"strings"
)

var ErrParse = errors.New("parse error")

type Parser struct {
	L *Lexer
}

func newParser(xx string) *Parser {
	return &Parser{
		L: newLexer(xx),
	}
}

func NewParser(xx string) *Parser {
	return newParser(xx)
}

func (self *Parser) posStart() int {
	return self.L.Start
}

func (self *Parser) posEnd() int {
	return self.L.Start
}

func (self *Parser) snippet(start, end int) string {
	if start >= end {
		start = end
	}
	return strings.TrimSpace(self.L.Source[start:end])
}

func (self *Parser) err(msg string) error {
	if self.L.Token == TkError {
		return fmt.Errorf("%w: %s", ErrParse, self.L.Lexeme.Text)
	} else {
		return fmt.Errorf("%w: %s: %s", ErrParse, self.L.dinfo(), msg)
	}
}

func (self *Parser) expect(tk int, what string) error {
	if self.L.Token == tk {
		self.L.Next()
		return nil
	} else {
		return self.err(fmt.Sprintf("expect %s", what))
	}
}

func (self *Parser) currentCodeInfo(start int) CodeInfo {
	end := self.posEnd()
	if self.L.Token == TkEof {
		end = len(self.L.Source)
	}
	return CodeInfo{
		Start:   start,
		End:     end,
		Snippet: self.snippet(start, end),
	}
}

func (self *Parser) isAtom() bool {
	return self.L.Token == TkAtom || self.L.Token == TkStr
}

func (self *Parser) parseName(what string) (string, error) {
	if self.L.Token != TkAtom {
		return "", self.err(fmt.Sprintf("expect %s", what))
	}
	n := self.L.Lexeme.Text
	self.L.Next()
	return n, nil
}

func (self *Parser) finish() error {
	if self.L.Token == TkSemicolon {
		self.L.Next()
	}
	if self.L.Token == TkRPar {
		return self.err("unbalanced parentheses, unexpected ')'")
	}
	if self.L.Token != TkEof {
		return self.err("dangling code after parser thinks the statement is finished")
	}
	return nil
}

// ParseClause parses a filter clause with an optional trailing ORDER_BY.
func ParseClause(clause string) (*Clause, error) {
	p := newParser(clause)
	p.L.Next()
	c, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

func (self *Parser) parseClause() (*Clause, error) {
	if self.L.Token == TkEof {
		return nil, self.err("empty clause, expect a condition")
	}

	c := &Clause{}
	if self.L.Token != TkOrderBy {
		if e, err := self.parseExpr(); err != nil {
			return nil, err
		} else {
			c.Where = e
		}
	}
	if self.L.Token == TkOrderBy {
		if o, err := self.parseOrderBy(); err != nil {
			return nil, err
		} else {
			c.OrderBy = o
		}
	}
	return c, nil
}

func (self *Parser) Parse() (*Code, error) {
	c := &Code{}

	self.L.Next()
	start := self.posStart()

	switch self.L.Token {
	case TkCreateTable:
		if n, err := self.parseCreateTable(); err != nil {
			return nil, err
		} else {
			c.Stmt = n
		}
	case TkInsertInto:
		if n, err := self.parseInsert(); err != nil {
			return nil, err
		} else {
			c.Stmt = n
		}
	case TkSelect, TkExplain:
		if n, err := self.parseSelect(); err != nil {
			return nil, err
		} else {
			c.Stmt = n
		}
	default:
		return nil, self.err("unknown statement, expect *create_table*, *insert_into* or *select*")
	}

	c.CodeInfo = self.currentCodeInfo(start)
	if err := self.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

func (self *Parser) parseIdList() ([]string, error) {
	out := []string{}
	for {
		if n, err := self.parseName("a column name"); err != nil {
			return nil, err
		} else {
			out = append(out, n)
		}
		if self.L.Token != TkComma {
			break
		}
		self.L.Next()
	}
	return out, nil
}

func (self *Parser) parseCreateTable() (*CreateTable, error) {
	start := self.posStart()
	self.L.Next() // skip the *create_table* keyword

	name, err := self.parseName("a table name")
	if err != nil {
		return nil, err
	}

	var cols []string
	if self.L.Token == TkLPar {
		self.L.Next()
		if cols, err = self.parseIdList(); err != nil {
			return nil, err
		}
		if err := self.expect(TkRPar, "')' to close the column list"); err != nil {
			return nil, err
		}
	} else {
		if cols, err = self.parseIdList(); err != nil {
			return nil, err
		}
	}

	return &CreateTable{
		CodeInfo: self.currentCodeInfo(start),
		Table:    name,
		Columns:  cols,
	}, nil
}

func (self *Parser) parseInsert() (*Insert, error) {
	start := self.posStart()
	self.L.Next() // skip the *insert_into* keyword

	name, err := self.parseName("a table name")
	if err != nil {
		return nil, err
	}

	out := &Insert{
		Table: name,
	}

	for {
		col, err := self.parseName("a column name")
		if err != nil {
			return nil, err
		}
		if err := self.expect(TkAssign, "'=' to assign a value to the column"); err != nil {
			return nil, err
		}
		if !self.isAtom() {
			return nil, self.err("expect a value for the column")
		}
		out.Values = append(out.Values, &Assign{
			Column: col,
			Value:  self.L.Lexeme.Text,
		})
		self.L.Next()

		if self.L.Token != TkComma {
			break
		}
		self.L.Next()
	}

	out.CodeInfo = self.currentCodeInfo(start)
	return out, nil
}

func (self *Parser) parseSelect() (*Select, error) {
	start := self.posStart()
	explain := false

	if self.L.Token == TkExplain {
		explain = true
		self.L.Next()
		if self.L.Token != TkSelect {
			return nil, self.err("expect *select* after *explain*")
		}
	}
	self.L.Next() // skip the *select* keyword

	s := &Select{
		Explain: explain,
	}

	if err := self.parseProjection(s); err != nil {
		return nil, err
	}

	if err := self.expect(TkFrom, "*from* clause"); err != nil {
		return nil, err
	}
	if n, err := self.parseName("a table name after *from*"); err != nil {
		return nil, err
	} else {
		s.From = n
	}

	if self.L.Token == TkJoin {
		if j, err := self.parseJoin(); err != nil {
			return nil, err
		} else {
			s.Join = j
		}
	}

	if self.L.Token == TkInto {
		self.L.Next()
		if n, err := self.parseName("an output table name after *into*"); err != nil {
			return nil, err
		} else {
			s.Into = n
		}
	}

	if self.L.Token == TkWhere {
		wstart := self.posStart()
		self.L.Next()
		if self.L.Token == TkEof || self.L.Token == TkGroupBy || self.L.Token == TkOrderBy {
			return nil, self.err("empty *where* clause, expect a condition")
		}
		e, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		s.Where = &Where{
			CodeInfo:  self.currentCodeInfo(wstart),
			Condition: e,
		}
	}

	if self.L.Token == TkGroupBy {
		gstart := self.posStart()
		self.L.Next()
		if n, err := self.parseName("a column name after *group_by*"); err != nil {
			return nil, err
		} else {
			s.GroupBy = &GroupBy{
				CodeInfo: self.currentCodeInfo(gstart),
				Column:   n,
			}
		}
	}

	if self.L.Token == TkOrderBy {
		if o, err := self.parseOrderBy(); err != nil {
			return nil, err
		} else {
			s.OrderBy = o
		}
	}

	s.CodeInfo = self.currentCodeInfo(start)
	return s, nil
}

func (self *Parser) parseProjection(s *Select) error {
	for {
		if self.L.Token != TkAtom {
			return self.err("expect a column name in projection")
		}
		name := self.L.Lexeme.Text
		self.L.Next()

		if self.L.Token == TkLPar {
			if s.Agg != nil {
				return self.err("only one aggregation function is allowed")
			}
			self.L.Next()
			call := &AggCall{
				Func: strings.ToUpper(name),
			}
			if self.L.Token == TkAtom {
				call.Column = self.L.Lexeme.Text
				self.L.Next()
			}
			if err := self.expect(TkRPar, "')' to close the aggregation function"); err != nil {
				return err
			}
			s.Agg = call
		} else {
			s.Projection = append(s.Projection, name)
		}

		if self.L.Token != TkComma {
			break
		}
		self.L.Next()
	}
	return nil
}

func (self *Parser) parseColName(what string) (ColName, error) {
	if self.L.Token != TkAtom {
		return ColName{}, self.err(fmt.Sprintf("expect %s", what))
	}
	text := self.L.Lexeme.Text
	tbl, col, ok := strings.Cut(text, ".")
	if !ok || tbl == "" || col == "" {
		return ColName{}, self.err(fmt.Sprintf("expect %s in format table.column", what))
	}
	self.L.Next()
	return ColName{Table: tbl, Name: col}, nil
}

func (self *Parser) parseJoin() (*Join, error) {
	start := self.posStart()
	self.L.Next() // skip the *join* keyword

	j := &Join{}
	if n, err := self.parseName("a table name after *join*"); err != nil {
		return nil, err
	} else {
		j.Table = n
	}

	if self.L.Token == TkAs {
		self.L.Next()
		if n, err := self.parseName("an alias after *as*"); err != nil {
			return nil, err
		} else {
			j.Alias = n
		}
	}

	if err := self.expect(TkOn, "*on* for join condition"); err != nil {
		return nil, err
	}

	l, err := self.parseColName("left join key")
	if err != nil {
		return nil, err
	}
	if self.L.Token != TkEq {
		return nil, self.err("join condition must be an equality '=='")
	}
	self.L.Next()
	r, err := self.parseColName("right join key")
	if err != nil {
		return nil, err
	}

	j.LeftKey = l
	j.RightKey = r
	j.CodeInfo = self.currentCodeInfo(start)
	return j, nil
}

func (self *Parser) parseOrderBy() (*OrderBy, error) {
	start := self.posStart()
	self.L.Next() // skip the *order_by* keyword

	col, err := self.parseName("a column name after *order_by*")
	if err != nil {
		return nil, err
	}

	// ordering by the aggregate of a group by, ie order_by SUM(salary)
	if self.L.Token == TkLPar {
		self.L.Next()
		arg := ""
		if self.L.Token == TkAtom {
			arg = self.L.Lexeme.Text
			self.L.Next()
		}
		if err := self.expect(TkRPar, "')' to close the aggregation function"); err != nil {
			return nil, err
		}
		fn := strings.ToUpper(col)
		if fn == AggCount {
			arg = ""
		}
		col = fn + "(" + arg + ")"
	}

	o := &OrderBy{
		Order:  OrderAsc,
		Column: col,
	}

	switch self.L.Token {
	case TkAsc:
		self.L.Next()
	case TkDesc:
		o.Order = OrderDesc
		self.L.Next()
	}

	o.CodeInfo = self.currentCodeInfo(start)
	return o, nil
}

// ----------------------------------------------------------------------------
// Expression parsing
// ----------------------------------------------------------------------------

func (self *Parser) parseExpr() (Expr, error) {
	return self.parseBinary()
}

const invalidOpPrec = -1

func (self *Parser) binPrec(tk int) int {
	switch tk {
	case TkOr:
		return 0
	case TkAnd:
		return 1
	default:
		return invalidOpPrec
	}
}

// Binary parsing, precedence climbing
func (self *Parser) doParseBin(prec int) (Expr, error) {
	start := self.posStart()

	l, err := self.parseTerm()
	if err != nil {
		return nil, err
	}

	return self.doParseBinRest(l, prec, start)
}

func (self *Parser) parseBinary() (Expr, error) {
	return self.doParseBin(0)
}

func (self *Parser) doParseBinRest(lhs Expr,
	prec int,
	start int,
) (Expr, error) {
	for {
		tk := self.L.Token
		nextPrec := self.binPrec(tk)

		if nextPrec == invalidOpPrec {
			break
		} else if nextPrec < prec {
			break
		}

		self.L.Next() // eat the operator token

		v, err := self.doParseBin(nextPrec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &Logic{
			Op:       tk,
			L:        lhs,
			R:        v,
			CodeInfo: self.currentCodeInfo(start),
		}
	}

	return lhs, nil
}

func (self *Parser) parseAtom() *Atom {
	a := &Atom{
		Text:   self.L.Lexeme.Text,
		Quoted: self.L.Token == TkStr,
		CodeInfo: CodeInfo{
			Start:   self.L.Start,
			End:     self.L.Cursor,
			Snippet: self.L.Source[self.L.Start:self.L.Cursor],
		},
	}
	self.L.Next()
	return a
}

func (self *Parser) parseTerm() (Expr, error) {
	start := self.posStart()

	switch self.L.Token {
	case TkLPar:
		self.L.Next()
		e, err := self.parseExpr()
		if err != nil {
			return nil, err
		}
		if self.L.Token != TkRPar {
			return nil, self.err("unbalanced parentheses, expect ')'")
		}
		self.L.Next()
		return e, nil

	case TkRPar:
		return nil, self.err("unbalanced parentheses, unexpected ')'")

	case TkAtom, TkStr:
		l := self.parseAtom()

		op := self.L.Token
		if op == TkAssign {
			return nil, self.err("unknown operator '=', do you mean '=='?")
		}
		if op == TkError {
			return nil, self.err("")
		}
		if !IsCompareOp(op) {
			return nil, self.err("expect a comparison operator after operand")
		}
		self.L.Next()

		if self.L.Token == TkError {
			return nil, self.err("")
		}
		if !self.isAtom() {
			if IsCompareOp(self.L.Token) || self.L.Token == TkAssign {
				return nil, self.err("unknown operator")
			}
			return nil, self.err("comparison is missing its right operand")
		}
		r := self.parseAtom()

		return &Compare{
			Op:       op,
			L:        l,
			R:        r,
			CodeInfo: self.currentCodeInfo(start),
		}, nil

	case TkEq, TkNe, TkLt, TkLe, TkGt, TkGe:
		return nil, self.err("comparison is missing its left operand")

	case TkError:
		return nil, self.err("")

	default:
		return nil, self.err("missing operand, expect a comparison or '('")
	}
}
