package sql

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestOp(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("== != < > <= >= <> = ( ) , ;")
		assert.True(l.Next() == TkEq)
		assert.True(l.Next() == TkNe)
		assert.True(l.Next() == TkLt)
		assert.True(l.Next() == TkGt)
		assert.True(l.Next() == TkLe)
		assert.True(l.Next() == TkGe)
		assert.True(l.Next() == TkNe)
		assert.True(l.Next() == TkAssign)
		assert.True(l.Next() == TkLPar)
		assert.True(l.Next() == TkRPar)
		assert.True(l.Next() == TkComma)
		assert.True(l.Next() == TkSemicolon)
		assert.True(l.Next() == TkEof)
	}

	// longest match first, no whitespace needed
	{
		l := newLexer("age>=25")
		assert.True(l.Next() == TkAtom)
		assert.Equal("age", l.Lexeme.Text)
		assert.True(l.Next() == TkGe)
		assert.True(l.Next() == TkAtom)
		assert.Equal("25", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("a&&b||c")
		assert.True(l.Next() == TkAtom)
		assert.True(l.Next() == TkAnd)
		assert.True(l.Next() == TkAtom)
		assert.True(l.Next() == TkOr)
		assert.True(l.Next() == TkAtom)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("a ! b")
		assert.True(l.Next() == TkAtom)
		assert.True(l.Next() == TkError)
	}

	{
		l := newLexer("a & b")
		assert.True(l.Next() == TkAtom)
		assert.True(l.Next() == TkError)
	}
}

func TestAtom(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("student.age -3.5 HR 2023-01-01 *")
		assert.True(l.Next() == TkAtom)
		assert.Equal("student.age", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("-3.5", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("HR", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("2023-01-01", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("*", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	// keywords are only recognized as a whole word
	{
		l := newLexer("Oregon android ORDER")
		assert.True(l.Next() == TkAtom)
		assert.Equal("Oregon", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("android", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("ORDER", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}
}

func TestStr(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer(`"New York" 'it\'s' "a\tb"`)
		assert.True(l.Next() == TkStr)
		assert.Equal("New York", l.Lexeme.Text)
		assert.True(l.Next() == TkStr)
		assert.Equal("it's", l.Lexeme.Text)
		assert.True(l.Next() == TkStr)
		assert.Equal("a\tb", l.Lexeme.Text)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer(`"abc`)
		assert.True(l.Next() == TkError)
	}

	{
		l := newLexer(`"a\qb"`)
		assert.True(l.Next() == TkError)
	}
}

func TestKeyword(t *testing.T) {
	assert := assert.New(t)
	{
		l := newLexer("select FROM Where join on as into and OR asc DESC explain")
		assert.True(l.Next() == TkSelect)
		assert.True(l.Next() == TkFrom)
		assert.True(l.Next() == TkWhere)
		assert.True(l.Next() == TkJoin)
		assert.True(l.Next() == TkOn)
		assert.True(l.Next() == TkAs)
		assert.True(l.Next() == TkInto)
		assert.True(l.Next() == TkAnd)
		assert.True(l.Next() == TkOr)
		assert.True(l.Next() == TkAsc)
		assert.True(l.Next() == TkDesc)
		assert.True(l.Next() == TkExplain)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("ORDER_BY order  by group_by GROUP BY")
		assert.True(l.Next() == TkOrderBy)
		assert.True(l.Next() == TkOrderBy)
		assert.True(l.Next() == TkGroupBy)
		assert.True(l.Next() == TkGroupBy)
		assert.True(l.Next() == TkEof)
	}

	{
		l := newLexer("create_table create table insert_into insert into")
		assert.True(l.Next() == TkCreateTable)
		assert.True(l.Next() == TkCreateTable)
		assert.True(l.Next() == TkInsertInto)
		assert.True(l.Next() == TkInsertInto)
		assert.True(l.Next() == TkEof)
	}

	// "order" not followed by "by" stays an atom
	{
		l := newLexer("order bypass")
		assert.True(l.Next() == TkAtom)
		assert.Equal("order", l.Lexeme.Text)
		assert.True(l.Next() == TkAtom)
		assert.Equal("bypass", l.Lexeme.Text)
	}
}
