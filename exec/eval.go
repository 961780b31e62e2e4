package exec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

// value of an atom once resolved against a row
type operand struct {
	text  string
	num   float64
	isNum bool
}

// parseNumber accepts whatever strconv accepts as a finite float, so "nan"
// and "inf" stay text.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// An unquoted atom naming a column of the row takes the column's value, an
// empty value reads as 0. Anything else is a literal, and quoted literals are
// always text.
func resolve(a *sql.Atom, row *table.Row) operand {
	if !a.Quoted {
		text := a.Text
		if row != nil {
			if v, ok := row.Get(a.Text); ok {
				text = v
				if text == "" {
					text = "0"
				}
			}
		}
		if n, ok := parseNumber(text); ok {
			return operand{text: text, num: n, isNum: true}
		}
		return operand{text: text}
	}
	return operand{text: a.Text}
}

func compare(op int, l, r operand) (bool, error) {
	switch op {
	case sql.TkEq, sql.TkNe:
		var eq bool
		if l.isNum && r.isNum {
			eq = l.num == r.num
		} else {
			eq = l.text == r.text
		}
		if op == sql.TkEq {
			return eq, nil
		}
		return !eq, nil

	case sql.TkLt, sql.TkLe, sql.TkGt, sql.TkGe:
		// ordering is numeric only, text on either side fails the comparison
		if !l.isNum || !r.isNum {
			return false, nil
		}
		switch op {
		case sql.TkLt:
			return l.num < r.num, nil
		case sql.TkLe:
			return l.num <= r.num, nil
		case sql.TkGt:
			return l.num > r.num, nil
		default:
			return l.num >= r.num, nil
		}

	default:
		return false, fmt.Errorf("%w: unknown comparison operator %d", ErrInvariantViolation, op)
	}
}

// Evaluate tells whether the row satisfies the condition, a nil condition
// is satisfied by every row.
func Evaluate(expr sql.Expr, row *table.Row) (bool, error) {
	if expr == nil {
		return true, nil
	}

	switch expr.Type() {
	case sql.ExprCompare:
		c := expr.(*sql.Compare)
		return compare(c.Op, resolve(c.L, row), resolve(c.R, row))

	case sql.ExprLogic:
		l := expr.(*sql.Logic)
		lv, err := Evaluate(l.L, row)
		if err != nil {
			return false, err
		}
		rv, err := Evaluate(l.R, row)
		if err != nil {
			return false, err
		}
		switch l.Op {
		case sql.TkAnd:
			return lv && rv, nil
		case sql.TkOr:
			return lv || rv, nil
		default:
			return false, fmt.Errorf("%w: unknown logic operator %d", ErrInvariantViolation, l.Op)
		}

	default:
		return false, fmt.Errorf("%w: bare operand %q is not a condition", ErrInvariantViolation, sql.PrintExpr(expr))
	}
}
