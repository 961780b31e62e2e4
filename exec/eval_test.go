package exec

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

func studentRow(id, name, age string) *table.Row {
	s, _ := table.NewSchema([]string{"id", "name", "age", "city"})
	return table.NewRow(s, []string{id, name, age, "New York"})
}

func doTestEval(expect bool, clause string, row *table.Row, assert *assert.Assertions) {
	cl, err := sql.ParseClause(clause)
	assert.Nil(err, clause)
	if err != nil {
		return
	}
	v, err := Evaluate(cl.Where, row)
	assert.Nil(err, clause)
	assert.Equal(expect, v, clause)
}

func TestEvaluate(t *testing.T) {
	assert := assert.New(t)
	row := studentRow("1", "Alice", "30")

	doTestEval(true, "age>25", row, assert)
	doTestEval(false, "age>30", row, assert)
	doTestEval(true, "age>=30", row, assert)
	doTestEval(true, "age<=30.0", row, assert)
	doTestEval(true, "age==30.0", row, assert)
	doTestEval(true, "age!=31", row, assert)
	doTestEval(true, "25<age", row, assert)

	// strings
	doTestEval(true, "name==Alice", row, assert)
	doTestEval(true, `name=="Alice"`, row, assert)
	doTestEval(false, "name==alice", row, assert)
	doTestEval(true, "name!=Bob", row, assert)
	doTestEval(true, `city=="New York"`, row, assert)

	// ordering against text is false, never an error
	doTestEval(false, "name>1", row, assert)
	doTestEval(false, "name<1", row, assert)
	doTestEval(false, "age<abc", row, assert)
	doTestEval(false, `age>"25"`, row, assert)

	// literal on both sides
	doTestEval(true, "1<2", row, assert)
	doTestEval(true, "grade==grade", row, assert)

	// nan and inf are text
	doTestEval(false, "age<inf", row, assert)
	doTestEval(false, "nan==nan AND age<nan", row, assert)

	// logic
	doTestEval(true, "age>25 AND name==Alice", row, assert)
	doTestEval(false, "age>25 AND name==Bob", row, assert)
	doTestEval(true, "age>99 OR name==Alice", row, assert)
	doTestEval(true, "(age>99 OR name==Alice) AND id==1", row, assert)
	doTestEval(false, "age>99 OR name==Bob AND id==1", row, assert)
}

func TestEvaluateEmpty(t *testing.T) {
	assert := assert.New(t)
	row := studentRow("2", "Bob", "")

	doTestEval(false, "age>5", row, assert)
	doTestEval(true, "age<5", row, assert)
	doTestEval(true, "age==0", row, assert)
	doTestEval(true, `age=="0"`, row, assert)
	doTestEval(false, "age!=0", row, assert)
}

func TestEvaluateNil(t *testing.T) {
	assert := assert.New(t)
	v, err := Evaluate(nil, studentRow("1", "Alice", "30"))
	assert.Nil(err)
	assert.True(v)
}

func TestEvaluateInvariant(t *testing.T) {
	assert := assert.New(t)
	row := studentRow("1", "Alice", "30")
	{
		_, err := Evaluate(&sql.Compare{
			Op: sql.TkAssign,
			L:  &sql.Atom{Text: "age"},
			R:  &sql.Atom{Text: "30"},
		}, row)
		assert.True(errors.Is(err, ErrInvariantViolation))
	}
	{
		_, err := Evaluate(&sql.Logic{
			Op: sql.TkEq,
			L:  mustClause(t, "a==1"),
			R:  mustClause(t, "b==1"),
		}, row)
		assert.True(errors.Is(err, ErrInvariantViolation))
	}
	{
		_, err := Evaluate(&sql.Atom{Text: "age"}, row)
		assert.True(errors.Is(err, ErrInvariantViolation))
	}
	// error in the right side of a logic surfaces
	{
		_, err := Evaluate(&sql.Logic{
			Op: sql.TkOr,
			L:  mustClause(t, "age==30"),
			R:  &sql.Atom{Text: "age"},
		}, row)
		assert.True(errors.Is(err, ErrInvariantViolation))
	}
}

// random expression tree over integer columns, together with the value a
// hand evaluation gives for one row
type randExpr struct {
	text  string
	value bool
}

var randOps = []struct {
	op string
	fn func(a, b int) bool
}{
	{"==", func(a, b int) bool { return a == b }},
	{"!=", func(a, b int) bool { return a != b }},
	{"<", func(a, b int) bool { return a < b }},
	{"<=", func(a, b int) bool { return a <= b }},
	{">", func(a, b int) bool { return a > b }},
	{">=", func(a, b int) bool { return a >= b }},
}

func genExpr(rnd *rand.Rand, depth int, cols map[string]int) randExpr {
	if depth == 0 {
		names := []string{"a", "b", "c"}
		col := names[rnd.Intn(len(names))]
		lit := rnd.Intn(5)
		op := randOps[rnd.Intn(len(randOps))]
		return randExpr{
			text:  fmt.Sprintf("%s %s %d", col, op.op, lit),
			value: op.fn(cols[col], lit),
		}
	}
	l := genExpr(rnd, depth-1, cols)
	r := genExpr(rnd, depth-1, cols)
	if rnd.Intn(2) == 0 {
		return randExpr{
			text:  "(" + l.text + " AND " + r.text + ")",
			value: l.value && r.value,
		}
	}
	return randExpr{
		text:  "(" + l.text + " OR " + r.text + ")",
		value: l.value || r.value,
	}
}

func TestEvaluateNested(t *testing.T) {
	assert := assert.New(t)
	rnd := rand.New(rand.NewSource(7))
	s, _ := table.NewSchema([]string{"a", "b", "c"})

	for i := 0; i < 300; i++ {
		cols := map[string]int{
			"a": rnd.Intn(5),
			"b": rnd.Intn(5),
			"c": rnd.Intn(5),
		}
		row := table.NewRow(s, []string{
			fmt.Sprint(cols["a"]),
			fmt.Sprint(cols["b"]),
			fmt.Sprint(cols["c"]),
		})
		e := genExpr(rnd, 3, cols)
		doTestEval(e.value, e.text, row, assert)
	}
}

// AND binds tighter than OR without parentheses
func TestEvaluatePrecedence(t *testing.T) {
	assert := assert.New(t)
	s, _ := table.NewSchema([]string{"a", "b", "c"})

	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			for c := 0; c < 2; c++ {
				row := table.NewRow(s, []string{fmt.Sprint(a), fmt.Sprint(b), fmt.Sprint(c)})
				doTestEval(a == 1 || (b == 1 && c == 1), "a==1 OR b==1 AND c==1", row, assert)
				doTestEval((a == 1 && b == 1) || c == 1, "a==1 AND b==1 OR c==1", row, assert)
				doTestEval((a == 1 || b == 1) && c == 1, "(a==1 OR b==1) AND c==1", row, assert)
			}
		}
	}
}
