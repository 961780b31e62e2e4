package shell

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dianpeng/chunkdb/exec"
	"github.com/dianpeng/chunkdb/internal/config"
	"github.com/dianpeng/chunkdb/meta"
	"github.com/dianpeng/chunkdb/plan"
	"github.com/dianpeng/chunkdb/sql"
	"github.com/dianpeng/chunkdb/table"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()

	store, err := table.NewStore(cfg.Storage.DataDir)
	if err != nil {
		t.Fatal(err)
	}
	ms, err := meta.Open(filepath.Join(cfg.Storage.DataDir, cfg.Storage.MetaFile))
	if err != nil {
		t.Fatal(err)
	}
	engine := exec.NewEngine(store, ms, nil, exec.Config{
		ChunkDivisor: cfg.Exec.ChunkDivisor,
		MergeWorkers: cfg.Exec.MergeWorkers,
	})
	buf := &bytes.Buffer{}
	return New(cfg, store, ms, engine, buf, nil), buf
}

func mustExec(t *testing.T, s *Shell, lines ...string) {
	for _, l := range lines {
		if err := s.Exec(l); err != nil {
			t.Fatalf("%s: %s", l, err)
		}
	}
}

// query runs a select and returns the printed result split in fields, the
// row count footer excluded
func query(t *testing.T, s *Shell, buf *bytes.Buffer, code string) [][]string {
	buf.Reset()
	mustExec(t, s, code)
	out := [][]string{}
	for _, l := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if strings.HasPrefix(l, "(") && strings.HasSuffix(l, ")") {
			continue
		}
		out = append(out, strings.Fields(l))
	}
	return out
}

func fillStudent(t *testing.T, s *Shell) {
	mustExec(t, s,
		"create_table student id,name,age",
		"insert_into student id=1,name=Alice,age=30",
		"insert_into student id=2,name=Bob,age=20",
		"insert_into student id=3,name=Carol,age=27",
		`insert_into student id=4,name="Dave",age=19`,
	)
}

func TestStudent(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)

	mustExec(t, s,
		"create_table student id,name,age",
		"insert_into student id=1,name=Alice,age=30",
		"insert_into student id=2,name=Bob,age=20",
	)
	assert.Equal(
		[][]string{{"name"}, {"Alice"}},
		query(t, s, buf, "select name from student where age>25"),
	)
	assert.True(strings.HasSuffix(buf.String(), "(1 row)\n"))

	n, ok := s.Meta.RowCount("student")
	assert.True(ok)
	assert.Equal(2, n)
}

func TestCreateTable(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	{
		assert.Nil(s.Exec("create table course(sid, title)"))
		assert.Contains(buf.String(), "table course created")
		n, ok := s.Meta.RowCount("course")
		assert.True(ok)
		assert.Equal(0, n)
	}
	{
		err := s.Exec("create_table course a,b")
		assert.True(errors.Is(err, table.ErrTableExists))
	}
}

func TestInsert(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	mustExec(t, s, "create_table t a,b,c")
	{
		assert.Nil(s.Exec(`insert into t c="x y",a=1`))
		assert.Equal(
			[][]string{{"a", "b", "c"}, {"1", "x", "y"}},
			query(t, s, buf, "select * from t"),
		)
	}
	{
		err := s.Exec("insert_into t d=1")
		assert.True(errors.Is(err, table.ErrColumn))
	}
	{
		err := s.Exec("insert_into nope a=1")
		assert.True(errors.Is(err, table.ErrNoTable))
	}
	n, _ := s.Meta.RowCount("t")
	assert.Equal(1, n)
}

func TestSelectOrderBy(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	fillStudent(t, s)

	// the sort column is not projected
	assert.Equal(
		[][]string{{"name"}, {"Alice"}, {"Carol"}, {"Bob"}, {"Dave"}},
		query(t, s, buf, "select name from student order_by age desc"),
	)
	assert.Equal(
		[][]string{{"id", "name"}, {"2", "Bob"}, {"3", "Carol"}},
		query(t, s, buf, "select id,name from student where age>19 AND age<30 order_by name"),
	)
	assert.True(s.Store.Exists(exec.DefaultOrderByTable))
}

func TestSelectOrderByConfigured(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	s.Config.Exec.OrderByTable = "sorted"
	fillStudent(t, s)

	assert.Equal(
		[][]string{{"name", "age"}, {"Dave", "19"}, {"Bob", "20"}, {"Carol", "27"}, {"Alice", "30"}},
		query(t, s, buf, "select name,age from student order_by age"),
	)
	assert.True(s.Store.Exists("sorted"))
	assert.False(s.Store.Exists(exec.DefaultOrderByTable))
}

func TestSelectJoin(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	fillStudent(t, s)
	mustExec(t, s,
		"create_table course sid,title,credit",
		"insert_into course sid=1,title=math,credit=4",
		"insert_into course sid=1,title=art,credit=2",
		"insert_into course sid=3,title=math,credit=4",
	)
	{
		assert.Equal(
			[][]string{
				{"student.name", "course.title"},
				{"Alice", "math"},
				{"Alice", "art"},
				{"Carol", "math"},
			},
			query(t, s, buf, "select student.name,course.title from student join course on student.id==course.sid"),
		)
		assert.True(s.Store.Exists("student_join_course"))
		n, ok := s.Meta.RowCount("student_join_course")
		assert.True(ok)
		assert.Equal(3, n)
	}
	{
		assert.Equal(
			[][]string{{"student.name"}, {"Carol"}, {"Alice"}},
			query(t, s, buf, "select student.name from student join course on course.sid==student.id into big where course.credit>3 order_by student.age"),
		)
		assert.True(s.Store.Exists("big"))
	}
	{
		buf.Reset()
		assert.Nil(s.Exec("select * from student join course on student.id==course.sid where course.credit>100"))
		assert.Equal("(0 rows)\n", buf.String())
	}
}

func TestSelectGroupBy(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	mustExec(t, s,
		"create_table employee id,dept,salary",
		"insert_into employee id=1,dept=A,salary=10",
		"insert_into employee id=2,dept=B,salary=5",
		"insert_into employee id=3,dept=A,salary=20",
	)

	assert.Equal(
		[][]string{{"dept", "SUM(salary)"}, {"A", "30"}, {"B", "5"}},
		query(t, s, buf, "select dept, SUM(salary) from employee group_by dept"),
	)
	assert.Equal(
		[][]string{{"dept", "COUNT()"}, {"A", "2"}, {"B", "1"}},
		query(t, s, buf, "select dept, count() from employee group by dept"),
	)
	assert.Equal(
		[][]string{{"dept", "MAX(salary)"}, {"B", "5"}, {"A", "20"}},
		query(t, s, buf, "select dept, max(salary) from employee group_by dept order_by max(salary)"),
	)
	assert.Equal(
		[][]string{{"dept", "SUM(salary)"}, {"A", "20"}, {"B", "5"}},
		query(t, s, buf, "select dept, SUM(salary) from employee where id>1 group_by dept order_by dept"),
	)
}

func TestExplain(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	fillStudent(t, s)

	buf.Reset()
	assert.Nil(s.Exec("explain select name from student where age>25 order_by age"))
	out := buf.String()
	assert.Contains(out, "##> TableScan")
	assert.Contains(out, "##> OrderBy")
	assert.False(s.Store.Exists(exec.DefaultOrderByTable))
}

func TestCommands(t *testing.T) {
	assert := assert.New(t)
	s, buf := newTestShell(t)
	fillStudent(t, s)
	{
		buf.Reset()
		assert.Nil(s.Exec("tables"))
		assert.Equal("student\t4\n", buf.String())
	}
	{
		buf.Reset()
		assert.Nil(s.Exec("help"))
		assert.Contains(buf.String(), "create_table")
	}
	{
		assert.Nil(s.Exec("   "))
		assert.True(errors.Is(s.Exec("exit"), ErrExit))
		assert.True(errors.Is(s.Exec("QUIT;"), ErrExit))
	}
}

func TestErrors(t *testing.T) {
	assert := assert.New(t)
	s, _ := newTestShell(t)
	fillStudent(t, s)

	assert.True(errors.Is(s.Exec("select name from student where (age>1"), sql.ErrParse))
	assert.True(errors.Is(s.Exec("select name, SUM(age) from student"), plan.ErrPlan))
	assert.True(errors.Is(s.Exec("select name from nope"), table.ErrNoTable))
	assert.True(errors.Is(s.Exec("select name from student order_by height"), exec.ErrInvalidSortColumn))

	m := s.Engine.Metrics.Statements
	assert.Equal(float64(1), testutil.ToFloat64(m.WithLabelValues("parse", "error")))
	assert.Equal(float64(3), testutil.ToFloat64(m.WithLabelValues("select", "error")))
	assert.Equal(float64(4), testutil.ToFloat64(m.WithLabelValues("insert", "ok")))
}

func TestScript(t *testing.T) {
	assert := assert.New(t)
	{
		s, buf := newTestShell(t)
		script := strings.Join([]string{
			"# students",
			"create_table student id,name,age",
			"",
			"insert_into student id=1,name=Alice,age=30",
			"select name from student",
			"exit",
			"select nothing from here",
		}, "\n")
		assert.Nil(s.Script(strings.NewReader(script), false))
		assert.Contains(buf.String(), "Alice")
	}
	{
		s, _ := newTestShell(t)
		err := s.Script(strings.NewReader("create_table t a\nselect a from\ninsert_into t a=1"), false)
		assert.NotNil(err)
		assert.True(errors.Is(err, sql.ErrParse))
		assert.Contains(err.Error(), "line 2")
		n, _ := s.Meta.RowCount("t")
		assert.Equal(0, n)
	}
	{
		s, buf := newTestShell(t)
		err := s.Script(strings.NewReader("create_table t a\nselect a from\ninsert_into t a=1"), true)
		assert.NotNil(err)
		assert.Contains(buf.String(), "error(line 2)")
		n, _ := s.Meta.RowCount("t")
		assert.Equal(1, n)
	}
}
