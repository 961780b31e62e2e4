package plan

import (
	"fmt"
	"strings"

	"github.com/dianpeng/chunkdb/sql"
)

// Printing the plan out, for explain, testing and debugging purpose

func (self *Plan) Print() string {
	buf := &strings.Builder{}
	self.printTableScan(buf)
	self.printJoin(buf)
	self.printGroupBy(buf)
	self.printSort(buf)
	self.printOutput(buf)
	return buf.String()
}

func orNone(x string) string {
	if x == "" {
		return "--"
	}
	return x
}

func (self *Plan) printTableScan(
	buf *strings.Builder,
) {
	ts := self.TableScan
	buf.WriteString("##> TableScan\n")
	buf.WriteString(fmt.Sprintf("Table: %s\n", ts.Table))
	buf.WriteString(fmt.Sprintf("Projection: %s\n", orNone(strings.Join(ts.Projection, ","))))
	buf.WriteString(fmt.Sprintf("Filter: %s\n", orNone(sql.PrintExpr(ts.Filter))))
}

func (self *Plan) printJoin(
	buf *strings.Builder,
) {
	if self.Join == nil {
		buf.WriteString("##> Join\n")
		buf.WriteString("--\n")
	} else {
		buf.WriteString(self.Join.Dump())
	}
}

func (self *Plan) printGroupBy(
	buf *strings.Builder,
) {
	groupBy := self.GroupBy
	buf.WriteString("##> GroupBy\n")
	if groupBy == nil {
		buf.WriteString("--\n")
	} else {
		buf.WriteString(fmt.Sprintf("Column: %s\n", groupBy.Column))
		buf.WriteString(fmt.Sprintf("Agg: %s\n", groupBy.AggName()))
	}
}

func (self *Plan) printSort(
	buf *strings.Builder,
) {
	sort := self.Sort
	buf.WriteString("##> OrderBy\n")
	if sort == nil {
		buf.WriteString("--\n")
	} else {
		if sort.Desc {
			buf.WriteString("Order: desc\n")
		} else {
			buf.WriteString("Order: asc\n")
		}
		buf.WriteString(fmt.Sprintf("Column: %s\n", sort.Column))
		buf.WriteString(fmt.Sprintf("Out: %s\n", sort.Out))
	}
}

func (self *Plan) printOutput(
	buf *strings.Builder,
) {
	output := self.Output
	buf.WriteString("##> Output\n")
	buf.WriteString(fmt.Sprintf("Table: %s\n", orNone(output.Table)))
	for idx, c := range output.Columns {
		buf.WriteString(fmt.Sprintf("Var[%d]: %s\n", idx, c))
	}
}
