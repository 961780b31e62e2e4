package sql

import (
	"strings"
)

const (
	AggCount = "COUNT"
	AggSum   = "SUM"
	AggMin   = "MIN"
	AggMax   = "MAX"
)

func IsAggFunc(n string) bool {
	switch strings.ToUpper(n) {
	case AggCount, AggSum, AggMin, AggMax:
		return true
	default:
		return false
	}
}
