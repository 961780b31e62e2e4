package exec

import (
	"errors"
)

var (
	ErrInvalidSortColumn  = errors.New("invalid sort column")
	ErrSchemaMismatch     = errors.New("schema mismatch")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnsupported        = errors.New("unsupported operation")
)
