package repository

import (
	"fmt"
	"strings"
)

// condBuilder accumulates WHERE conditions and their arguments together so
// queries never hand-count positional placeholders.
type condBuilder struct {
	conds []string
	args  []interface{}
}

// where appends a condition. The number of '?' placeholders in expr must
// match len(args); a mismatch is reported when the clause is built.
func (b *condBuilder) where(expr string, args ...interface{}) *condBuilder {
	b.conds = append(b.conds, expr)
	b.args = append(b.args, args...)
	return b
}

// clause renders the accumulated conditions as a WHERE clause (or an empty
// string when no conditions were added) plus the matching argument slice.
func (b *condBuilder) clause() (string, []interface{}, error) {
	if len(b.conds) == 0 {
		return "", nil, nil
	}
	joined := strings.Join(b.conds, " AND ")
	if n := strings.Count(joined, "?"); n != len(b.args) {
		return "", nil, fmt.Errorf("placeholder count mismatch: %d placeholders, %d args", n, len(b.args))
	}
	return " WHERE " + joined, b.args, nil
}
