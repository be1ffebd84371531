package query

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultLimit is the row cap applied when the caller does not request one.
const DefaultLimit = 1000

// deniedKeywords are rejected anywhere in the statement as whole words. This
// is a textual guard, not a parser: it is known to be bypassable by
// obfuscation and is a safety net on top of read-only execution, not a
// guarantee. See DESIGN.md for the AST allow-list open question.
var deniedKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke)\b`)

var limitClause = regexp.MustCompile(`(?i)\blimit\b`)

// ValidateReadOnly checks that caller SQL is a plain SELECT and contains no
// denied keyword. Returns a forbidden error otherwise.
func ValidateReadOnly(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return newError(KindForbidden, "query is empty", nil)
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return newError(KindForbidden, "only SELECT statements are allowed", nil)
	}
	if m := deniedKeywords.FindString(trimmed); m != "" {
		return newError(KindForbidden, fmt.Sprintf("statement contains denied keyword %q", strings.ToLower(m)), nil)
	}
	return nil
}

// EnsureLimit appends a LIMIT clause when the statement has none.
func EnsureLimit(sql string, limit int) string {
	trimmed := strings.TrimSpace(sql)
	trimmed = strings.TrimSuffix(trimmed, ";")
	if limitClause.MatchString(trimmed) {
		return trimmed
	}
	return fmt.Sprintf("%s LIMIT %d", trimmed, limit)
}
