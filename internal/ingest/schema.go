package ingest

import (
	"fmt"
	"strings"
	"time"
)

// maxIdentLen is the Postgres identifier length limit.
const maxIdentLen = 63

// SanitizeColumnName converts an arbitrary header into a safe, lowercase
// identifier: whitespace and hyphens become underscores, everything outside
// [a-z0-9_] is dropped, runs of underscores collapse. The function is
// idempotent: sanitizing an already-sanitized name yields the same name.
func SanitizeColumnName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '.' || r == '/':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		// Drop everything else.
	}

	out := strings.Trim(b.String(), "_")
	if len(out) > maxIdentLen {
		out = out[:maxIdentLen]
	}
	return out
}

// SanitizeColumnNames sanitizes every header, substituting a positional
// fallback for names that sanitize to nothing and appending a numeric
// disambiguator when two distinct headers collide on the same identifier.
func SanitizeColumnNames(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))

	for i, h := range headers {
		base := SanitizeColumnName(h)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		name := base
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// TableNameFor derives the destination table name for one ingestion. The name
// is deterministic given the same inputs and collision-resistant across
// concurrent ingestions: a normalized slug of the file name combined with the
// ingestion timestamp and a random entropy component.
func TableNameFor(fileName string, now time.Time, entropy string) string {
	slug := SanitizeColumnName(strings.TrimSuffix(fileName, ".csv"))
	if slug == "" {
		slug = "dataset"
	}
	if len(slug) > 32 {
		slug = strings.Trim(slug[:32], "_")
	}

	suffix := strings.ToLower(strings.ReplaceAll(entropy, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}

	name := fmt.Sprintf("ds_%s_%d_%s", slug, now.UTC().Unix(), suffix)
	if len(name) > maxIdentLen {
		name = name[:maxIdentLen]
	}
	return name
}

// ColumnDef pairs a pre-sanitized identifier with its storage type.
type ColumnDef struct {
	Name    string
	Storage string
}

// QuoteIdent double-quotes an identifier for direct use in SQL text.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// BuildCreateTableSQL emits the CREATE TABLE statement for an ingestion
// destination: a surrogate bigserial primary key, one column per inferred
// field and a server-defaulted creation timestamp.
//
// Callers must pass identifiers that already went through sanitization; this
// function never sees caller-controlled strings directly.
func BuildCreateTableSQL(table string, cols []ColumnDef) string {
	defs := make([]string, 0, len(cols)+2)
	defs = append(defs, "id BIGSERIAL PRIMARY KEY")
	for _, c := range cols {
		defs = append(defs, fmt.Sprintf("%s %s", QuoteIdent(c.Name), c.Storage))
	}
	defs = append(defs, "created_at TIMESTAMPTZ NOT NULL DEFAULT now()")

	return fmt.Sprintf("CREATE TABLE %s (%s);", QuoteIdent(table), strings.Join(defs, ", "))
}
