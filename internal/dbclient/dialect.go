package dbclient

import (
	"strings"

	"github.com/pkg/errors"
)

// ── Dialects ───────────────────────────────────────────────
// A Dialect renders the SQL that differs between engines: identifier
// quoting, placeholders and the upsert conflict clause.

// Dialect is implemented by MySQL, Postgres and SQLite.
type Dialect interface {
	Name() string
	Quote(ident string) string
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	onConflict(keys, updates []string) string
}

// UpsertQuery builds an INSERT that overwrites every non-key column of
// an existing row with the incoming values, nulls included.
func UpsertQuery(d Dialect, table string, cols, keys []string) (string, error) {
	if len(cols) == 0 {
		return "", errors.Errorf("upsert %s: no columns", table)
	}
	if len(keys) == 0 {
		return "", errors.Errorf("upsert %s: no key columns", table)
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	seen := 0
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	var updates []string
	for i, c := range cols {
		quoted[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
		if isKey[c] {
			seen++
		} else {
			updates = append(updates, c)
		}
	}
	if seen != len(keys) {
		return "", errors.Errorf("upsert %s: key %v not among columns", table, keys)
	}

	return "INSERT INTO " + d.Quote(table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ") " +
		d.onConflict(keys, updates), nil
}

// conflictClause renders ON CONFLICT for engines that name the
// conflict target and expose the incoming row under alias.
func conflictClause(d Dialect, keys, updates []string, alias string) string {
	target := make([]string, len(keys))
	for i, k := range keys {
		target[i] = d.Quote(k)
	}
	clause := "ON CONFLICT (" + strings.Join(target, ", ") + ") "
	if len(updates) == 0 {
		return clause + "DO NOTHING"
	}
	sets := make([]string, len(updates))
	for i, c := range updates {
		q := d.Quote(c)
		sets[i] = q + " = " + alias + "." + q
	}
	return clause + "DO UPDATE SET " + strings.Join(sets, ", ")
}

// Rebind rewrites ? markers into the dialect's placeholders.
func Rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
