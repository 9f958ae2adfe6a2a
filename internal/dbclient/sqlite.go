package dbclient

import (
	"strings"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN opens the file at Host in WAL mode with a busy timeout
// for concurrent access.
func buildSQLiteDSN(conn Connection) string {
	return conn.Host + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

type sqliteDialect struct{}

// SQLite upserts with ON CONFLICT (keys) DO UPDATE. The key columns
// must carry a unique index.
var SQLite Dialect = sqliteDialect{}

func (sqliteDialect) Name() string { return string(DriverSQLite) }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (d sqliteDialect) onConflict(keys, updates []string) string {
	return conflictClause(d, keys, updates, "excluded")
}
