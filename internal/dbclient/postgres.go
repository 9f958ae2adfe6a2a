package dbclient

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
)

// buildPostgresDSN constructs a Postgres connection string from a Connection.
func buildPostgresDSN(conn Connection) string {
	port := conn.Port
	if port == 0 {
		port = 5432
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		conn.Host, port, conn.Username, quoteDSNValue(conn.Password), conn.Database, sslMode,
	)
}

// quoteDSNValue quotes a key/value DSN value when it holds spaces or quotes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

type postgresDialect struct{}

// Postgres upserts with ON CONFLICT (keys) DO UPDATE and $n placeholders.
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string { return string(DriverPostgres) }

func (postgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (d postgresDialect) onConflict(keys, updates []string) string {
	return conflictClause(d, keys, updates, "EXCLUDED")
}
