package dbclient

import (
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// buildMySQLDSN constructs a MySQL DSN from a Connection.
func buildMySQLDSN(conn Connection) string {
	port := conn.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = conn.Username
	cfg.Passwd = conn.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, port)
	cfg.DBName = conn.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if conn.SSLMode == "require" {
		cfg.TLSConfig = "true"
	}
	return cfg.FormatDSN()
}

type mysqlDialect struct{}

// MySQL upserts with ON DUPLICATE KEY UPDATE. The conflict target is
// whatever unique key the table defines, so keys only decide which
// columns are left alone.
var MySQL Dialect = mysqlDialect{}

func (mysqlDialect) Name() string { return string(DriverMySQL) }

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (d mysqlDialect) onConflict(keys, updates []string) string {
	if len(updates) == 0 {
		k := d.Quote(keys[0])
		return "ON DUPLICATE KEY UPDATE " + k + " = " + k
	}
	sets := make([]string, len(updates))
	for i, c := range updates {
		q := d.Quote(c)
		sets[i] = q + " = VALUES(" + q + ")"
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}
