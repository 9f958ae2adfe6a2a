package dbclient

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cvetl/internal/etl"
)

// Driver names a supported database engine.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMongoDB  Driver = "mongodb"
)

// Connection holds what is needed to reach a target database.
type Connection struct {
	Driver   Driver
	Host     string // hostname, file path (sqlite) or a full mongodb:// URI
	Port     int    // 0 picks the driver default
	Database string
	Username string
	Password string
	SSLMode  string
	DSN      string // used verbatim when set
}

// WithDatabase returns a copy pointed at another database on the same
// server. SQLite has a single database per file, so it is unchanged.
func (c Connection) WithDatabase(name string) Connection {
	if name == "" || c.Driver == DriverSQLite {
		return c
	}
	c.Database = name
	c.DSN = ""
	return c
}

// Sink is an Upserter that owns its connection pool.
type Sink interface {
	etl.Upserter
	Ping(ctx context.Context) error
	Close() error
}

// NewSink opens the target described by conn.
func NewSink(conn Connection, log logrus.FieldLogger) (Sink, error) {
	if conn.Driver == DriverMongoDB {
		return NewMongoSink(conn, log)
	}
	db, dialect, err := OpenSQL(conn)
	if err != nil {
		return nil, err
	}
	return NewSQLSink(db, dialect, log), nil
}

// OpenSQL opens a pooled *sql.DB for a SQL driver and returns the
// dialect that goes with it.
func OpenSQL(conn Connection) (*sql.DB, Dialect, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
	)
	switch conn.Driver {
	case DriverMySQL:
		driverName, dsn, dialect = "mysql", buildMySQLDSN(conn), MySQL
	case DriverPostgres:
		driverName, dsn, dialect = "postgres", buildPostgresDSN(conn), Postgres
	case DriverSQLite:
		driverName, dsn, dialect = "sqlite", buildSQLiteDSN(conn), SQLite
	default:
		return nil, nil, errors.Errorf("unsupported driver: %s", conn.Driver)
	}
	if conn.DSN != "" {
		dsn = conn.DSN
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", driverName)
	}
	if conn.Driver == DriverSQLite {
		// SQLite only supports one writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, dialect, nil
}

func pingTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}
