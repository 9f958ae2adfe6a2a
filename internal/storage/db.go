package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cvetl/internal/dbclient"
	"cvetl/internal/etl"
)

// RunLogStore persists one SyncRunLog per pipeline execution.
type RunLogStore interface {
	CreateRunLog(ctx context.Context, l *etl.SyncRunLog) error
	// ListRunLogs returns the newest logs first. An empty pipeline
	// lists every pipeline.
	ListRunLogs(ctx context.Context, pipeline string, limit int) ([]etl.SyncRunLog, error)
	Close() error
}

// Open connects to the log database and prepares its schema.
func Open(ctx context.Context, conn dbclient.Connection, log logrus.FieldLogger) (RunLogStore, error) {
	if conn.Driver == dbclient.DriverMongoDB {
		return NewMongoStore(ctx, conn, log)
	}
	db, dialect, err := dbclient.OpenSQL(conn)
	if err != nil {
		return nil, err
	}
	store, err := New(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// DB wraps a SQL log database.
type DB struct {
	conn    *sql.DB
	dialect dbclient.Dialect
}

var _ RunLogStore = (*DB)(nil)

// New wraps an open pool and runs the migrations.
func New(ctx context.Context, conn *sql.DB, dialect dbclient.Dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate(ctx context.Context) error {
	ts := "DATETIME"
	switch db.dialect.Name() {
	case string(dbclient.DriverMySQL):
		ts = "DATETIME(3)"
	case string(dbclient.DriverPostgres):
		ts = "TIMESTAMP"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS etl_run_logs (
			id VARCHAR(36) PRIMARY KEY,
			pipeline VARCHAR(64) NOT NULL,
			started_at ` + ts + ` NOT NULL,
			finished_at ` + ts + ` NOT NULL,
			status VARCHAR(16) NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			records_received INTEGER NOT NULL DEFAULT 0,
			rows_upserted INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE INDEX idx_etl_run_logs_pipeline ON etl_run_logs(pipeline, started_at)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return errors.Wrapf(err, "migration failed: %s", firstLine(m))
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i != -1 {
		return s[:i]
	}
	return s
}
