package dbclient

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cvetl/internal/etl"
)

// ── SQL Sink ───────────────────────────────────────────────
// One Upsert call = one connection checkout + one transaction.
// Either every row of the batch is written or none is.

// SQLSink writes row batches into a SQL database.
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
	log     logrus.FieldLogger
}

var _ Sink = (*SQLSink)(nil)

// NewSQLSink wraps an open pool. The sink closes it on Close.
func NewSQLSink(db *sql.DB, dialect Dialect, log logrus.FieldLogger) *SQLSink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SQLSink{db: db, dialect: dialect, log: log}
}

// DB returns the underlying pool.
func (s *SQLSink) DB() *sql.DB { return s.db }

// Dialect returns the sink's SQL dialect.
func (s *SQLSink) Dialect() Dialect { return s.dialect }

// Upsert writes rows atomically and returns len(rows), or 0 when the
// batch was rolled back. Failures are logged, not returned.
func (s *SQLSink) Upsert(ctx context.Context, table etl.Table, rows []any) int {
	if len(rows) == 0 {
		return 0
	}
	if err := s.upsert(ctx, table, rows); err != nil {
		s.log.WithError(err).WithField("table", table.Name).Errorf("upsert of %d row(s) failed, batch rolled back", len(rows))
		return 0
	}
	return len(rows)
}

func (s *SQLSink) upsert(ctx context.Context, table etl.Table, rows []any) error {
	query, err := UpsertQuery(s.dialect, table.Name, etl.Columns(rows[0]), table.Key)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "checkout connection")
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, etl.Values(row)...); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Ping verifies connectivity.
func (s *SQLSink) Ping(ctx context.Context) error {
	ctx, cancel := pingTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
