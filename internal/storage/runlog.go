package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"cvetl/internal/dbclient"
	"cvetl/internal/etl"
)

// ── Run Logs ───────────────────────────────────────────────

// CreateRunLog inserts l, assigning an ID when it has none.
func (db *DB) CreateRunLog(ctx context.Context, l *etl.SyncRunLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := db.conn.ExecContext(ctx, dbclient.Rebind(db.dialect,
		`INSERT INTO etl_run_logs (id, pipeline, started_at, finished_at, status, pages, records_received, rows_upserted, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.Pipeline, l.StartedAt, l.FinishedAt, l.Status, l.Pages, l.RecordsReceived, l.RowsUpserted, l.Error,
	)
	return err
}

func (db *DB) ListRunLogs(ctx context.Context, pipeline string, limit int) ([]etl.SyncRunLog, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, pipeline, started_at, finished_at, status, pages, records_received, rows_upserted, error
		 FROM etl_run_logs`
	args := []any{}
	if pipeline != "" {
		query += ` WHERE pipeline = ?`
		args = append(args, pipeline)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, dbclient.Rebind(db.dialect, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []etl.SyncRunLog
	for rows.Next() {
		var l etl.SyncRunLog
		var errMsg sql.NullString
		if err := rows.Scan(&l.ID, &l.Pipeline, &l.StartedAt, &l.FinishedAt, &l.Status,
			&l.Pages, &l.RecordsReceived, &l.RowsUpserted, &errMsg); err != nil {
			return nil, err
		}
		l.Error = errMsg.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
