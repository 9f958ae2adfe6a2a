package etl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ── Sync ───────────────────────────────────────────────────
// Orchestrates: fetch page → normalize base → normalize children →
// upsert each row set → next page, until the reported page count is
// exhausted or a page cannot be fetched.
//
// Pattern: Airbyte sync / Singer tap→target pipeline.

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// ErrAborted is returned when a run stops before the last page.
var ErrAborted = errors.New("sync aborted")

// SyncResult is the outcome of running one entity pipeline.
type SyncResult struct {
	RunID           string         `json:"runId"`
	Entity          string         `json:"entity"`
	Status          string         `json:"status"`
	Pages           int            `json:"pages"`
	RecordsReceived int            `json:"recordsReceived"`
	RowsUpserted    int            `json:"rowsUpserted"`
	Tables          map[string]int `json:"tables"`
	StartedAt       time.Time      `json:"startedAt"`
	Duration        time.Duration  `json:"duration"`
	Error           string         `json:"error,omitempty"`
}

// SyncRunLog is a historical record of a sync run.
type SyncRunLog struct {
	ID              string    `json:"id"`
	Pipeline        string    `json:"pipeline"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	Status          string    `json:"status"`
	Pages           int       `json:"pages"`
	RecordsReceived int       `json:"recordsReceived"`
	RowsUpserted    int       `json:"rowsUpserted"`
	Error           string    `json:"error,omitempty"`
}

// RunLog converts a result into its persisted form.
func (r *SyncResult) RunLog() *SyncRunLog {
	return &SyncRunLog{
		ID:              r.RunID,
		Pipeline:        r.Entity,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.StartedAt.Add(r.Duration),
		Status:          r.Status,
		Pages:           r.Pages,
		RecordsReceived: r.RecordsReceived,
		RowsUpserted:    r.RowsUpserted,
		Error:           r.Error,
	}
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs entity pipelines against a source and a destination.
// Pages are processed strictly one after another.
type Engine struct {
	Source Fetcher
	Dest   Upserter
	Log    logrus.FieldLogger
}

// RunSync executes an entity pipeline end-to-end. The summary line is
// logged on every exit path; an aborted run returns ErrAborted.
func (e *Engine) RunSync(ctx context.Context, entity *Entity, since string) (*SyncResult, error) {
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("pipeline", entity.Name)

	start := time.Now()
	result := &SyncResult{
		RunID:     uuid.New().String(),
		Entity:    entity.Name,
		Status:    StatusCompleted,
		Tables:    make(map[string]int),
		StartedAt: start,
	}

	defer func() {
		result.Duration = time.Since(start)
		log.WithFields(logrus.Fields{
			"status":   result.Status,
			"pages":    result.Pages,
			"duration": result.Duration.Round(time.Millisecond),
		}).Infof("finished. records received from API: %d | total upserts: %d",
			result.RecordsReceived, result.RowsUpserted)
	}()

	page, totalPages := 1, 1
	for page <= totalPages {
		if err := ctx.Err(); err != nil {
			return e.abort(log, result, errors.Wrapf(err, "page %d", page))
		}
		log.Infof("processing page %d/%d ...", page, totalPages)

		p, err := e.Source.FetchPage(ctx, PageRequest{Page: page, Since: since})
		if err != nil || p == nil {
			if err == nil {
				err = ErrPageUnavailable
			}
			return e.abort(log, result, errors.Wrapf(err, "page %d", page))
		}

		if p.TotalPages > 0 {
			totalPages = p.TotalPages
		}
		result.Pages++
		result.RecordsReceived += len(p.Records)

		if rows := NormalizeBase(log, entity, p.Records); len(rows) > 0 {
			e.upsert(ctx, result, entity.Base, rows)
		}
		for _, c := range entity.Children {
			if !c.Enabled {
				continue
			}
			if rows := NormalizeChildren(log, entity, c, p.Records); len(rows) > 0 {
				e.upsert(ctx, result, c.Table, rows)
			}
		}

		log.Infof("page %d done. API records: %d | cumulative upserts: %d",
			page, len(p.Records), result.RowsUpserted)
		page++
	}

	return result, nil
}

func (e *Engine) upsert(ctx context.Context, result *SyncResult, table Table, rows []any) {
	n := e.Dest.Upsert(ctx, table, rows)
	result.RowsUpserted += n
	result.Tables[table.Name] += n
}

func (e *Engine) abort(log logrus.FieldLogger, result *SyncResult, err error) (*SyncResult, error) {
	log.WithError(err).Error("empty response or error, stopping")
	result.Status = StatusAborted
	result.Error = err.Error()
	return result, errors.Wrap(ErrAborted, err.Error())
}
