package etl

import "context"

// ── Destination ────────────────────────────────────────────
// An Upserter persists typed rows keyed by a table's natural key.
// Implementations live in dbclient/.
//
// Pattern: Singer target protocol.

// Upserter writes a batch of rows into a table.
type Upserter interface {
	// Upsert inserts every row, overwriting the non-key columns of rows
	// whose key already exists. The batch is atomic: on any failure
	// nothing is kept and 0 is returned. Failures are logged by the
	// implementation, not returned.
	Upsert(ctx context.Context, table Table, rows []any) int
}

// UpserterFunc adapts a plain function to the Upserter interface.
type UpserterFunc func(ctx context.Context, table Table, rows []any) int

func (f UpserterFunc) Upsert(ctx context.Context, table Table, rows []any) int {
	return f(ctx, table, rows)
}
