package etl

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

// ── Entity ─────────────────────────────────────────────────
// An Entity describes one API resource: its base table, the field
// holding the natural key, and the child tables built from nested lists.

// RowFunc maps a record with a valid natural key to a base row.
type RowFunc func(key int64, rec RawRecord) any

// ChildRowFunc maps one nested item to a child row. parent is the
// owning record's natural key, which may be null.
type ChildRowFunc func(parent sql.Null[int64], item RawRecord) any

// Child describes a table fed from a nested list in each record.
type Child struct {
	Table   Table
	Field   string // nested list field in the parent record
	Enabled bool
	Row     ChildRowFunc
}

// Entity is a complete pipeline definition for one API resource.
type Entity struct {
	Name     string // also the log prefix, e.g. "cv_reservas"
	KeyField string
	Base     Table
	Row      RowFunc
	Children []Child
}

// EnableChild toggles a child table by name. Unknown names are ignored.
func (e *Entity) EnableChild(table string, enabled bool) {
	for i := range e.Children {
		if e.Children[i].Table.Name == table {
			e.Children[i].Enabled = enabled
		}
	}
}

// ── Normalization ──────────────────────────────────────────

// naturalKey coerces the record's key field. Zero counts as missing.
func naturalKey(rec RawRecord, field string) sql.Null[int64] {
	k := ParseInt(rec[field])
	if k.Valid && k.V == 0 {
		return sql.Null[int64]{}
	}
	return k
}

// NormalizeBase builds one base row per record. Records without a
// usable natural key are logged and dropped, never partially kept.
func NormalizeBase(log logrus.FieldLogger, e *Entity, records []RawRecord) []any {
	rows := make([]any, 0, len(records))
	for _, rec := range records {
		key := naturalKey(rec, e.KeyField)
		if !key.Valid {
			log.WithField("record", rec).Errorf("record without %s", e.KeyField)
			continue
		}
		rows = append(rows, e.Row(key.V, rec))
	}
	return rows
}

// NormalizeChildren builds one row per nested item for a child table.
// It runs independently of NormalizeBase, so items of a record whose
// base row was dropped are still emitted with a null parent key.
func NormalizeChildren(log logrus.FieldLogger, e *Entity, c Child, records []RawRecord) []any {
	var rows []any
	for _, rec := range records {
		items := rec.Items(c.Field)
		if len(items) == 0 {
			continue
		}
		parent := naturalKey(rec, e.KeyField)
		if !parent.Valid {
			log.WithField("table", c.Table.Name).Warnf("%d child item(s) without %s", len(items), e.KeyField)
		}
		for _, it := range items {
			rows = append(rows, c.Row(parent, it))
		}
	}
	return rows
}
