package etl

import (
	"fmt"
	"reflect"
	"sync"
)

// ── Record ─────────────────────────────────────────────────
// RawRecord is what the API sends for one entity. Rows are what we
// write: one Go struct per target table, one `db` tag per column.

// RawRecord is one untyped API object. Numbers are kept as json.Number.
type RawRecord map[string]any

// Items returns the nested list stored under field. A missing or
// non-list field is an empty list; non-object items are skipped.
func (r RawRecord) Items(field string) []RawRecord {
	list, _ := r[field].([]any)
	items := make([]RawRecord, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			items = append(items, RawRecord(m))
		}
	}
	return items
}

// Page is one decoded API page.
type Page struct {
	Records     []RawRecord
	TotalPages  int // 0 when the response did not report it
	CurrentPage int
}

// Table names a target table and its natural key columns.
type Table struct {
	Name string
	Key  []string
}

// ── Row reflection ─────────────────────────────────────────

type rowField struct {
	column string
	index  []int
}

var rowFields sync.Map // reflect.Type → []rowField

func fieldsOf(row any) []rowField {
	t := reflect.TypeOf(row)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := rowFields.Load(t); ok {
		return cached.([]rowField)
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("etl: row type %s is not a struct", t))
	}
	fields := collectFields(t, nil)
	rowFields.Store(t, fields)
	return fields
}

// collectFields walks tagged fields, flattening untagged embedded structs.
func collectFields(t reflect.Type, parent []int) []rowField {
	var fields []rowField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int{}, parent...), i)
		col := f.Tag.Get("db")
		if col == "" && f.Anonymous && f.Type.Kind() == reflect.Struct {
			fields = append(fields, collectFields(f.Type, index)...)
			continue
		}
		if col == "" || col == "-" || !f.IsExported() {
			continue
		}
		fields = append(fields, rowField{column: col, index: index})
	}
	return fields
}

// Columns returns the tagged column names of a row struct in field order.
func Columns(row any) []string {
	fields := fieldsOf(row)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// Values returns the row's column values in the same order as Columns.
func Values(row any) []any {
	fields := fieldsOf(row)
	v := reflect.Indirect(reflect.ValueOf(row))
	vals := make([]any, len(fields))
	for i, f := range fields {
		vals[i] = v.FieldByIndex(f.index).Interface()
	}
	return vals
}
