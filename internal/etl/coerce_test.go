package etl_test

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cvetl/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Timestamps and dates
// ─────────────────────────────────────────────────────────────

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want sql.Null[time.Time]
	}{
		{"datetime", "2024-03-05 10:20:30", sql.Null[time.Time]{V: time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), Valid: true}},
		{"date only", "2024-03-05", sql.Null[time.Time]{V: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Valid: true}},
		{"other layout", "05/03/2024", sql.Null[time.Time]{}},
		{"iso with T", "2024-03-05T10:20:30", sql.Null[time.Time]{}},
		{"empty", "", sql.Null[time.Time]{}},
		{"nil", nil, sql.Null[time.Time]{}},
		{"number", json.Number("20240305"), sql.Null[time.Time]{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := etl.ParseTimestamp(tc.in)
			assert.Equal(t, tc.want.Valid, got.Valid)
			assert.True(t, tc.want.V.Equal(got.V), "got %v", got.V)
		})
	}
}

func TestParseDate_DropsTimeOfDay(t *testing.T) {
	got := etl.ParseDate("2024-03-05 23:59:59")
	assert.True(t, got.Valid)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), got.V)

	assert.False(t, etl.ParseDate("not a date").Valid)
}

// ─────────────────────────────────────────────────────────────
// Numbers
// ─────────────────────────────────────────────────────────────

func TestParseInt(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		want  int64
		valid bool
	}{
		{"string", "42", 42, true},
		{"padded string", " 42 ", 42, true},
		{"negative string", "-7", -7, true},
		{"json integer", json.Number("42"), 42, true},
		{"json fraction truncates", json.Number("42.9"), 42, true},
		{"json negative fraction truncates toward zero", json.Number("-42.9"), -42, true},
		{"float", 3.7, 3, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"fractional string", "4.5", 0, false},
		{"text", "abc", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"list", []any{json.Number("1")}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := etl.ParseInt(tc.in)
			assert.Equal(t, tc.valid, got.Valid)
			if tc.valid {
				assert.Equal(t, tc.want, got.V)
			}
		})
	}
}

func TestParseDecimal_IsExact(t *testing.T) {
	got := etl.ParseDecimal("1234.50")
	assert.True(t, got.Valid)
	assert.True(t, got.Decimal.Equal(decimal.RequireFromString("1234.5")), "got %s", got.Decimal)

	got = etl.ParseDecimal(json.Number("0.1"))
	assert.True(t, got.Valid)
	assert.Equal(t, "0.1", got.Decimal.String())

	got = etl.ParseDecimal(json.Number("150000"))
	assert.True(t, got.Decimal.Equal(decimal.NewFromInt(150000)))
}

func TestParseDecimal_Invalid(t *testing.T) {
	for _, in := range []any{nil, "", "  ", "abc", "1,5", true, map[string]any{}} {
		assert.False(t, etl.ParseDecimal(in).Valid, "input %#v", in)
	}
}

// ─────────────────────────────────────────────────────────────
// Flags and text
// ─────────────────────────────────────────────────────────────

func TestParseFlag(t *testing.T) {
	cases := []struct {
		in    any
		want  string
		valid bool
	}{
		{"S", "S", true},
		{"s", "S", true},
		{" n ", "N", true},
		{"x", "X", true},
		{"yes", "Y", true},
		{"não", "N", true},
		{json.Number("1"), "1", true},
		{"", "", false},
		{nil, "", false},
	}
	for _, tc := range cases {
		got := etl.ParseFlag(tc.in)
		assert.Equal(t, tc.valid, got.Valid, "input %#v", tc.in)
		assert.Equal(t, tc.want, got.V, "input %#v", tc.in)
	}
}

func TestText(t *testing.T) {
	assert.False(t, etl.Text(nil).Valid)
	assert.Equal(t, sql.Null[string]{V: "", Valid: true}, etl.Text(""))
	assert.Equal(t, "abc", etl.Text("abc").V)
	assert.Equal(t, "10", etl.Text(json.Number("10")).V)
	assert.Equal(t, "1", etl.Text(true).V)
	assert.Equal(t, `{"a":1}`, etl.Text(map[string]any{"a": json.Number("1")}).V)
	assert.Equal(t, `["62682","65286"]`, etl.Text([]any{"62682", "65286"}).V)
}

func TestNonEmptyText_FalsyIsNull(t *testing.T) {
	for _, in := range []any{nil, "", false, json.Number("0"), []any{}, map[string]any{}} {
		assert.False(t, etl.NonEmptyText(in).Valid, "input %#v", in)
	}
	assert.Equal(t, sql.Null[string]{V: "S", Valid: true}, etl.NonEmptyText("S"))
	assert.Equal(t, sql.Null[string]{V: "1", Valid: true}, etl.NonEmptyText(json.Number("1")))
}

func TestUpperText(t *testing.T) {
	assert.Equal(t, sql.Null[string]{V: "CORRETOR", Valid: true}, etl.UpperText(" corretor "))
	assert.False(t, etl.UpperText("").Valid)
	assert.False(t, etl.UpperText(nil).Valid)
}
