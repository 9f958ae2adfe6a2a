package etl

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ── Coercion ───────────────────────────────────────────────
// Converts loosely-typed JSON scalars into typed column values.
// Every function returns a tagged optional: Valid=false means "null",
// whether the input was null, empty or simply unparseable.
// None of these functions panic or report an error.

// Accepted timestamp layouts, tried in order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses "YYYY-MM-DD HH:MM:SS" or "YYYY-MM-DD".
// Non-string input is never a timestamp.
func ParseTimestamp(v any) sql.Null[time.Time] {
	s, ok := v.(string)
	if !ok || s == "" {
		return sql.Null[time.Time]{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.Null[time.Time]{V: t, Valid: true}
		}
	}
	return sql.Null[time.Time]{}
}

// ParseDate is ParseTimestamp with the time of day dropped.
func ParseDate(v any) sql.Null[time.Time] {
	ts := ParseTimestamp(v)
	if !ts.Valid {
		return ts
	}
	y, m, d := ts.V.Date()
	return sql.Null[time.Time]{V: time.Date(y, m, d, 0, 0, 0, 0, ts.V.Location()), Valid: true}
}

// ParseInt converts to a base-10 integer. Fractional JSON numbers are
// truncated toward zero; strings must hold an integer literal.
func ParseInt(v any) sql.Null[int64] {
	switch n := v.(type) {
	case nil:
		return sql.Null[int64]{}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return sql.Null[int64]{V: i, Valid: true}
		}
		if f, err := n.Float64(); err == nil {
			return truncFloat(f)
		}
		return sql.Null[int64]{}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return sql.Null[int64]{}
		}
		return sql.Null[int64]{V: i, Valid: true}
	case float64:
		return truncFloat(n)
	case int:
		return sql.Null[int64]{V: int64(n), Valid: true}
	case int64:
		return sql.Null[int64]{V: n, Valid: true}
	case bool:
		if n {
			return sql.Null[int64]{V: 1, Valid: true}
		}
		return sql.Null[int64]{V: 0, Valid: true}
	default:
		return sql.Null[int64]{}
	}
}

func truncFloat(f float64) sql.Null[int64] {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return sql.Null[int64]{}
	}
	return sql.Null[int64]{V: int64(f), Valid: true}
}

// ParseDecimal converts the value's string form to an exact decimal,
// so "1234.50" never goes through a binary float.
func ParseDecimal(v any) decimal.NullDecimal {
	var s string
	switch n := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NullDecimal{Decimal: decimal.NewFromFloat(n), Valid: true}
	case int:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(n)), Valid: true}
	case int64:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(n), Valid: true}
	default:
		return decimal.NullDecimal{}
	}
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseFlag normalizes an S/N flag. Anything other than S or N is
// truncated to its first uppercased character rather than rejected:
// upstream sends free text here and we keep whatever it says.
func ParseFlag(v any) sql.Null[string] {
	if isBlank(v) {
		return sql.Null[string]{}
	}
	s := strings.ToUpper(strings.TrimSpace(textOf(v)))
	if s == "S" || s == "N" {
		return sql.Null[string]{V: s, Valid: true}
	}
	if s == "" {
		return sql.Null[string]{V: "", Valid: true}
	}
	_, size := utf8.DecodeRuneInString(s)
	return sql.Null[string]{V: s[:size], Valid: true}
}

// Text passes the raw value through as text. Nested objects and
// arrays are kept as their JSON encoding.
func Text(v any) sql.Null[string] {
	if v == nil {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: textOf(v), Valid: true}
}

// NonEmptyText is Text with every falsy value ("", 0, false, empty
// list or object) collapsed to null.
func NonEmptyText(v any) sql.Null[string] {
	if isFalsy(v) {
		return sql.Null[string]{}
	}
	return Text(v)
}

// UpperText is NonEmptyText trimmed and uppercased.
func UpperText(v any) sql.Null[string] {
	if isFalsy(v) {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: strings.ToUpper(strings.TrimSpace(textOf(v))), Valid: true}
}

// ── Helpers ────────────────────────────────────────────────

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isFalsy(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case string:
		return n == ""
	case bool:
		return !n
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == 0
	case float64:
		return n == 0
	case int:
		return n == 0
	case int64:
		return n == 0
	case []any:
		return len(n) == 0
	case map[string]any:
		return len(n) == 0
	default:
		return false
	}
}

func textOf(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case json.Number:
		return n.String()
	case bool:
		if n {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	default:
		b, err := json.Marshal(n)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
