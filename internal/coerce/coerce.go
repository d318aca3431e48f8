// Package coerce converts loosely typed JSON values into the canonical
// stored representation of a column.
//
// Canonical values are: string for text, boolean-text and date columns,
// int64 for integers, float64 for decimals, time.Time for timestamps and
// nil for NULL.
package coerce

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// DateLayout is the canonical stored form of date columns.
const DateLayout = "2006-01-02"

// Coerce converts raw into the stored value for col. required marks fields
// in the entity's required set; for those an empty or missing value is an
// error instead of NULL.
func Coerce(col schema.ColumnSpec, raw any, required bool) (any, error) {
	switch col.Kind {
	case schema.KindText, schema.KindBoundedText:
		return coerceText(col, raw, required)
	case schema.KindBooleanText:
		return Bool(raw), nil
	case schema.KindInteger:
		return coerceInteger(col, raw, required)
	case schema.KindDecimal:
		return coerceDecimal(col, raw, required)
	case schema.KindDate:
		return coerceDate(col, raw, required)
	case schema.KindTimestamp:
		return coerceTimestamp(col, raw, required)
	default:
		return nil, fail(col, ReasonInvalidType)
	}
}

// Bool maps any JSON scalar onto "TRUE" or "FALSE". It never fails:
// true, 1 and the strings TRUE, 1 and YES (any case) are true, everything
// else is false.
func Bool(raw any) string {
	switch v := raw.(type) {
	case bool:
		if v {
			return schema.BoolTrue
		}
	case string:
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "TRUE", "1", "YES":
			return schema.BoolTrue
		}
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 1 {
			return schema.BoolTrue
		}
	case float64:
		if v == 1 {
			return schema.BoolTrue
		}
	case int:
		if v == 1 {
			return schema.BoolTrue
		}
	case int64:
		if v == 1 {
			return schema.BoolTrue
		}
	}
	return schema.BoolFalse
}

// IsBlank reports whether raw is null or a string of only whitespace.
func IsBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func fail(col schema.ColumnSpec, reason Reason) *FieldError {
	return &FieldError{Field: col.Name, Label: col.DisplayName(), Reason: reason}
}

// scalarString renders a JSON scalar as text. ok is false for objects and arrays.
func scalarString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// nullValue decides what a missing value becomes: NULL, the zero value,
// or an error for required and non-nullable columns.
func nullValue(col schema.ColumnSpec, required bool, zero any) (any, error) {
	if required {
		return nil, fail(col, ReasonRequired)
	}
	if col.Nullable {
		return nil, nil
	}
	if zero != nil {
		return zero, nil
	}
	return nil, fail(col, ReasonNotNullable)
}

func coerceText(col schema.ColumnSpec, raw any, required bool) (any, error) {
	if raw == nil {
		return nullValue(col, required, nil)
	}
	s, ok := scalarString(raw)
	if !ok {
		return nil, fail(col, ReasonInvalidType)
	}

	s = strings.TrimSpace(s)
	if s == "" && required {
		return nil, fail(col, ReasonEmptyNotAllowed)
	}
	if col.Kind == schema.KindBoundedText && utf8.RuneCountInString(s) > col.MaxLen {
		e := fail(col, ReasonTooLong)
		e.Limit = col.MaxLen
		return nil, e
	}
	return s, nil
}

func coerceInteger(col schema.ColumnSpec, raw any, required bool) (any, error) {
	if IsBlank(raw) {
		return nullValue(col, required, int64(0))
	}

	switch v := raw.(type) {
	case bool:
		return nil, fail(col, ReasonNotANumber)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fail(col, ReasonNotANumber)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fail(col, ReasonOutOfRange)
		}
		return int64(v), nil
	}

	s, ok := scalarString(raw)
	if !ok {
		return nil, fail(col, ReasonInvalidType)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, fail(col, ReasonOutOfRange)
		}
		return nil, fail(col, ReasonNotANumber)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, fail(col, ReasonOutOfRange)
	}
	return n, nil
}

// maxDecimalExponent bounds the exponent accepted in decimal input so
// rounding never works on huge powers of ten.
const maxDecimalExponent = 1000

func coerceDecimal(col schema.ColumnSpec, raw any, required bool) (any, error) {
	if IsBlank(raw) {
		return nullValue(col, required, float64(0))
	}
	if _, isBool := raw.(bool); isBool {
		return nil, fail(col, ReasonNotANumber)
	}

	s, ok := scalarString(raw)
	if !ok {
		return nil, fail(col, ReasonInvalidType)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.Exponent() < -maxDecimalExponent {
		return nil, fail(col, ReasonNotANumber)
	}
	if d.Exponent() > maxDecimalExponent {
		return nil, fail(col, ReasonOutOfRange)
	}

	// Rounding works on the decimal text, half away from zero, the same way
	// SQL Server stores an over-precise decimal literal.
	d = d.Round(int32(col.Scale))

	intDigits := col.Precision - col.Scale
	if d.Abs().GreaterThanOrEqual(decimal.New(1, int32(intDigits))) {
		e := fail(col, ReasonOutOfRange)
		e.Limit = intDigits
		return nil, e
	}
	f, _ := d.Float64()
	return f, nil
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func coerceDate(col schema.ColumnSpec, raw any, required bool) (any, error) {
	if IsBlank(raw) {
		return nullValue(col, required, nil)
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fail(col, ReasonInvalidDate)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return nil, fail(col, ReasonInvalidDate)
}

func coerceTimestamp(col schema.ColumnSpec, raw any, required bool) (any, error) {
	if IsBlank(raw) {
		return nullValue(col, required, nil)
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fail(col, ReasonInvalidDate)
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return nil, fail(col, ReasonInvalidDate)
	}
	return t.UTC(), nil
}
