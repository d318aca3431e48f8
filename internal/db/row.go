package db

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Row is one table row with its columns in select order.
type Row struct {
	cols []string
	vals map[string]any
}

// NewRow builds a row from parallel column and value slices.
func NewRow(cols []string, vals []any) Row {
	r := Row{cols: make([]string, len(cols)), vals: make(map[string]any, len(cols))}
	copy(r.cols, cols)
	for i, c := range cols {
		r.vals[c] = vals[i]
	}
	return r
}

// Columns returns the column names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Get returns the value of column.
func (r Row) Get(column string) (any, bool) {
	v, ok := r.vals[column]
	return v, ok
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.cols)
}

// Without returns a copy of the row minus the named columns.
func (r Row) Without(columns ...string) Row {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		drop[c] = true
	}
	out := Row{vals: make(map[string]any, len(r.cols))}
	for _, c := range r.cols {
		if drop[c] {
			continue
		}
		out.cols = append(out.cols, c)
		out.vals[c] = r.vals[c]
	}
	return out
}

// Select returns a copy of the row holding only the named columns, in the
// order given. Columns the row lacks are skipped.
func (r Row) Select(columns ...string) Row {
	out := Row{vals: make(map[string]any, len(columns))}
	for _, c := range columns {
		v, ok := r.vals[c]
		if !ok {
			continue
		}
		out.cols = append(out.cols, c)
		out.vals[c] = v
	}
	return out
}

// MarshalJSON renders the row as an object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.vals[c])
		if err != nil {
			return nil, fmt.Errorf("db: column %s: %w", c, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ScanRows reads all rows, normalizing registered columns to the
// canonical values the coercion engine produces: strings for text and
// dates, int64 for integers, float64 for decimals and UTC time.Time for
// timestamps. Columns unknown to table are passed through with byte
// slices converted to strings.
func ScanRows(rows *sql.Rows, table *schema.TableSpec) ([]Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("db: failed to read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("db: failed to scan row: %w", err)
		}

		for i, name := range cols {
			c, ok := table.Column(name)
			if !ok {
				if b, isBytes := vals[i].([]byte); isBytes {
					vals[i] = string(b)
				}
				continue
			}
			v, err := normalize(c, vals[i])
			if err != nil {
				return nil, fmt.Errorf("db: %s.%s: %w", table.Name, name, err)
			}
			vals[i] = v
		}
		out = append(out, NewRow(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: row iteration failed: %w", err)
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func normalize(c schema.ColumnSpec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch c.Kind {
	case schema.KindInteger:
		switch n := v.(type) {
		case int64:
			return n, nil
		case float64:
			return int64(n), nil
		case string:
			return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		}

	case schema.KindDecimal:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case string:
			return strconv.ParseFloat(strings.TrimSpace(n), 64)
		}

	case schema.KindDate:
		switch t := v.(type) {
		case time.Time:
			return t.Format(coerce.DateLayout), nil
		case string:
			if len(t) >= len(coerce.DateLayout) {
				if _, err := time.Parse(coerce.DateLayout, t[:len(coerce.DateLayout)]); err == nil {
					return t[:len(coerce.DateLayout)], nil
				}
			}
			return t, nil
		}

	case schema.KindTimestamp:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			for _, layout := range timestampLayouts {
				if ts, err := time.Parse(layout, t); err == nil {
					return ts.UTC(), nil
				}
			}
			return t, nil
		}

	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case time.Time:
			return s.Format(time.RFC3339), nil
		default:
			return fmt.Sprint(s), nil
		}
	}
	return nil, fmt.Errorf("unexpected %T for %s column", v, c.Kind)
}
