package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Problem classifies one difference between the registry and a live table.
type Problem string

const (
	ProblemMissingTable  Problem = "missing_table"
	ProblemMissingColumn Problem = "missing_column"
	ProblemExtraColumn   Problem = "extra_column"
	ProblemKindMismatch  Problem = "kind_mismatch"
	ProblemLengthDiffers Problem = "length_mismatch"
)

// Drift is one difference between the registry and the live schema.
type Drift struct {
	Table    string
	Column   string
	Problem  Problem
	Expected string
	Actual   string
}

func (d Drift) String() string {
	switch d.Problem {
	case ProblemMissingTable:
		return fmt.Sprintf("%s: table does not exist", d.Table)
	case ProblemMissingColumn:
		return fmt.Sprintf("%s.%s: column missing (expected %s)", d.Table, d.Column, d.Expected)
	case ProblemExtraColumn:
		return fmt.Sprintf("%s.%s: column not in registry (%s)", d.Table, d.Column, d.Actual)
	default:
		return fmt.Sprintf("%s.%s: %s, expected %s, found %s", d.Table, d.Column, d.Problem, d.Expected, d.Actual)
	}
}

// Blocking reports whether the drift breaks writes through the registry.
// Extra columns are tolerated.
func (d Drift) Blocking() bool {
	return d.Problem != ProblemExtraColumn
}

type liveColumn struct {
	name     string
	typeName string
	length   int
}

var typeLength = regexp.MustCompile(`^\s*([A-Za-z0-9 ]+?)\s*(?:\(\s*(\d+|MAX)\s*(?:,\s*\d+\s*)?\))?\s*$`)

// VerifySchema compares the live columns of each table with the registry.
// A nil result means no drift.
func VerifySchema(ctx context.Context, d *Database, tables ...*schema.TableSpec) ([]Drift, error) {
	if len(tables) == 0 {
		tables = schema.All()
	}

	var drift []Drift
	for _, t := range tables {
		live, err := liveColumns(ctx, d, t.Name)
		if err != nil {
			return nil, err
		}
		drift = append(drift, compareTable(t, live)...)
	}
	return drift, nil
}

func liveColumns(ctx context.Context, d *Database, table string) ([]liveColumn, error) {
	query, args := d.Dialect().ColumnsQuery(table)
	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db: failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []liveColumn
	for rows.Next() {
		var (
			name, typeName string
			maxLen         sql.NullInt64
			nullable       int
		)
		if err := rows.Scan(&name, &typeName, &maxLen, &nullable); err != nil {
			return nil, fmt.Errorf("db: failed to scan column of %s: %w", table, err)
		}
		lc := liveColumn{name: name, typeName: strings.ToLower(typeName)}
		if m := typeLength.FindStringSubmatch(typeName); m != nil {
			lc.typeName = strings.ToLower(m[1])
			switch {
			case strings.EqualFold(m[2], "MAX"):
				lc.length = -1
			case m[2] != "":
				lc.length, _ = strconv.Atoi(m[2])
			}
		}
		if maxLen.Valid {
			lc.length = int(maxLen.Int64)
		}
		out = append(out, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: failed to read columns of %s: %w", table, err)
	}
	return out, nil
}

func compareTable(t *schema.TableSpec, live []liveColumn) []Drift {
	if len(live) == 0 {
		return []Drift{{Table: t.Name, Problem: ProblemMissingTable}}
	}

	byName := make(map[string]liveColumn, len(live))
	for _, lc := range live {
		byName[strings.ToLower(lc.name)] = lc
	}

	var drift []Drift
	for _, c := range t.Columns {
		lc, ok := byName[strings.ToLower(c.Name)]
		if !ok {
			drift = append(drift, Drift{Table: t.Name, Column: c.Name, Problem: ProblemMissingColumn, Expected: c.Kind.String()})
			continue
		}
		delete(byName, strings.ToLower(c.Name))

		family := kindFamily(lc.typeName)
		if family != wantFamily(c.Kind) {
			drift = append(drift, Drift{Table: t.Name, Column: c.Name, Problem: ProblemKindMismatch, Expected: c.Kind.String(), Actual: lc.typeName})
			continue
		}
		if c.Kind == schema.KindBoundedText || c.Kind == schema.KindBooleanText {
			if lc.length > 0 && lc.length != c.MaxLen {
				drift = append(drift, Drift{Table: t.Name, Column: c.Name, Problem: ProblemLengthDiffers,
					Expected: strconv.Itoa(c.MaxLen), Actual: strconv.Itoa(lc.length)})
			}
		}
	}

	for _, lc := range live {
		if _, extra := byName[strings.ToLower(lc.name)]; extra {
			drift = append(drift, Drift{Table: t.Name, Column: lc.name, Problem: ProblemExtraColumn, Actual: lc.typeName})
		}
	}
	return drift
}

func wantFamily(k schema.Kind) string {
	switch k {
	case schema.KindText, schema.KindBoundedText, schema.KindBooleanText:
		return "text"
	case schema.KindInteger:
		return "integer"
	case schema.KindDecimal:
		return "decimal"
	case schema.KindDate:
		return "date"
	case schema.KindTimestamp:
		return "timestamp"
	default:
		return ""
	}
}

func kindFamily(typeName string) string {
	switch typeName {
	case "nvarchar", "varchar", "nchar", "char", "text", "ntext", "character varying":
		return "text"
	case "int", "integer", "bigint", "smallint", "tinyint":
		return "integer"
	case "decimal", "numeric", "money", "smallmoney", "float", "real":
		return "decimal"
	case "date":
		return "date"
	case "datetime", "datetime2", "datetimeoffset", "smalldatetime", "timestamp":
		return "timestamp"
	default:
		return typeName
	}
}
