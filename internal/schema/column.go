// Package schema is the static registry of every table the maintenance
// backend is allowed to write. Partial updates consult it instead of
// querying INFORMATION_SCHEMA at request time.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the semantic type of a column.
type Kind int

const (
	// KindText is free text with no length limit enforced by the application.
	KindText Kind = iota
	// KindBoundedText is text limited to MaxLen characters.
	KindBoundedText
	// KindBooleanText stores boolean flags as the literal strings "TRUE"/"FALSE".
	KindBooleanText
	// KindInteger is a base-10 integer.
	KindInteger
	// KindDecimal is a fixed-point number with Precision and Scale.
	KindDecimal
	// KindDate is a calendar date without time of day.
	KindDate
	// KindTimestamp is a date and time; only audit columns use it.
	KindTimestamp
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindBoundedText:
		return "BoundedText"
	case KindBooleanText:
		return "BooleanText"
	case KindInteger:
		return "Integer"
	case KindDecimal:
		return "Decimal"
	case KindDate:
		return "Date"
	case KindTimestamp:
		return "Timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Role describes who owns a column's value.
type Role int

const (
	// RoleData columns are owned by clients.
	RoleData Role = iota
	// RoleIdentifier is the single immutable key column of a table.
	RoleIdentifier
	// RoleCreatedAt is the audit creation timestamp, set once on insert.
	RoleCreatedAt
	// RoleUpdatedAt is the audit modification timestamp, set on every write.
	RoleUpdatedAt
	// RoleDerived columns are computed by the repository, never by clients.
	RoleDerived
)

// ColumnSpec describes one column of one table.
type ColumnSpec struct {
	// Name is the column name as stored; unique within its table
	Name string

	// Label is the human-readable name used in error messages
	Label string

	// Kind is the semantic type used by the coercion engine
	Kind Kind

	// MaxLen is the maximum length in characters for KindBoundedText
	MaxLen int

	// Precision and Scale bound KindDecimal values
	Precision int
	Scale     int

	// Nullable reports whether NULL may be stored
	Nullable bool

	// Mutable reports whether partial updates may set the column
	Mutable bool

	// Role tells identifier, audit and derived columns apart from data
	Role Role

	// Default is stored on insert when the client omits the column
	Default any
}

// DisplayName returns the label used in client-facing messages.
func (c ColumnSpec) DisplayName() string {
	if c.Label != "" {
		return c.Label
	}
	return strings.ReplaceAll(c.Name, "_", " ")
}

// IsAudit reports whether the column is an audit timestamp.
func (c ColumnSpec) IsAudit() bool {
	return c.Role == RoleCreatedAt || c.Role == RoleUpdatedAt
}

func text(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindText, Nullable: true, Mutable: true}
}

func bounded(name string, maxLen int) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindBoundedText, MaxLen: maxLen, Nullable: true, Mutable: true}
}

func flag(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindBooleanText, MaxLen: 50, Mutable: true, Default: BoolFalse}
}

func integer(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindInteger, Nullable: true, Mutable: true}
}

func decimal(name string, precision, scale int) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindDecimal, Precision: precision, Scale: scale, Nullable: true, Mutable: true}
}

func date(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindDate, Nullable: true, Mutable: true}
}

func identifier(c ColumnSpec) ColumnSpec {
	c.Role = RoleIdentifier
	c.Mutable = false
	c.Nullable = false
	return c
}

func createdAt(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindTimestamp, Nullable: true, Role: RoleCreatedAt}
}

func updatedAt(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindTimestamp, Nullable: true, Role: RoleUpdatedAt}
}

func derived(c ColumnSpec) ColumnSpec {
	c.Role = RoleDerived
	c.Mutable = false
	return c
}

func (c ColumnSpec) notNull() ColumnSpec {
	c.Nullable = false
	return c
}

func (c ColumnSpec) labelled(label string) ColumnSpec {
	c.Label = label
	return c
}

func (c ColumnSpec) withDefault(v any) ColumnSpec {
	c.Default = v
	return c
}

// Stored representations of KindBooleanText values.
const (
	BoolTrue  = "TRUE"
	BoolFalse = "FALSE"
)
