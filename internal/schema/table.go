package schema

import "fmt"

// Entity names an updatable entity kind.
type Entity string

const (
	EntityStore      Entity = "Store"
	EntityProduct    Entity = "Product"
	EntityAdjustment Entity = "Adjustment"

	EntityRegionUplift     Entity = "Region uplift"
	EntityProfile          Entity = "Adjustment profile"
	EntityManualAdjustment Entity = "Manual adjustment"
)

// IDStrategy says where new identifier values come from.
type IDStrategy int

const (
	// IDClientSupplied identifiers arrive in the create payload.
	IDClientSupplied IDStrategy = iota
	// IDMaxPlusOne identifiers are max(existing)+1 computed under a lock.
	IDMaxPlusOne
	// IDDatabaseIdentity identifiers are generated by the database on insert.
	IDDatabaseIdentity
)

// TableSpec is the ordered column set of one entity's table.
type TableSpec struct {
	Entity     Entity
	Name       string
	Columns    []ColumnSpec
	Identifier string
	IDStrategy IDStrategy

	// Required lists fields that must be present on create and never empty.
	Required []string

	// OrderBy is the column used when listing rows. ThenBy, when set,
	// breaks ties in the same direction.
	OrderBy   string
	ThenBy    string
	OrderDesc bool

	index    map[string]int
	required map[string]bool
}

// Column returns the spec of the named column.
func (t *TableSpec) Column(name string) (ColumnSpec, bool) {
	i, ok := t.index[name]
	if !ok {
		return ColumnSpec{}, false
	}
	return t.Columns[i], true
}

// IdentifierColumn returns the spec of the identifier column.
func (t *TableSpec) IdentifierColumn() ColumnSpec {
	c, _ := t.Column(t.Identifier)
	return c
}

// IsRequired reports whether name is in the entity's required set.
func (t *TableSpec) IsRequired(name string) bool {
	return t.required[name]
}

// ColumnNames returns all column names in declaration order.
func (t *TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnsWithRole returns the names of columns having role r.
func (t *TableSpec) ColumnsWithRole(r Role) []string {
	var names []string
	for _, c := range t.Columns {
		if c.Role == r {
			names = append(names, c.Name)
		}
	}
	return names
}

// AuditColumns returns the names of the audit timestamp columns.
func (t *TableSpec) AuditColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.IsAudit() {
			names = append(names, c.Name)
		}
	}
	return names
}

func newTable(t TableSpec) *TableSpec {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c.Name] = i
	}
	t.required = make(map[string]bool, len(t.Required))
	for _, name := range t.Required {
		t.required[name] = true
	}
	if err := t.validate(); err != nil {
		panic(err)
	}
	return &t
}

// validate checks the registry invariants for one table.
func (t *TableSpec) validate() error {
	if len(t.index) != len(t.Columns) {
		return fmt.Errorf("schema: %s has duplicate column names", t.Name)
	}

	identifiers := 0
	for _, c := range t.Columns {
		switch c.Role {
		case RoleIdentifier:
			identifiers++
			if c.Name != t.Identifier {
				return fmt.Errorf("schema: %s identifier column %s does not match %s", t.Name, c.Name, t.Identifier)
			}
		case RoleData:
			if !c.Mutable {
				return fmt.Errorf("schema: %s.%s is a data column but not mutable", t.Name, c.Name)
			}
		}
		if c.Role != RoleData && c.Mutable {
			return fmt.Errorf("schema: %s.%s is client-settable but has role %d", t.Name, c.Name, c.Role)
		}
		if c.Kind == KindBoundedText && c.MaxLen <= 0 {
			return fmt.Errorf("schema: %s.%s bounded text without max length", t.Name, c.Name)
		}
		if c.Kind == KindDecimal && (c.Precision <= 0 || c.Scale < 0 || c.Scale > c.Precision) {
			return fmt.Errorf("schema: %s.%s invalid decimal(%d,%d)", t.Name, c.Name, c.Precision, c.Scale)
		}
	}
	if identifiers != 1 {
		return fmt.Errorf("schema: %s must have exactly one identifier column, has %d", t.Name, identifiers)
	}

	for _, name := range t.Required {
		c, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("schema: %s required field %s is not a column", t.Name, name)
		}
		if !c.Mutable {
			return fmt.Errorf("schema: %s required field %s is not mutable", t.Name, name)
		}
	}

	if _, ok := t.Column(t.OrderBy); !ok {
		return fmt.Errorf("schema: %s order column %s is not a column", t.Name, t.OrderBy)
	}
	if t.ThenBy != "" {
		if _, ok := t.Column(t.ThenBy); !ok {
			return fmt.Errorf("schema: %s order column %s is not a column", t.Name, t.ThenBy)
		}
	}
	return nil
}
