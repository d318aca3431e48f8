package patch

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Dialect renders the SQL fragments that differ between databases.
type Dialect interface {
	// Quote quotes a table or column identifier.
	Quote(ident string) string

	// Insert renders an INSERT of columns bound to params, returning the
	// named column when returning is non-empty.
	Insert(table string, columns, params []string, returning string) string
}

// Statement is SQL text plus its named arguments. Values only ever travel
// as arguments.
type Statement struct {
	SQL  string
	Args []any
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkColumn guards every identifier spliced into SQL text: it must be a
// registered column with a name usable as a bind parameter.
func checkColumn(table *schema.TableSpec, name string) error {
	if _, ok := table.Column(name); !ok {
		return fmt.Errorf("patch: column %q is not registered for %s", name, table.Name)
	}
	if !identPattern.MatchString(name) {
		return fmt.Errorf("patch: column %q is not a valid identifier", name)
	}
	return nil
}

func param(name string) string {
	return "@" + name
}

// ComposeUpdate builds the UPDATE for a non-empty plan. The updated-at
// audit column is always assigned now.
func ComposeUpdate(d Dialect, plan *Plan, now time.Time) (Statement, error) {
	table := plan.Table
	if plan.Empty() {
		return Statement{}, fmt.Errorf("patch: cannot compose an empty plan for %s", table.Name)
	}

	sets := make([]string, 0, len(plan.Assignments)+1)
	args := make([]any, 0, len(plan.Assignments)+2)
	for _, a := range plan.Assignments {
		if err := checkColumn(table, a.Column); err != nil {
			return Statement{}, err
		}
		if a.Column == table.Identifier {
			return Statement{}, fmt.Errorf("patch: identifier %s cannot be assigned", a.Column)
		}
		sets = append(sets, d.Quote(a.Column)+" = "+param(a.Column))
		args = append(args, sql.Named(a.Column, a.Value))
	}

	for _, col := range table.ColumnsWithRole(schema.RoleUpdatedAt) {
		sets = append(sets, d.Quote(col)+" = "+param(col))
		args = append(args, sql.Named(col, now.UTC()))
	}

	args = append(args, sql.Named(table.Identifier, plan.ID))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.Quote(table.Name), strings.Join(sets, ", "),
		d.Quote(table.Identifier), param(table.Identifier))

	return Statement{SQL: query, Args: args}, nil
}

// ComposeInsert builds the INSERT for a create plan. Both audit columns are
// set to now. When the table's identifier is generated by the database the
// statement returns it.
func ComposeInsert(d Dialect, plan *Plan, now time.Time) (Statement, error) {
	table := plan.Table
	var cols, params []string
	var args []any

	if table.IDStrategy != schema.IDDatabaseIdentity {
		if plan.ID == nil {
			return Statement{}, fmt.Errorf("patch: insert into %s needs an identifier", table.Name)
		}
		cols = append(cols, d.Quote(table.Identifier))
		params = append(params, param(table.Identifier))
		args = append(args, sql.Named(table.Identifier, plan.ID))
	}

	for _, a := range plan.Assignments {
		if err := checkColumn(table, a.Column); err != nil {
			return Statement{}, err
		}
		cols = append(cols, d.Quote(a.Column))
		params = append(params, param(a.Column))
		args = append(args, sql.Named(a.Column, a.Value))
	}

	for _, col := range table.AuditColumns() {
		cols = append(cols, d.Quote(col))
		params = append(params, param(col))
		args = append(args, sql.Named(col, now.UTC()))
	}

	returning := ""
	if table.IDStrategy == schema.IDDatabaseIdentity {
		returning = d.Quote(table.Identifier)
	}

	return Statement{SQL: d.Insert(d.Quote(table.Name), cols, params, returning), Args: args}, nil
}

// ComposeSelect re-reads one row by identifier.
func ComposeSelect(d Dialect, table *schema.TableSpec, id any) Statement {
	return Statement{
		SQL: fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
			d.Quote(table.Name), d.Quote(table.Identifier), param(table.Identifier)),
		Args: []any{sql.Named(table.Identifier, id)},
	}
}

// ComposeExists checks for one row by identifier.
func ComposeExists(d Dialect, table *schema.TableSpec, id any) Statement {
	return Statement{
		SQL: fmt.Sprintf("SELECT 1 FROM %s WHERE %s = %s",
			d.Quote(table.Name), d.Quote(table.Identifier), param(table.Identifier)),
		Args: []any{sql.Named(table.Identifier, id)},
	}
}

// ComposeDelete removes one row by identifier.
func ComposeDelete(d Dialect, table *schema.TableSpec, id any) Statement {
	return Statement{
		SQL: fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
			d.Quote(table.Name), d.Quote(table.Identifier), param(table.Identifier)),
		Args: []any{sql.Named(table.Identifier, id)},
	}
}

// ComposeList reads all rows in the table's listing order.
func ComposeList(d Dialect, table *schema.TableSpec) Statement {
	dir := "ASC"
	if table.OrderDesc {
		dir = "DESC"
	}
	order := d.Quote(table.OrderBy) + " " + dir
	if table.ThenBy != "" {
		order += ", " + d.Quote(table.ThenBy) + " " + dir
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT * FROM %s ORDER BY %s", d.Quote(table.Name), order),
	}
}

// ComposeLookup finds the identifier of the row whose columns equal the
// given values. It is how tables keyed by a column pair are addressed.
func ComposeLookup(d Dialect, table *schema.TableSpec, match []Assignment) (Statement, error) {
	if len(match) == 0 {
		return Statement{}, fmt.Errorf("patch: lookup in %s needs at least one column", table.Name)
	}
	conds := make([]string, len(match))
	args := make([]any, len(match))
	for i, m := range match {
		if err := checkColumn(table, m.Column); err != nil {
			return Statement{}, err
		}
		conds[i] = d.Quote(m.Column) + " = " + param(m.Column)
		args[i] = sql.Named(m.Column, m.Value)
	}
	return Statement{
		SQL: fmt.Sprintf("SELECT %s FROM %s WHERE %s",
			d.Quote(table.Identifier), d.Quote(table.Name), strings.Join(conds, " AND ")),
		Args: args,
	}, nil
}

// ComposeDeleteAll empties a table.
func ComposeDeleteAll(d Dialect, table *schema.TableSpec) Statement {
	return Statement{SQL: "DELETE FROM " + d.Quote(table.Name)}
}

// ComposeDistinct lists the distinct non-empty values of a text column.
func ComposeDistinct(d Dialect, table *schema.TableSpec, column string) (Statement, error) {
	if err := checkColumn(table, column); err != nil {
		return Statement{}, err
	}
	q := d.Quote(column)
	return Statement{
		SQL: fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s",
			q, d.Quote(table.Name), q, q, q),
	}, nil
}
