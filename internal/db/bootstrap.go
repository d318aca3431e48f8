package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// CreateTableSQL renders the DDL of a registered table.
func CreateTableSQL(d Dialect, table *schema.TableSpec) string {
	defs := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		if c.Role == schema.RoleIdentifier && table.IDStrategy == schema.IDDatabaseIdentity {
			defs = append(defs, d.IdentityColumn(c.Name))
			continue
		}

		def := d.Quote(c.Name) + " " + d.ColumnType(c)
		if c.Role == schema.RoleIdentifier {
			def += " NOT NULL PRIMARY KEY"
		} else if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Default != nil {
			def += " DEFAULT " + literal(c.Default)
		}
		defs = append(defs, def)
	}

	body := "CREATE TABLE " + d.Quote(table.Name) + " (\n    " + strings.Join(defs, ",\n    ") + "\n)"
	if d.Name() == DriverSQLServer {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", strings.ReplaceAll(table.Name, "'", "''"), body)
	}
	return strings.Replace(body, "CREATE TABLE", "CREATE TABLE IF NOT EXISTS", 1)
}

func literal(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

// Bootstrap creates the given tables when they do not exist yet.
func Bootstrap(ctx context.Context, d *Database, tables ...*schema.TableSpec) error {
	if len(tables) == 0 {
		tables = schema.All()
	}
	for _, t := range tables {
		if _, err := d.ExecContext(ctx, CreateTableSQL(d.Dialect(), t)); err != nil {
			return fmt.Errorf("db: failed to create %s: %w", t.Name, err)
		}
	}
	return nil
}
