package db

import (
	"fmt"
	"strings"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Driver names accepted in configuration.
const (
	DriverSQLServer = "sqlserver"
	DriverSQLite    = "sqlite3"
)

// Dialect isolates the SQL that differs between SQL Server and sqlite.
// Both drivers bind @name placeholders through sql.Named.
type Dialect interface {
	// Name returns the driver name.
	Name() string

	// Quote quotes a table or column identifier.
	Quote(ident string) string

	// Insert renders an INSERT returning the quoted column named by
	// returning, when set.
	Insert(table string, columns, params []string, returning string) string

	// LockedMaxInt selects the largest integer value of column, holding a
	// lock on the range until the transaction ends where the database
	// supports it.
	LockedMaxInt(table, column string) string

	// ColumnsQuery lists the live columns of table. Rows scan into name,
	// type, max length (may be NULL) and nullability.
	ColumnsQuery(table string) (string, []any)

	// ColumnType renders the DDL type of a registry column.
	ColumnType(c schema.ColumnSpec) string

	// IdentityColumn renders the DDL for an auto-generated integer key.
	IdentityColumn(name string) string
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLServer:
		return sqlServer{}, nil
	case DriverSQLite:
		return sqlite{}, nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}
}

func insertSQL(table string, columns, params []string) (string, string) {
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ")",
		"VALUES (" + strings.Join(params, ", ") + ")"
}

type sqlServer struct{}

func (sqlServer) Name() string { return DriverSQLServer }

func (sqlServer) Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

func (sqlServer) Insert(table string, columns, params []string, returning string) string {
	head, values := insertSQL(table, columns, params)
	if returning != "" {
		return head + " OUTPUT INSERTED." + returning + " " + values
	}
	return head + " " + values
}

func (d sqlServer) LockedMaxInt(table, column string) string {
	return fmt.Sprintf("SELECT MAX(TRY_CAST(%s AS INT)) FROM %s WITH (UPDLOCK, HOLDLOCK)",
		d.Quote(column), d.Quote(table))
}

func (sqlServer) ColumnsQuery(table string) (string, []any) {
	return `SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH, CASE IS_NULLABLE WHEN 'YES' THEN 1 ELSE 0 END
		FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = @table ORDER BY ORDINAL_POSITION`,
		[]any{namedTable(table)}
}

func (sqlServer) ColumnType(c schema.ColumnSpec) string {
	switch c.Kind {
	case schema.KindBoundedText, schema.KindBooleanText:
		return fmt.Sprintf("NVARCHAR(%d)", c.MaxLen)
	case schema.KindText:
		return "NVARCHAR(MAX)"
	case schema.KindInteger:
		return "INT"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	case schema.KindDate:
		return "DATE"
	case schema.KindTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func (d sqlServer) IdentityColumn(name string) string {
	return d.Quote(name) + " INT IDENTITY(1,1) PRIMARY KEY"
}

type sqlite struct{}

func (sqlite) Name() string { return DriverSQLite }

func (sqlite) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqlite) Insert(table string, columns, params []string, returning string) string {
	head, values := insertSQL(table, columns, params)
	if returning != "" {
		return head + " " + values + " RETURNING " + returning
	}
	return head + " " + values
}

// LockedMaxInt relies on the single write connection: sqlite has no row
// locks and the transaction already holds the only writer.
func (d sqlite) LockedMaxInt(table, column string) string {
	return fmt.Sprintf("SELECT MAX(CAST(%s AS INTEGER)) FROM %s", d.Quote(column), d.Quote(table))
}

func (d sqlite) ColumnsQuery(table string) (string, []any) {
	return `SELECT name, type, NULL, CASE "notnull" WHEN 1 THEN 0 ELSE 1 END
		FROM pragma_table_info(@table) ORDER BY cid`,
		[]any{namedTable(table)}
}

// ColumnType keeps SQL Server type names so drift checks compare the same
// vocabulary on both databases. sqlite accepts them through type affinity.
func (sqlite) ColumnType(c schema.ColumnSpec) string {
	switch c.Kind {
	case schema.KindBoundedText, schema.KindBooleanText:
		return fmt.Sprintf("NVARCHAR(%d)", c.MaxLen)
	case schema.KindText:
		return "TEXT"
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	case schema.KindDate:
		return "DATE"
	case schema.KindTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func (d sqlite) IdentityColumn(name string) string {
	return d.Quote(name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
}
