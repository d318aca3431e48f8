package patch

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/bakeryops/bakery-maint/internal/schema"
)

// bracketDialect renders SQL Server style SQL without a database.
type bracketDialect struct{}

func (bracketDialect) Quote(ident string) string { return "[" + ident + "]" }

func (bracketDialect) Insert(table string, columns, params []string, returning string) string {
	out := ""
	if returning != "" {
		out = " OUTPUT INSERTED." + returning
	}
	return "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ")" + out +
		" VALUES (" + strings.Join(params, ", ") + ")"
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func namedArgs(args []any) map[string]any {
	m := make(map[string]any, len(args))
	for _, a := range args {
		n := a.(sql.NamedArg)
		m[n.Name] = n.Value
	}
	return m
}

func TestComposeUpdate(t *testing.T) {
	plan, err := BuildUpdate(schema.Stores(), "S1", mustDecode(t, `{"Store_Name":"  Main St  ","MONDAY":"TRUE","Junk":1}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}

	stmt, err := ComposeUpdate(bracketDialect{}, plan, fixedNow)
	if err != nil {
		t.Fatalf("ComposeUpdate: %v", err)
	}
	want := "UPDATE [Stores_Master] SET [Store_Name] = @Store_Name, [MONDAY] = @MONDAY, [Updated_At] = @Updated_At WHERE [Store_ID] = @Store_ID"
	if stmt.SQL != want {
		t.Errorf("SQL =\n%s\nwant\n%s", stmt.SQL, want)
	}

	args := namedArgs(stmt.Args)
	if args["Store_Name"] != "Main St" || args["MONDAY"] != "TRUE" || args["Store_ID"] != "S1" {
		t.Errorf("args = %v", args)
	}
	if args["Updated_At"] != fixedNow {
		t.Errorf("Updated_At = %v", args["Updated_At"])
	}
	if strings.Contains(stmt.SQL, "Main St") || strings.Contains(stmt.SQL, "Junk") {
		t.Error("values and unknown keys must not reach SQL text")
	}
}

func TestComposeUpdate_RejectsEmptyAndForeignColumns(t *testing.T) {
	if _, err := ComposeUpdate(bracketDialect{}, &Plan{Table: schema.Stores(), ID: "S1"}, fixedNow); err == nil {
		t.Error("empty plan composed")
	}

	forged := &Plan{Table: schema.Stores(), ID: "S1", Assignments: []Assignment{{"Store_Name; DROP TABLE x", "a"}}}
	if _, err := ComposeUpdate(bracketDialect{}, forged, fixedNow); err == nil {
		t.Error("unregistered column composed")
	}

	idPlan := &Plan{Table: schema.Stores(), ID: "S1", Assignments: []Assignment{{"Store_ID", "S2"}}}
	if _, err := ComposeUpdate(bracketDialect{}, idPlan, fixedNow); err == nil {
		t.Error("identifier assignment composed")
	}
}

func TestComposeInsert_ClientIdentifier(t *testing.T) {
	plan, err := BuildInsert(schema.Products(), mustDecode(t, `{"Product_ID":"P1","Product_Description":"Loaf"}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	stmt, err := ComposeInsert(bracketDialect{}, plan, fixedNow)
	if err != nil {
		t.Fatalf("ComposeInsert: %v", err)
	}
	want := "INSERT INTO [Products_Master] ([Product_ID], [Product_Description], [Created_At], [Updated_At]) VALUES (@Product_ID, @Product_Description, @Created_At, @Updated_At)"
	if stmt.SQL != want {
		t.Errorf("SQL =\n%s\nwant\n%s", stmt.SQL, want)
	}
	args := namedArgs(stmt.Args)
	if args["Created_At"] != fixedNow || args["Updated_At"] != fixedNow {
		t.Errorf("audit args = %v", args)
	}
}

func TestComposeInsert_IdentityReturnsIdentifier(t *testing.T) {
	plan, err := BuildInsert(schema.Adjustments(), mustDecode(t, `{"Store_ID":"1","Product_ID":"P1"}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	stmt, err := ComposeInsert(bracketDialect{}, plan, fixedNow)
	if err != nil {
		t.Fatalf("ComposeInsert: %v", err)
	}
	if !strings.Contains(stmt.SQL, "OUTPUT INSERTED.[Adjustment_ID]") {
		t.Errorf("SQL missing returning clause: %s", stmt.SQL)
	}
	if strings.Contains(stmt.SQL, "@Adjustment_ID") {
		t.Errorf("identity column must not be bound: %s", stmt.SQL)
	}
}

func TestComposeInsert_MissingGeneratedID(t *testing.T) {
	plan, err := BuildInsert(schema.Stores(), mustDecode(t, `{"Store_Name":"A","Region":"B"}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	if _, err := ComposeInsert(bracketDialect{}, plan, fixedNow); err == nil {
		t.Error("store insert without id composed")
	}
	plan.ID = "12"
	if _, err := ComposeInsert(bracketDialect{}, plan, fixedNow); err != nil {
		t.Errorf("ComposeInsert: %v", err)
	}
}

func TestComposeReadStatements(t *testing.T) {
	d := bracketDialect{}
	if got := ComposeSelect(d, schema.Products(), "P1").SQL; got != "SELECT * FROM [Products_Master] WHERE [Product_ID] = @Product_ID" {
		t.Errorf("select = %s", got)
	}
	if got := ComposeExists(d, schema.Stores(), "1").SQL; got != "SELECT 1 FROM [Stores_Master] WHERE [Store_ID] = @Store_ID" {
		t.Errorf("exists = %s", got)
	}
	if got := ComposeDelete(d, schema.Stores(), "1").SQL; got != "DELETE FROM [Stores_Master] WHERE [Store_ID] = @Store_ID" {
		t.Errorf("delete = %s", got)
	}
	if got := ComposeList(d, schema.Adjustments()).SQL; got != "SELECT * FROM [Store_Product_Adjustments] ORDER BY [Created_At] DESC" {
		t.Errorf("list = %s", got)
	}
	if got := ComposeList(d, schema.Stores()).SQL; !strings.HasSuffix(got, "ORDER BY [Store_Name] ASC") {
		t.Errorf("list = %s", got)
	}

	stmt, err := ComposeDistinct(d, schema.Stores(), "Region")
	if err != nil {
		t.Fatalf("ComposeDistinct: %v", err)
	}
	if !strings.HasPrefix(stmt.SQL, "SELECT DISTINCT [Region] FROM [Stores_Master]") {
		t.Errorf("distinct = %s", stmt.SQL)
	}
	if _, err := ComposeDistinct(d, schema.Stores(), "Nope"); err == nil {
		t.Error("distinct on unknown column composed")
	}
}

func TestComposeList_ThenBy(t *testing.T) {
	got := ComposeList(bracketDialect{}, schema.ManualAdjustments()).SQL
	want := "SELECT * FROM [Manual_Adjustments] ORDER BY [Store_Name] ASC, [Product_Name] ASC"
	if got != want {
		t.Errorf("list = %s", got)
	}
}

func TestComposeLookup(t *testing.T) {
	d := bracketDialect{}
	stmt, err := ComposeLookup(d, schema.ManualAdjustments(), []Assignment{
		{Column: "Store_ID", Value: "12"},
		{Column: "Product_ID", Value: "P7"},
	})
	if err != nil {
		t.Fatalf("ComposeLookup: %v", err)
	}
	want := "SELECT [Manual_Adjustment_ID] FROM [Manual_Adjustments] WHERE [Store_ID] = @Store_ID AND [Product_ID] = @Product_ID"
	if stmt.SQL != want {
		t.Errorf("lookup = %s", stmt.SQL)
	}
	args := namedArgs(stmt.Args)
	if args["Store_ID"] != "12" || args["Product_ID"] != "P7" {
		t.Errorf("args = %v", args)
	}

	if _, err := ComposeLookup(d, schema.ManualAdjustments(), nil); err == nil {
		t.Error("lookup without columns composed")
	}
	if _, err := ComposeLookup(d, schema.ManualAdjustments(), []Assignment{{Column: "1=1; --", Value: 1}}); err == nil {
		t.Error("lookup on unregistered column composed")
	}
}

func TestComposeWithoutAuditColumns(t *testing.T) {
	d := bracketDialect{}
	plan, err := BuildInsert(schema.RegionUplifts(), mustDecode(t, `{"Region":"North","Percentage":2.5}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	stmt, err := ComposeInsert(d, plan, fixedNow)
	if err != nil {
		t.Fatalf("ComposeInsert: %v", err)
	}
	if stmt.SQL != "INSERT INTO [Region_Percentage_Uplift] ([Region], [Percentage]) VALUES (@Region, @Percentage)" {
		t.Errorf("insert = %s", stmt.SQL)
	}
	if got := ComposeDeleteAll(d, schema.RegionUplifts()).SQL; got != "DELETE FROM [Region_Percentage_Uplift]" {
		t.Errorf("delete all = %s", got)
	}
}
