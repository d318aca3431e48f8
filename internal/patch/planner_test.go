package patch

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

func mustDecode(t *testing.T, body string) *Patch {
	t.Helper()
	p, err := DecodeBytes([]byte(body))
	if err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return p
}

func TestBuildUpdate_TrimsAndMapsBooleans(t *testing.T) {
	plan, err := BuildUpdate(schema.Stores(), "S1", mustDecode(t, `{"Store_Name":"  Main St  ","MONDAY":"TRUE"}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := []Assignment{{"Store_Name", "Main St"}, {"MONDAY", "TRUE"}}
	if !reflect.DeepEqual(plan.Assignments, want) {
		t.Errorf("Assignments = %#v, want %#v", plan.Assignments, want)
	}
}

func TestBuildUpdate_EmptyRequiredAborts(t *testing.T) {
	plan, err := BuildUpdate(schema.Stores(), "S1", mustDecode(t, `{"State":"NSW","Store_Name":""}`))
	if plan != nil {
		t.Fatal("expected no plan")
	}
	if apperrors.GetCode(err) != apperrors.CodeRequiredField {
		t.Fatalf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodeRequiredField)
	}
	if err.(*apperrors.Error).Message != "Store Name cannot be empty" {
		t.Errorf("message = %q", err.(*apperrors.Error).Message)
	}
}

func TestBuildUpdate_RequiredNullAborts(t *testing.T) {
	_, err := BuildUpdate(schema.Stores(), "S1", mustDecode(t, `{"Region":null}`))
	if apperrors.GetCode(err) != apperrors.CodeRequiredField {
		t.Fatalf("code = %q", apperrors.GetCode(err))
	}
}

func TestBuildUpdate_SkipsIdentifier(t *testing.T) {
	plan, err := BuildUpdate(schema.Stores(), "S1", mustDecode(t, `{"Store_ID":"S2","State":"VIC"}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if got := plan.Columns(); !reflect.DeepEqual(got, []string{"State"}) {
		t.Errorf("Columns() = %v", got)
	}
	if len(plan.Rejected) != 0 {
		t.Errorf("identifier should be skipped, not rejected: %v", plan.Rejected)
	}
	if plan.ID != "S1" {
		t.Errorf("ID = %v", plan.ID)
	}
}

func TestBuildUpdate_UnknownAndImmutableAreIgnored(t *testing.T) {
	plan, err := BuildUpdate(schema.Adjustments(), int64(7),
		mustDecode(t, `{"Week_Total":99,"Bogus":1,"Created_At":"2024-01-01T00:00:00Z","SUNDAY":5}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := []string{"Week_Total", "Bogus", "Created_At"}
	if got := plan.Ignored(); !reflect.DeepEqual(got, want) {
		t.Errorf("Ignored() = %v, want %v", got, want)
	}
	if v, _ := plan.Lookup("SUNDAY"); v != int64(5) {
		t.Errorf("SUNDAY = %v", v)
	}
	if _, ok := plan.Lookup("Week_Total"); ok {
		t.Error("Week_Total must not be assigned from the patch")
	}
}

func TestBuildUpdate_AllUnknownIsEmpty(t *testing.T) {
	plan, err := BuildUpdate(schema.Products(), "P1", mustDecode(t, `{"Nope":1,"Updated_At":"x"}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	err = plan.Validate()
	if apperrors.GetCode(err) != apperrors.CodePlanEmpty {
		t.Fatalf("code = %q, want %q", apperrors.GetCode(err), apperrors.CodePlanEmpty)
	}
	if err.(*apperrors.Error).Message != "No valid fields to update" {
		t.Errorf("message = %q", err.(*apperrors.Error).Message)
	}
}

func TestBuildUpdate_CollectsInvalidValues(t *testing.T) {
	plan, err := BuildUpdate(schema.Stores(), "S1",
		mustDecode(t, `{"Shelf_Limit":"lots","State":"NSW","Latitude":"abc","Region":"North"}`))
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	err = plan.Validate()
	if apperrors.GetCode(err) != apperrors.CodeValidationFailed {
		t.Fatalf("code = %q", apperrors.GetCode(err))
	}
	fields := err.(*apperrors.Error).Fields
	if len(fields) != 2 || fields[0].Field != "Shelf_Limit" || fields[1].Field != "Latitude" {
		t.Errorf("fields = %+v", fields)
	}
	if fields[0].Reason != string(coerce.ReasonNotANumber) {
		t.Errorf("reason = %q", fields[0].Reason)
	}
	if got := plan.Columns(); !reflect.DeepEqual(got, []string{"State", "Region"}) {
		t.Errorf("Columns() = %v", got)
	}
}

func TestBuildUpdate_EveryKeyAccountedFor(t *testing.T) {
	p := mustDecode(t, `{"Store_Name":"A","Junk":1,"Shelf_Limit":"x","FRIDAY":1,"Store_ID":"S9"}`)
	plan, err := BuildUpdate(schema.Stores(), "S1", p)
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if got := len(plan.Assignments) + len(plan.Rejected); got != p.Len()-1 {
		t.Errorf("assigned+rejected = %d, want %d", got, p.Len()-1)
	}
}

func TestBuildInsert_ProductNeedsIdentifierAndDescription(t *testing.T) {
	_, err := BuildInsert(schema.Products(), mustDecode(t, `{"Product_Description":"Loaf"}`))
	if apperrors.GetCode(err) != apperrors.CodeRequiredField {
		t.Fatalf("missing id: code = %q", apperrors.GetCode(err))
	}

	_, err = BuildInsert(schema.Products(), mustDecode(t, `{"Product_ID":"P1"}`))
	if apperrors.GetCode(err) != apperrors.CodeRequiredField {
		t.Fatalf("missing description: code = %q", apperrors.GetCode(err))
	}
	if msg := err.(*apperrors.Error).Message; msg != "Product Description is required" {
		t.Errorf("message = %q", msg)
	}

	plan, err := BuildInsert(schema.Products(), mustDecode(t, `{"Product_ID":" P1 ","Product_Description":"Loaf","RRP_AUD":"4.5"}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	if plan.ID != "P1" {
		t.Errorf("ID = %v", plan.ID)
	}
	if v, _ := plan.Lookup("RRP_AUD"); v != 4.5 {
		t.Errorf("RRP_AUD = %v", v)
	}
}

func TestBuildInsert_StoreDefaults(t *testing.T) {
	plan, err := BuildInsert(schema.Stores(), mustDecode(t, `{"Store_Name":"Main","Region":"North","MONDAY":true}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	if plan.ID != nil {
		t.Errorf("store id is generated later, got %v", plan.ID)
	}
	if v, _ := plan.Lookup("MONDAY"); v != schema.BoolTrue {
		t.Errorf("MONDAY = %v", v)
	}
	if v, _ := plan.Lookup("TUESDAY"); v != schema.BoolFalse {
		t.Errorf("TUESDAY default = %v", v)
	}
	if v, _ := plan.Lookup("Active"); v != "Active" {
		t.Errorf("Active default = %v", v)
	}
}

func TestBuildInsert_AdjustmentDayDefaults(t *testing.T) {
	plan, err := BuildInsert(schema.Adjustments(),
		mustDecode(t, `{"Store_ID":"1","Product_ID":"P1","SUNDAY":5,"Week_Total":1}`))
	if err != nil {
		t.Fatalf("BuildInsert: %v", err)
	}
	for _, day := range schema.DaysOfWeek {
		v, ok := plan.Lookup(day)
		if !ok {
			t.Fatalf("%s not assigned", day)
		}
		want := int64(0)
		if day == "SUNDAY" {
			want = 5
		}
		if v != want {
			t.Errorf("%s = %v, want %d", day, v, want)
		}
	}
	if got := plan.Ignored(); !reflect.DeepEqual(got, []string{"Week_Total"}) {
		t.Errorf("Ignored() = %v", got)
	}
}

func TestPlan_Set(t *testing.T) {
	plan := &Plan{Table: schema.Adjustments()}
	plan.Set("SUNDAY", int64(1))
	plan.Set(schema.WeekTotalColumn, int64(1))
	plan.Set("SUNDAY", int64(2))
	want := []Assignment{{"SUNDAY", int64(2)}, {schema.WeekTotalColumn, int64(1)}}
	if !reflect.DeepEqual(plan.Assignments, want) {
		t.Errorf("Assignments = %#v", plan.Assignments)
	}
}

func TestBuildUpdate_NumbersArePrecise(t *testing.T) {
	p := New()
	p.Set("BakingQuantity", json.Number("1.2346"))
	plan, err := BuildUpdate(schema.Products(), "P1", p)
	if err != nil {
		t.Fatalf("BuildUpdate: %v", err)
	}
	if v, _ := plan.Lookup("BakingQuantity"); v != 1.235 {
		t.Errorf("BakingQuantity = %v, want 1.235", v)
	}
}
