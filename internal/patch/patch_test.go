package patch

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDecode_KeepsKeyOrder(t *testing.T) {
	p, err := DecodeBytes([]byte(`{"Region":"North","Store_Name":"A","MONDAY":true,"Shelf_Limit":12}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	want := []string{"Region", "Store_Name", "MONDAY", "Shelf_Limit"}
	if got := p.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	v, _ := p.Get("Shelf_Limit")
	if _, ok := v.(json.Number); !ok {
		t.Errorf("number decoded as %T, want json.Number", v)
	}
}

func TestDecode_RepeatedKeyLastValueFirstPosition(t *testing.T) {
	p, err := DecodeBytes([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	if v, _ := p.Get("a"); v != json.Number("3") {
		t.Errorf("a = %v, want 3", v)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty"},
		{"array", `[1,2]`, "JSON object"},
		{"scalar", `"x"`, "JSON object"},
		{"malformed", `{"a":`, "invalid JSON"},
		{"trailing object", `{"a":1}{"b":2}`, "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDecode_EmptyObject(t *testing.T) {
	p, err := DecodeBytes([]byte(`{}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestPatch_DeleteAndFromMap(t *testing.T) {
	p := FromMap(map[string]any{"x": 1, "y": 2, "z": 3}, "z", "x", "missing")
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"z", "x"}) {
		t.Fatalf("Keys() = %v", got)
	}
	p.Delete("z")
	p.Delete("nope")
	if got := p.Keys(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Keys() after delete = %v", got)
	}
	if p.Has("z") {
		t.Error("z still present")
	}
}
