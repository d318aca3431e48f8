package observability

import (
	"sync"
	"testing"
	"time"
)

// TestRecordAssignmentConcurrent tests concurrent recording for race conditions.
func TestRecordAssignmentConcurrent(t *testing.T) {
	us := NewUpdateStats(time.Hour)
	var wg sync.WaitGroup
	numGoroutines := 10
	recordsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerGoroutine; j++ {
				us.RecordAssignment("Stores_Master", "Store_Name")
				us.RecordAssignment("Stores_Master", "MONDAY")
				us.RecordRejection("Store_Product_Adjustments", "Week_Total", "UnknownOrImmutable")
			}
		}()
	}
	wg.Wait()

	top := us.TopAssigned(10)
	if len(top) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(top))
	}
	want := int64(numGoroutines * recordsPerGoroutine)
	for _, s := range top {
		if s.Frequency != want {
			t.Errorf("expected frequency %d for %s, got %d", want, s.Field, s.Frequency)
		}
	}

	rej := us.TopRejected(10)
	if len(rej) != 1 || rej[0].Reasons["UnknownOrImmutable"] != int(want) {
		t.Errorf("rejections = %+v", rej)
	}
}

// TestTopOrdering tests that rankings are sorted by frequency.
func TestTopOrdering(t *testing.T) {
	us := NewUpdateStats(time.Hour)
	for i := 0; i < 10; i++ {
		us.RecordAssignment("Products_Master", "RRP_AUD")
	}
	for i := 0; i < 5; i++ {
		us.RecordAssignment("Products_Master", "Notes")
	}
	for i := 0; i < 20; i++ {
		us.RecordAssignment("Stores_Master", "Region")
	}

	top := us.TopAssigned(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Field != "Region" || top[1].Field != "RRP_AUD" {
		t.Errorf("unexpected order: %s, %s", top[0].Field, top[1].Field)
	}
	if got := us.TopAssigned(0); len(got) != 0 {
		t.Errorf("TopAssigned(0) = %v", got)
	}
}

// TestTopReturnsCopies tests that callers cannot mutate the counters.
func TestTopReturnsCopies(t *testing.T) {
	us := NewUpdateStats(time.Hour)
	us.RecordRejection("Stores_Master", "Shelf_Limit", "NotANumber")

	got := us.TopRejected(1)
	got[0].Reasons["NotANumber"] = 100
	got[0].Frequency = 100

	again := us.TopRejected(1)
	if again[0].Frequency != 1 || again[0].Reasons["NotANumber"] != 1 {
		t.Errorf("counters were mutated: %+v", again[0])
	}
}

// TestPrune tests that idle entries are removed.
func TestPrune(t *testing.T) {
	us := NewUpdateStats(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	us.now = func() time.Time { return now }

	us.RecordAssignment("Stores_Master", "State")
	us.RecordRejection("Stores_Master", "Bogus", "UnknownOrImmutable")

	now = now.Add(30 * time.Second)
	us.RecordAssignment("Stores_Master", "Region")

	now = now.Add(45 * time.Second)
	us.Prune()

	snap := us.Snapshot(10)
	if len(snap.TopAssigned) != 1 || snap.TopAssigned[0].Field != "Region" {
		t.Errorf("assigned after prune = %+v", snap.TopAssigned)
	}
	if len(snap.TopRejected) != 0 {
		t.Errorf("rejected after prune = %+v", snap.TopRejected)
	}
}
