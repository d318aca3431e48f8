package repository

import (
	"context"
	"fmt"

	"github.com/bakeryops/bakery-maint/internal/db"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Adjustments is the Store_Product_Adjustments repository. Identifiers
// come from the database and Week_Total is kept equal to the sum of the
// day columns.
type Adjustments struct {
	*Repository
}

// NewAdjustments creates the adjustment repository.
func NewAdjustments(d Database, opts Options) *Adjustments {
	a := &Adjustments{Repository: newRepository(d, schema.Adjustments(), opts)}
	a.derive = weekTotal
	return a
}

// Create inserts an adjustment and returns it with its generated identifier.
func (a *Adjustments) Create(ctx context.Context, p *patch.Patch) (*Result, error) {
	return a.create(ctx, p, nil)
}

// weekTotal recomputes Week_Total when any day column is assigned, taking
// unassigned days from the current row.
func weekTotal(plan *patch.Plan, current *db.Row) error {
	touched := current == nil
	for _, day := range schema.DaysOfWeek {
		if _, ok := plan.Lookup(day); ok {
			touched = true
			break
		}
	}
	if !touched {
		return nil
	}

	var total int64
	for _, day := range schema.DaysOfWeek {
		v, ok := plan.Lookup(day)
		if !ok && current != nil {
			v, _ = current.Get(day)
		}
		switch n := v.(type) {
		case nil:
		case int64:
			total += n
		default:
			return fmt.Errorf("repository: %s has unexpected value %T", day, v)
		}
	}
	plan.Set(schema.WeekTotalColumn, total)
	return nil
}
