package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// RegionUplifts is the Region_Percentage_Uplift repository. The table is
// only ever replaced as a whole.
type RegionUplifts struct {
	*Repository
}

// NewRegionUplifts creates the region uplift repository.
func NewRegionUplifts(d Database, opts Options) *RegionUplifts {
	return &RegionUplifts{Repository: newRepository(d, schema.RegionUplifts(), opts)}
}

// Replace swaps every uplift row for entries in one transaction. All
// entries are planned first, so one bad entry leaves the table untouched.
func (u *RegionUplifts) Replace(ctx context.Context, entries []*patch.Patch) ([]db.Row, error) {
	plans := make([]*patch.Plan, 0, len(entries))
	seen := make(map[any]int, len(entries))
	var issues []apperrors.FieldIssue

	for i, entry := range entries {
		plan, err := u.planInsert(entry)
		if err != nil {
			issues = append(issues, entryIssues(i, err)...)
			continue
		}
		if first, dup := seen[plan.ID]; dup {
			issues = append(issues, apperrors.FieldIssue{
				Field:   fmt.Sprintf("[%d].%s", i, u.table.Identifier),
				Reason:  "DUPLICATE",
				Message: fmt.Sprintf("Region %v is already given by entry %d", plan.ID, first),
			})
			continue
		}
		seen[plan.ID] = i
		plans = append(plans, plan)
	}
	if len(issues) > 0 {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFailed, "Invalid region data format").
			WithFields(issues)
	}

	results := make([]*Result, len(plans))
	err := u.db.InTx(ctx, func(tx db.Executor) error {
		stmt := patch.ComposeDeleteAll(u.db.Dialect(), u.table)
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return apperrors.NewDatabaseError("Failed to clear "+u.table.Name, err)
		}
		for i, plan := range plans {
			res, err := u.insert(ctx, tx, plan)
			if err != nil {
				return err
			}
			results[i] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, res := range results {
		u.recordAssignments(res, entries[i])
	}
	u.logger.Info("region uplift replaced", "regions", len(plans))
	return u.List(ctx)
}

// entryIssues prefixes the field issues of one array entry with its index.
func entryIssues(i int, err error) []apperrors.FieldIssue {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return []apperrors.FieldIssue{{Field: fmt.Sprintf("[%d]", i), Reason: "INVALID", Message: err.Error()}}
	}
	if len(appErr.Fields) == 0 {
		return []apperrors.FieldIssue{{Field: fmt.Sprintf("[%d]", i), Reason: appErr.Code, Message: appErr.Message}}
	}
	out := make([]apperrors.FieldIssue, len(appErr.Fields))
	for j, f := range appErr.Fields {
		f.Field = fmt.Sprintf("[%d].%s", i, f.Field)
		out[j] = f
	}
	return out
}
