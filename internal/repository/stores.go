package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Stores is the Stores_Master repository. Store identifiers are numeric
// strings allocated as max+1.
type Stores struct {
	*Repository

	// idMu serializes identifier allocation within the process; the locked
	// max read serializes it across processes.
	idMu sync.Mutex
}

// NewStores creates the store repository.
func NewStores(d Database, opts Options) *Stores {
	return &Stores{Repository: newRepository(d, schema.Stores(), opts)}
}

// NextID previews the identifier the next create would receive. Create
// derives it again under lock, so the preview may be stale.
func (s *Stores) NextID(ctx context.Context) (string, error) {
	var next string
	err := s.db.InTx(ctx, func(tx db.Executor) error {
		n, err := s.nextID(ctx, tx)
		next = n
		return err
	})
	return next, err
}

func (s *Stores) nextID(ctx context.Context, tx db.Executor) (string, error) {
	query := s.db.Dialect().LockedMaxInt(s.table.Name, s.table.Identifier)
	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return "", apperrors.NewDatabaseError("Failed to allocate Store ID", err)
	}
	next := int64(1)
	if last.Valid {
		next = last.Int64 + 1
	}
	return strconv.FormatInt(next, 10), nil
}

// Create inserts a store under a freshly allocated identifier.
func (s *Stores) Create(ctx context.Context, p *patch.Patch) (*Result, error) {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	return s.create(ctx, p, func(ctx context.Context, tx db.Executor, plan *patch.Plan) error {
		id, err := s.nextID(ctx, tx)
		if err != nil {
			return err
		}
		plan.ID = id
		return nil
	})
}

// Regions lists the distinct regions in use.
func (s *Stores) Regions(ctx context.Context) ([]string, error) {
	return s.Distinct(ctx, "Region")
}

// DaySelections lists every store with its per-day column values, which
// hold either a delivery flag or the name of the adjustment profile used
// on that day.
func (s *Stores) DaySelections(ctx context.Context) ([]db.Row, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	cols := append([]string{s.table.Identifier, "Store_Name"}, schema.DaysOfWeek...)
	out := make([]db.Row, len(rows))
	for i, row := range rows {
		out[i] = row.Select(cols...)
	}
	return out, nil
}

// AssignDayProfile stores the adjustment profile a store uses on one
// weekday. A blank name clears the day back to its flag default.
func (s *Stores) AssignDayProfile(ctx context.Context, id any, day string, name any) (*Result, error) {
	if !schema.IsDayOfWeek(day) {
		return nil, apperrors.NewValidationError(apperrors.CodeValidationFailed, "Invalid day of week")
	}
	dayCol, _ := s.table.Column(day)

	value := dayCol.Default
	if !coerce.IsBlank(name) {
		profileCol := dayCol
		profileCol.Kind = schema.KindBoundedText
		profileCol.Label = "Profile Name"
		v, err := coerce.Coerce(profileCol, name, false)
		if err != nil {
			var fe *coerce.FieldError
			if errors.As(err, &fe) {
				return nil, apperrors.NewValidationError(apperrors.CodeValidationFailed, fe.Error()).
					WithFields([]apperrors.FieldIssue{{Field: "NewProfileName", Reason: string(fe.Reason), Message: fe.Error()}})
			}
			return nil, err
		}
		value = v
	}

	plan := &patch.Plan{Table: s.table, ID: id}
	plan.Set(day, value)

	var res *Result
	err := s.db.InTx(ctx, func(tx db.Executor) error {
		found, err := s.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NewNotFoundError(string(s.table.Entity))
		}
		if err := s.execUpdate(ctx, tx, plan); err != nil {
			return err
		}
		res, err = s.refetch(ctx, tx, id, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.stats != nil {
		s.stats.RecordAssignment(s.table.Name, day)
	}
	s.logger.Info("day profile assigned", "id", id, "day", day, "profile", value)
	return res, nil
}
