// Package repository applies patches to the store, product and adjustment
// tables. Every write runs existence check, planning, composition,
// execution and re-fetch inside one transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/observability"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Database is the collaborator the repositories run against.
type Database interface {
	db.Executor
	InTx(ctx context.Context, fn func(tx db.Executor) error) error
	Dialect() db.Dialect
}

// Result is the outcome of a successful write.
type Result struct {
	// ID is the identifier of the written row
	ID any

	// Row is the row as stored after the write
	Row db.Row

	// Ignored lists patch keys that were unknown or not client-settable
	Ignored []string
}

// deriveFunc adjusts a plan before composition. current is nil on insert.
type deriveFunc func(plan *patch.Plan, current *db.Row) error

// Repository implements the patch pipeline for one table.
type Repository struct {
	db     Database
	table  *schema.TableSpec
	stats  *observability.UpdateStats
	logger *slog.Logger
	now    func() time.Time
	derive deriveFunc
}

// Options configure a repository.
type Options struct {
	Stats  *observability.UpdateStats
	Logger *slog.Logger
	Now    func() time.Time
}

func newRepository(d Database, table *schema.TableSpec, opts Options) *Repository {
	r := &Repository{
		db:     d,
		table:  table,
		stats:  opts.Stats,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.logger = r.logger.With("table", table.Name)
	return r
}

// Table returns the table spec the repository writes.
func (r *Repository) Table() *schema.TableSpec {
	return r.table
}

// ParseID converts a path segment or JSON scalar into the identifier
// column's type. A JSON number names the same row as its decimal text.
func (r *Repository) ParseID(raw any) (any, error) {
	id, err := coerce.Coerce(r.table.IdentifierColumn(), raw, true)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidID,
			fmt.Sprintf("Invalid %s: %v", r.table.IdentifierColumn().DisplayName(), raw))
	}
	return id, nil
}

// List returns every row in the table's listing order.
func (r *Repository) List(ctx context.Context) ([]db.Row, error) {
	stmt := patch.ComposeList(r.db.Dialect(), r.table)
	rows, err := r.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to list "+r.table.Name, err)
	}
	out, err := db.ScanRows(rows, r.table)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to list "+r.table.Name, err)
	}
	return out, nil
}

// Get returns one row or a NotFound error.
func (r *Repository) Get(ctx context.Context, id any) (db.Row, error) {
	row, err := r.fetch(ctx, r.db, id)
	if err != nil {
		return db.Row{}, err
	}
	if row == nil {
		return db.Row{}, apperrors.NewNotFoundError(string(r.table.Entity))
	}
	return *row, nil
}

// Exists reports whether a row with id exists.
func (r *Repository) Exists(ctx context.Context, id any) (bool, error) {
	return r.exists(ctx, r.db, id)
}

// Distinct lists the distinct non-empty values of a column.
func (r *Repository) Distinct(ctx context.Context, column string) ([]string, error) {
	stmt, err := patch.ComposeDistinct(r.db.Dialect(), r.table, column)
	if err != nil {
		return nil, apperrors.NewInternalError("Invalid column", err)
	}
	rows, err := r.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to list "+column, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, apperrors.NewDatabaseError("Failed to list "+column, err)
		}
		if v.Valid {
			out = append(out, v.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("Failed to list "+column, err)
	}
	return out, nil
}

// Update applies a partial update to the row identified by id and returns
// the row as stored afterwards.
func (r *Repository) Update(ctx context.Context, id any, p *patch.Patch) (*Result, error) {
	var res *Result
	err := r.db.InTx(ctx, func(tx db.Executor) error {
		var err error
		res, err = r.update(ctx, tx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.recordAssignments(res, p)
	r.logger.Debug("row updated", "id", id, "ignored", res.Ignored)
	return res, nil
}

// update runs the update pipeline inside tx.
func (r *Repository) update(ctx context.Context, tx db.Executor, id any, p *patch.Patch) (*Result, error) {
	current, err := r.fetch(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperrors.NewNotFoundError(string(r.table.Entity))
	}

	plan, err := patch.BuildUpdate(r.table, id, p)
	if err != nil {
		return nil, err
	}
	r.recordRejections(plan)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if r.derive != nil {
		if err := r.derive(plan, current); err != nil {
			return nil, err
		}
	}

	if err := r.execUpdate(ctx, tx, plan); err != nil {
		return nil, err
	}
	return r.refetch(ctx, tx, id, plan)
}

// execUpdate composes and runs an already validated update plan.
func (r *Repository) execUpdate(ctx context.Context, tx db.Executor, plan *patch.Plan) error {
	stmt, err := patch.ComposeUpdate(r.db.Dialect(), plan, r.now())
	if err != nil {
		return apperrors.NewInternalError("Failed to compose update", err)
	}
	if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return apperrors.NewDatabaseError("Failed to update "+string(r.table.Entity), err)
	}
	return nil
}

// planInsert builds a create plan and fails on invalid field values.
func (r *Repository) planInsert(p *patch.Patch) (*patch.Plan, error) {
	plan, err := patch.BuildInsert(r.table, p)
	if err != nil {
		return nil, err
	}
	r.recordRejections(plan)
	if invalid := plan.Invalid(); len(invalid) > 0 {
		return nil, plan.Validate()
	}
	return plan, nil
}

// insert runs a create plan inside tx. plan.ID must be set unless the
// database generates the identifier.
func (r *Repository) insert(ctx context.Context, tx db.Executor, plan *patch.Plan) (*Result, error) {
	if r.derive != nil {
		if err := r.derive(plan, nil); err != nil {
			return nil, err
		}
	}

	stmt, err := patch.ComposeInsert(r.db.Dialect(), plan, r.now())
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to compose insert", err)
	}

	if r.table.IDStrategy == schema.IDDatabaseIdentity {
		var id int64
		if err := tx.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&id); err != nil {
			return nil, apperrors.NewDatabaseError("Failed to create "+string(r.table.Entity), err)
		}
		plan.ID = id
	} else if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
		return nil, apperrors.NewDatabaseError("Failed to create "+string(r.table.Entity), err)
	}

	return r.refetch(ctx, tx, plan.ID, plan)
}

// create plans and inserts a row whose identifier is supplied by assignID.
func (r *Repository) create(ctx context.Context, p *patch.Patch, assignID func(ctx context.Context, tx db.Executor, plan *patch.Plan) error) (*Result, error) {
	plan, err := r.planInsert(p)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = r.db.InTx(ctx, func(tx db.Executor) error {
		if assignID != nil {
			if err := assignID(ctx, tx, plan); err != nil {
				return err
			}
		}
		res, err = r.insert(ctx, tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.recordAssignments(res, p)
	r.logger.Info("row created", "id", res.ID)
	return res, nil
}

// Delete removes the row identified by id.
func (r *Repository) Delete(ctx context.Context, id any) error {
	return r.db.InTx(ctx, func(tx db.Executor) error {
		found, err := r.exists(ctx, tx, id)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.NewNotFoundError(string(r.table.Entity))
		}
		stmt := patch.ComposeDelete(r.db.Dialect(), r.table, id)
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			return apperrors.NewDatabaseError("Failed to delete "+string(r.table.Entity), err)
		}
		r.logger.Info("row deleted", "id", id)
		return nil
	})
}

func (r *Repository) refetch(ctx context.Context, tx db.Executor, id any, plan *patch.Plan) (*Result, error) {
	row, err := r.fetch(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperrors.NewInternalError("Row vanished after write", fmt.Errorf("%s %v not found after write", r.table.Name, id))
	}
	return &Result{ID: id, Row: *row, Ignored: plan.Ignored()}, nil
}

func (r *Repository) recordRejections(plan *patch.Plan) {
	if r.stats == nil {
		return
	}
	for _, rej := range plan.Rejected {
		r.stats.RecordRejection(r.table.Name, rej.Field, string(rej.Err.Reason))
	}
}

// recordAssignments counts the client-sent columns that were written.
func (r *Repository) recordAssignments(res *Result, p *patch.Patch) {
	if r.stats == nil {
		return
	}
	ignored := make(map[string]bool, len(res.Ignored))
	for _, f := range res.Ignored {
		ignored[f] = true
	}
	for _, k := range p.Keys() {
		if k == r.table.Identifier || ignored[k] {
			continue
		}
		r.stats.RecordAssignment(r.table.Name, k)
	}
}

func (r *Repository) fetch(ctx context.Context, ex db.Executor, id any) (*db.Row, error) {
	table := r.table
	stmt := patch.ComposeSelect(r.db.Dialect(), table, id)
	rows, err := ex.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to read "+string(table.Entity), err)
	}
	out, err := db.ScanRows(rows, table)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to read "+string(table.Entity), err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

func (r *Repository) exists(ctx context.Context, ex db.Executor, id any) (bool, error) {
	table := r.table
	stmt := patch.ComposeExists(r.db.Dialect(), table, id)
	var one int
	err := ex.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewDatabaseError("Failed to read "+string(table.Entity), err)
	}
	return true, nil
}
