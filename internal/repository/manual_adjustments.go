package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/bakeryops/bakery-maint/internal/coerce"
	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// ManualAdjustments is the Manual_Adjustments repository. Rows are
// addressed by their store and product pair.
type ManualAdjustments struct {
	*Repository

	// upsertMu keeps two first writes of the same pair from both inserting.
	upsertMu sync.Mutex
}

// NewManualAdjustments creates the manual adjustment repository.
func NewManualAdjustments(d Database, opts Options) *ManualAdjustments {
	m := &ManualAdjustments{Repository: newRepository(d, schema.ManualAdjustments(), opts)}
	m.derive = weekTotal
	return m
}

// Active lists the rows with at least one non-zero day, ordered by store
// and product name.
func (m *ManualAdjustments) Active(ctx context.Context) ([]db.Row, error) {
	rows, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, row := range rows {
		for _, day := range schema.DaysOfWeek {
			if v, _ := row.Get(day); v != nil && v != int64(0) {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

// Upsert applies p to the row of the store and product pair, creating the
// row on first use. created reports whether a row was inserted.
func (m *ManualAdjustments) Upsert(ctx context.Context, storeID, productID any, p *patch.Patch) (res *Result, created bool, err error) {
	sid, err := m.parseKey("Store_ID", storeID)
	if err != nil {
		return nil, false, err
	}
	pid, err := m.parseKey("Product_ID", productID)
	if err != nil {
		return nil, false, err
	}

	m.upsertMu.Lock()
	defer m.upsertMu.Unlock()

	err = m.db.InTx(ctx, func(tx db.Executor) error {
		id, found, err := m.lookup(ctx, tx, sid, pid)
		if err != nil {
			return err
		}
		if found {
			p.Delete("Store_ID")
			p.Delete("Product_ID")
			res, err = m.update(ctx, tx, id, p)
			return err
		}

		p.Set("Store_ID", sid)
		p.Set("Product_ID", pid)
		plan, err := m.planInsert(p)
		if err != nil {
			return err
		}
		res, err = m.insert(ctx, tx, plan)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}

	m.recordAssignments(res, p)
	m.logger.Debug("manual adjustment written", "store_id", sid, "product_id", pid, "created", created)
	return res, created, nil
}

func (m *ManualAdjustments) parseKey(column string, raw any) (any, error) {
	c, _ := m.table.Column(column)
	v, err := coerce.Coerce(c, raw, true)
	if err != nil {
		return nil, apperrors.NewValidationError(apperrors.CodeInvalidID,
			fmt.Sprintf("Invalid %s: %v", c.DisplayName(), raw))
	}
	return v, nil
}

func (m *ManualAdjustments) lookup(ctx context.Context, tx db.Executor, storeID, productID any) (int64, bool, error) {
	stmt, err := patch.ComposeLookup(m.db.Dialect(), m.table, []patch.Assignment{
		{Column: "Store_ID", Value: storeID},
		{Column: "Product_ID", Value: productID},
	})
	if err != nil {
		return 0, false, apperrors.NewInternalError("Failed to compose lookup", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, stmt.SQL, stmt.Args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.NewDatabaseError("Failed to read "+string(m.table.Entity), err)
	}
	return id, true, nil
}
