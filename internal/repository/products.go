package repository

import (
	"context"

	"github.com/bakeryops/bakery-maint/internal/db"
	apperrors "github.com/bakeryops/bakery-maint/internal/errors"
	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Products is the Products_Master repository. Product identifiers are
// chosen by the client.
type Products struct {
	*Repository
}

// NewProducts creates the product repository.
func NewProducts(d Database, opts Options) *Products {
	return &Products{Repository: newRepository(d, schema.Products(), opts)}
}

// Create inserts a product, rejecting an identifier already in use.
func (p *Products) Create(ctx context.Context, body *patch.Patch) (*Result, error) {
	return p.create(ctx, body, func(ctx context.Context, tx db.Executor, plan *patch.Plan) error {
		found, err := p.exists(ctx, tx, plan.ID)
		if err != nil {
			return err
		}
		if found {
			return apperrors.New(apperrors.ErrCategoryValidation, apperrors.CodeDuplicateID, "Product ID already exists")
		}
		return nil
	})
}

// Families lists the distinct product families in use.
func (p *Products) Families(ctx context.Context) ([]string, error) {
	return p.Distinct(ctx, "Product_Family")
}
