package repository

import (
	"context"

	"github.com/bakeryops/bakery-maint/internal/patch"
	"github.com/bakeryops/bakery-maint/internal/schema"
)

// Profiles is the Adjustment_Profiles repository. Stores pick one profile
// per weekday; see Stores.AssignDayProfile.
type Profiles struct {
	*Repository
}

// NewProfiles creates the adjustment profile repository.
func NewProfiles(d Database, opts Options) *Profiles {
	return &Profiles{Repository: newRepository(d, schema.Profiles(), opts)}
}

// Create inserts a profile.
func (p *Profiles) Create(ctx context.Context, body *patch.Patch) (*Result, error) {
	return p.create(ctx, body, nil)
}

// Names lists the distinct profile names.
func (p *Profiles) Names(ctx context.Context) ([]string, error) {
	return p.Distinct(ctx, "Profile_Name")
}
