package interfaces

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/models"
)

type UserRepository interface {
	// GetByEmail returns nil without error when no user exists.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) (int64, error)
	// GetOrCreateByEmail resolves email to a user, creating a Client user in
	// the given company when absent. Insert-on-conflict plus re-select, so two
	// concurrent resolutions of the same address yield one row.
	GetOrCreateByEmail(ctx context.Context, email string, companyID int64) (*models.User, error)
}

type CompanyRepository interface {
	// GetByName returns nil without error when no company exists.
	GetByName(ctx context.Context, name string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) (int64, error)
}
