package interfaces

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/models"
)

type NoteRepository interface {
	CreateCompanyNote(ctx context.Context, note *models.CompanyNote) (int64, error)
	CreateUserNote(ctx context.Context, note *models.UserNote) (int64, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*models.CompanyNote, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.UserNote, error)
}
