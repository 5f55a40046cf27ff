package interfaces

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/models"
)

type APIKeyRepository interface {
	// GetByService returns nil without error when no row exists for service.
	GetByService(ctx context.Context, service string) (*models.APIKey, error)
	Upsert(ctx context.Context, key *models.APIKey) error
}
