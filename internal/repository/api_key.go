package repository

import (
	"context"
	"database/sql"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type apiKeyRepository struct {
	db bun.IDB
}

func NewAPIKeyRepository(db bun.IDB) interfaces.APIKeyRepository {
	return &apiKeyRepository{db: db}
}

// GetByService returns the credential row for a service, or nil without
// error when the service is not configured. The credential value is kept
// off the span on purpose.
func (r *apiKeyRepository) GetByService(ctx context.Context, service string) (*models.APIKey, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "apiKeyRepository.GetByService")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("service", service)

	var key models.APIKey
	err := r.db.NewSelect().
		Model(&key).
		Where("service = ?", service).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &key, nil
}

func (r *apiKeyRepository) Upsert(ctx context.Context, key *models.APIKey) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "apiKeyRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if key == nil {
		err := errors.New("key cannot be nil")
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag("service", key.Service)

	_, err := r.db.NewInsert().
		Model(key).
		On("CONFLICT (service) DO UPDATE").
		Set("api_key = EXCLUDED.api_key").
		Set("api_endpoint = EXCLUDED.api_endpoint").
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
