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

type companyRepository struct {
	db bun.IDB
}

func NewCompanyRepository(db bun.IDB) interfaces.CompanyRepository {
	return &companyRepository{db: db}
}

// GetByName looks up a company by its unique name. Returns nil without
// error when no row exists so callers can distinguish absence from failure.
func (r *companyRepository) GetByName(ctx context.Context, name string) (*models.Company, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "companyRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("company_name", name)

	var company models.Company
	err := r.db.NewSelect().
		Model(&company).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &company, nil
}

func (r *companyRepository) Create(ctx context.Context, company *models.Company) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "companyRepository.Create")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if company == nil {
		err := errors.New("company cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}

	_, err := r.db.NewInsert().
		Model(company).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return company.ID, nil
}
