package repository

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type noteRepository struct {
	db bun.IDB
}

func NewNoteRepository(db bun.IDB) interfaces.NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) CreateCompanyNote(ctx context.Context, note *models.CompanyNote) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "noteRepository.CreateCompanyNote")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if note == nil {
		err := errors.New("note cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NewInsert().
		Model(note).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return note.ID, nil
}

func (r *noteRepository) CreateUserNote(ctx context.Context, note *models.UserNote) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "noteRepository.CreateUserNote")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if note == nil {
		err := errors.New("note cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NewInsert().
		Model(note).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return note.ID, nil
}

func (r *noteRepository) ListByCompany(ctx context.Context, companyID int64) ([]*models.CompanyNote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "noteRepository.ListByCompany")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var notes []*models.CompanyNote
	err := r.db.NewSelect().
		Model(&notes).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return notes, nil
}

func (r *noteRepository) ListByUser(ctx context.Context, userID int64) ([]*models.UserNote, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "noteRepository.ListByUser")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var notes []*models.UserNote
	err := r.db.NewSelect().
		Model(&notes).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return notes, nil
}
