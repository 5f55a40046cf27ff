package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type ticketRepository struct {
	db bun.IDB
}

func NewTicketRepository(db bun.IDB) interfaces.TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.Create")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if ticket == nil {
		err := errors.New("ticket cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}
	if ticket.Status == "" {
		ticket.Status = enum.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = enum.TicketPriorityLow
	}

	_, err := r.db.NewInsert().
		Model(ticket).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	span.SetTag(tracing.SpanTagTicketId, ticket.ID)
	return ticket.ID, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag(tracing.SpanTagTicketId, id)

	var ticket models.Ticket
	err := r.db.NewSelect().
		Model(&ticket).
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, opsdesk_errors.ErrTicketNotFound
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &ticket, nil
}

func (r *ticketRepository) ListByRecentActivity(ctx context.Context) ([]*models.Ticket, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.ListByRecentActivity")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var tickets []*models.Ticket
	err := r.db.NewSelect().
		Model(&tickets).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return tickets, nil
}

func (r *ticketRepository) ListOpenWithoutSummary(ctx context.Context, limit int) ([]*models.Ticket, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.ListOpenWithoutSummary")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("limit", limit)

	var tickets []*models.Ticket
	err := r.db.NewSelect().
		Model(&tickets).
		Where("status = ?", enum.TicketStatusOpen).
		Where("summary IS NULL OR summary = ''").
		Order("updated_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return tickets, nil
}

func (r *ticketRepository) UpdateSubject(ctx context.Context, id int64, subject string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.UpdateSubject")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag(tracing.SpanTagTicketId, id)

	_, err := r.db.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("subject = ?", subject).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (r *ticketRepository) SetSummary(ctx context.Context, id int64, summary string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.SetSummary")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag(tracing.SpanTagTicketId, id)

	_, err := r.db.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("summary = ?", summary).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}

func (r *ticketRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketRepository.Touch")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag(tracing.SpanTagTicketId, id)

	_, err := r.db.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
