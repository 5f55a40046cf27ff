package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type ticketReplyRepository struct {
	db bun.IDB
}

func NewTicketReplyRepository(db bun.IDB) interfaces.TicketReplyRepository {
	return &ticketReplyRepository{db: db}
}

func (r *ticketReplyRepository) Create(ctx context.Context, reply *models.TicketReply) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketReplyRepository.Create")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if reply == nil {
		err := errors.New("reply cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}
	span.SetTag(tracing.SpanTagTicketId, reply.TicketID)

	_, err := r.db.NewInsert().
		Model(reply).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return reply.ID, nil
}

// ListByTicket returns replies in created_at order. For ingested mail the
// created_at is the message's own timestamp, so recovered backlogs read in
// chronological order rather than arrival order.
func (r *ticketReplyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketReply, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ticketReplyRepository.ListByTicket")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag(tracing.SpanTagTicketId, ticketID)

	var replies []*models.TicketReply
	err := r.db.NewSelect().
		Model(&replies).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return replies, nil
}
