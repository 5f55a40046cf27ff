package interfaces

import (
	"context"
	"time"

	"github.com/opsdesk/opsdesk/internal/models"
)

type TicketRepository interface {
	// Create inserts the ticket and returns its store-assigned id.
	Create(ctx context.Context, ticket *models.Ticket) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	// ListByRecentActivity returns all tickets ordered by updated_at descending.
	ListByRecentActivity(ctx context.Context) ([]*models.Ticket, error)
	// ListOpenWithoutSummary returns open tickets that have no AI summary yet.
	ListOpenWithoutSummary(ctx context.Context, limit int) ([]*models.Ticket, error)
	// UpdateSubject rewrites the subject; used once per ticket to embed the
	// correlation token after the id is known.
	UpdateSubject(ctx context.Context, id int64, subject string) error
	SetSummary(ctx context.Context, id int64, summary string) error
	// Touch bumps updated_at to mark fresh activity on the ticket.
	Touch(ctx context.Context, id int64, at time.Time) error
}

type TicketReplyRepository interface {
	Create(ctx context.Context, reply *models.TicketReply) (int64, error)
	// ListByTicket returns replies ordered by their own created_at, which for
	// ingested mail is the message timestamp rather than arrival time.
	ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketReply, error)
}
