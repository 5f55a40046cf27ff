package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

// DefaultBatchSize bounds how many tickets one run summarizes so a single
// fire stays well inside the job timeout even on a slow model.
const DefaultBatchSize = 5

// Service fills in missing summaries on open tickets using the configured
// language model. Tickets that already carry a summary are never touched.
type Service struct {
	repos     *repository.Repositories
	ai        interfaces.AIService
	log       logger.Logger
	batchSize int
}

func NewService(repos *repository.Repositories, ai interfaces.AIService, log logger.Logger) *Service {
	return &Service{
		repos:     repos,
		ai:        ai,
		log:       log,
		batchSize: DefaultBatchSize,
	}
}

// Run summarizes one batch of open tickets without a summary. A model
// failure on one ticket is logged and skipped; the ticket stays eligible
// for the next run.
func (s *Service) Run(ctx context.Context) error {
	span, ctx := tracing.StartTracerSpan(ctx, "summarizer.Run")
	defer span.Finish()
	tracing.TagComponentService(span)

	tickets, err := s.repos.TicketRepository.ListOpenWithoutSummary(ctx, s.batchSize)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if len(tickets) == 0 {
		s.log.Info("No tickets need summarizing")
		return nil
	}

	for _, ticket := range tickets {
		if err := s.summarizeTicket(ctx, ticket.ID, ticket.Subject); err != nil {
			s.log.Errorf("Failed to summarize ticket %d: %v", ticket.ID, err)
			continue
		}
		s.log.Infof("Summarized ticket %d", ticket.ID)
	}
	return nil
}

func (s *Service) summarizeTicket(ctx context.Context, ticketID int64, subject string) error {
	replies, err := s.repos.TicketReplyRepository.ListByTicket(ctx, ticketID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n\n", subject)
	for _, reply := range replies {
		fmt.Fprintf(&b, "%s\n\n", reply.Content)
	}

	summary, err := s.ai.Summarize(ctx, b.String())
	if err != nil {
		return err
	}

	return s.repos.TicketRepository.SetSummary(ctx, ticketID, summary)
}
