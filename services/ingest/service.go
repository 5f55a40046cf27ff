package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/internal/tracing"
	"github.com/opsdesk/opsdesk/internal/utils"
)

// DefaultPageSize bounds how many unseen messages one run fetches, keeping
// each scheduled invocation short. The rest is picked up on the next fire.
const DefaultPageSize = 10

var ticketTokenRe = regexp.MustCompile(`\[Ticket #(\d+)\]`)

// ParseTicketToken extracts the correlation token from a subject line.
// Returns the referenced ticket id and whether a token was present.
func ParseTicketToken(subject string) (int64, bool) {
	match := ticketTokenRe.FindStringSubmatch(subject)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FormatTicketToken renders the correlation token embedded into a new
// ticket's subject.
func FormatTicketToken(id int64) string {
	return fmt.Sprintf("[Ticket #%d]", id)
}

// Service converts inbound mailbox messages into tickets and replies.
type Service struct {
	repos      *repository.Repositories
	log        logger.Logger
	newMailbox func() interfaces.MailboxClient
	pageSize   int
}

type Options struct {
	// NewMailbox builds the mailbox client used for one run.
	NewMailbox func() interfaces.MailboxClient
	// PageSize bounds messages per run. Zero means DefaultPageSize.
	PageSize int
}

func NewService(repos *repository.Repositories, log logger.Logger, opts Options) *Service {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		repos:      repos,
		log:        log,
		newMailbox: opts.NewMailbox,
		pageSize:   pageSize,
	}
}

// Run connects to the configured mailbox, fetches one page of unseen
// messages and processes each in its own transaction. A connectivity
// failure aborts the run; the next scheduled fire is the retry. A missing
// sentinel company is fatal for the run. Any other per-message error is
// logged and skipped.
func (s *Service) Run(ctx context.Context) error {
	span, ctx := tracing.StartTracerSpan(ctx, "ingest.Run")
	defer span.Finish()
	tracing.TagComponentService(span)

	server, username, password, err := s.mailboxCredentials(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	mailbox := s.newMailbox()
	if err := mailbox.Login(ctx, server, username, password); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "mailbox login failed")
	}
	defer mailbox.Close()

	messages, err := mailbox.FetchUnseen(ctx, s.pageSize)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "mailbox fetch failed")
	}
	if len(messages) == 0 {
		s.log.Info("No unread messages found")
		return nil
	}

	processed := 0
	for _, msg := range messages {
		if err := s.ProcessMessage(ctx, msg); err != nil {
			if errors.Is(err, opsdesk_errors.ErrMissingSeedData) {
				tracing.TraceErr(span, err)
				return err
			}
			s.log.Errorf("Failed to process message from %s (%q): %v", msg.From, msg.Subject, err)
			continue
		}
		processed++
	}

	span.SetTag("processed", processed)
	s.log.Infof("Mail run complete: %d/%d message(s) processed", processed, len(messages))
	return nil
}

// mailboxCredentials reads the imap api_keys row; its api_key field packs
// "user:password" and the endpoint holds the server address.
func (s *Service) mailboxCredentials(ctx context.Context) (server, username, password string, err error) {
	key, err := s.repos.APIKeyRepository.GetByService(ctx, models.ServiceIMAP)
	if err != nil {
		return "", "", "", err
	}
	if key == nil {
		return "", "", "", errors.Wrap(opsdesk_errors.ErrCredentialsNotFound, models.ServiceIMAP)
	}

	parts := strings.SplitN(key.APIKey, ":", 2)
	if len(parts) != 2 {
		return "", "", "", errors.Errorf("malformed imap credentials for %s", key.APIEndpoint)
	}
	return key.APIEndpoint, parts[0], parts[1], nil
}

// ProcessMessage runs the per-message state machine in one transaction:
// sender resolution, then either a reply append (subject carries a
// correlation token) or ticket creation with the two-step subject rewrite.
func (s *Service) ProcessMessage(ctx context.Context, msg *interfaces.MailMessage) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ingest.ProcessMessage")
	defer span.Finish()
	tracing.TagComponentService(span)

	err := s.repos.InTx(ctx, func(ctx context.Context, tx *repository.Repositories) error {
		user, created, err := s.resolveSender(ctx, tx, utils.NormalizeEmailAddress(msg.From))
		if err != nil {
			return err
		}
		if created {
			s.log.Infof("Created new user %q in %q company", msg.From, models.SentinelCompanyName)
		}

		if ticketID, ok := ParseTicketToken(msg.Subject); ok {
			return s.appendReply(ctx, tx, ticketID, user, msg)
		}
		return s.createTicket(ctx, tx, user, msg)
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// resolveSender maps the sender address to a user, creating one in the
// sentinel company when unknown. The sentinel's absence means the seed
// data is gone and ingestion cannot proceed.
func (s *Service) resolveSender(ctx context.Context, tx *repository.Repositories, address string) (*models.User, bool, error) {
	user, err := tx.UserRepository.GetByEmail(ctx, address)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	sentinel, err := tx.CompanyRepository.GetByName(ctx, models.SentinelCompanyName)
	if err != nil {
		return nil, false, err
	}
	if sentinel == nil {
		return nil, false, errors.Wrapf(opsdesk_errors.ErrMissingSeedData,
			"%q company not found", models.SentinelCompanyName)
	}

	user, err = tx.UserRepository.GetOrCreateByEmail(ctx, address, sentinel.ID)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *Service) appendReply(ctx context.Context, tx *repository.Repositories, ticketID int64, user *models.User, msg *interfaces.MailMessage) error {
	reply := &models.TicketReply{
		TicketID: ticketID,
		AuthorID: &user.ID,
		Content:  messageContent(msg),
		// The message's own timestamp, not ingestion time: replies recovered
		// from a backlog keep their original order.
		CreatedAt: messageTime(msg),
	}
	if _, err := tx.TicketReplyRepository.Create(ctx, reply); err != nil {
		return err
	}
	// updated_at reflects when we saw the message, not when it was sent,
	// so backlogged replies still float the ticket up the activity list.
	if err := tx.TicketRepository.Touch(ctx, ticketID, time.Now().UTC()); err != nil {
		return err
	}

	s.log.Infof("Added reply to ticket #%d from %s", ticketID, user.Email)
	return nil
}

func (s *Service) createTicket(ctx context.Context, tx *repository.Repositories, user *models.User, msg *interfaces.MailMessage) error {
	now := time.Now().UTC()
	ticket := &models.Ticket{
		Subject:   msg.Subject,
		CreatedAt: now,
		UpdatedAt: now,
		CompanyID: user.CompanyID,
		UserID:    user.ID,
	}
	ticketID, err := tx.TicketRepository.Create(ctx, ticket)
	if err != nil {
		return err
	}

	reply := &models.TicketReply{
		TicketID:  ticketID,
		AuthorID:  &user.ID,
		Content:   messageContent(msg),
		CreatedAt: messageTime(msg),
	}
	if _, err := tx.TicketReplyRepository.Create(ctx, reply); err != nil {
		return err
	}

	// The id is store-assigned, so the correlation token can only be
	// embedded after the insert.
	subject := FormatTicketToken(ticketID) + " " + msg.Subject
	if err := tx.TicketRepository.UpdateSubject(ctx, ticketID, subject); err != nil {
		return err
	}

	s.log.Infof("Created ticket #%d for %s", ticketID, user.Email)
	return nil
}

// messageContent prefers the plain text part; an HTML-only message is
// rendered to text.
func messageContent(msg *interfaces.MailMessage) string {
	if msg.Text != "" {
		return msg.Text
	}
	rendered, err := html2text.FromString(msg.HTML)
	if err != nil {
		return msg.HTML
	}
	return rendered
}

func messageTime(msg *interfaces.MailMessage) time.Time {
	if msg.Date.IsZero() {
		return time.Now().UTC()
	}
	return msg.Date
}
