package summarizer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/internal/store"
)

type fakeAI struct {
	summaries []string
	err       error
	prompts   []string
}

func (f *fakeAI) Summarize(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompts = append(f.prompts, text)
	return "summary: " + text[:min(20, len(text))], nil
}

func (f *fakeAI) Sanitize(ctx context.Context, text string) (string, error) {
	return text, nil
}

func (f *fakeAI) ChatWithContext(ctx context.Context, contextText, question string) (string, error) {
	return "", nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error", DevMode: true})
	l.InitLogger()
	return l
}

func newFixture(t *testing.T) *repository.Repositories {
	t.Helper()
	ctx := context.Background()

	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "tickets.db"), "test-key")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.MigrateDB(ctx, db))

	return repository.InitRepositories(db)
}

func seedTicket(t *testing.T, repos *repository.Repositories, subject, body string) int64 {
	t.Helper()
	ctx := context.Background()

	companyID, err := repos.CompanyRepository.Create(ctx, &models.Company{Name: models.SentinelCompanyName})
	if err != nil {
		// Company may already exist from an earlier seed in the same fixture.
		existing, gerr := repos.CompanyRepository.GetByName(ctx, models.SentinelCompanyName)
		require.NoError(t, gerr)
		require.NotNil(t, existing)
		companyID = existing.ID
	}

	user, err := repos.UserRepository.GetOrCreateByEmail(ctx, "alice@example.com", companyID)
	require.NoError(t, err)

	now := time.Now().UTC()
	ticketID, err := repos.TicketRepository.Create(ctx, &models.Ticket{
		Subject:   subject,
		CreatedAt: now,
		UpdatedAt: now,
		CompanyID: companyID,
		UserID:    user.ID,
	})
	require.NoError(t, err)

	_, err = repos.TicketReplyRepository.Create(ctx, &models.TicketReply{
		TicketID:  ticketID,
		AuthorID:  &user.ID,
		Content:   body,
		CreatedAt: now,
	})
	require.NoError(t, err)
	return ticketID
}

func TestRun_FillsMissingSummaries(t *testing.T) {
	ctx := context.Background()
	repos := newFixture(t)
	ai := &fakeAI{}

	ticketID := seedTicket(t, repos, "Printer on fire", "It is actually on fire.")

	require.NoError(t, NewService(repos, ai, testLogger()).Run(ctx))

	ticket, err := repos.TicketRepository.GetByID(ctx, ticketID)
	require.NoError(t, err)
	require.NotNil(t, ticket.Summary)
	assert.Contains(t, *ticket.Summary, "summary:")

	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Printer on fire")
	assert.Contains(t, ai.prompts[0], "It is actually on fire.")
}

func TestRun_SkipsSummarizedTickets(t *testing.T) {
	ctx := context.Background()
	repos := newFixture(t)
	ai := &fakeAI{}

	ticketID := seedTicket(t, repos, "Printer on fire", "body")
	require.NoError(t, repos.TicketRepository.SetSummary(ctx, ticketID, "already done"))

	require.NoError(t, NewService(repos, ai, testLogger()).Run(ctx))
	assert.Empty(t, ai.prompts)

	ticket, err := repos.TicketRepository.GetByID(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "already done", *ticket.Summary)
}

func TestRun_ModelFailureLeavesTicketEligible(t *testing.T) {
	ctx := context.Background()
	repos := newFixture(t)
	ai := &fakeAI{err: errors.New("model unavailable")}

	ticketID := seedTicket(t, repos, "Printer on fire", "body")

	require.NoError(t, NewService(repos, ai, testLogger()).Run(ctx))

	ticket, err := repos.TicketRepository.GetByID(ctx, ticketID)
	require.NoError(t, err)
	assert.Nil(t, ticket.Summary)
}
