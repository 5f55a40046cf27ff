package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/models"
)

// SeedOptions carries the external credentials written into api_keys at
// init time. The imap key packs "user:password"; the endpoint holds the
// server address.
type SeedOptions struct {
	IMAPServer     string
	IMAPUser       string
	IMAPPassword   string
	OllamaEndpoint string
}

// SeedDB populates the records the system cannot run without: the sentinel
// routing company, a default admin, the scheduled jobs and the api_keys
// rows. Safe to re-run; existing rows are left alone.
func SeedDB(ctx context.Context, db *bun.DB, opts SeedOptions) error {
	companies := []models.Company{
		{Name: models.SentinelCompanyName},
		{Name: "Default Client"},
	}
	for i := range companies {
		_, err := db.NewInsert().
			Model(&companies[i]).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	admin := models.User{
		Username:     "Admin",
		Email:        "admin@localhost",
		CompanyID:    companies[0].ID,
		Role:         enum.UserRoleAdmin,
		PasswordHash: models.PlaceholderPasswordHash,
	}
	if admin.CompanyID == 0 {
		// Sentinel already existed; resolve its id for the admin row.
		var sentinel models.Company
		err := db.NewSelect().
			Model(&sentinel).
			Where("name = ?", models.SentinelCompanyName).
			Scan(ctx)
		if err != nil {
			return err
		}
		admin.CompanyID = sentinel.ID
	}
	_, err := db.NewInsert().
		Model(&admin).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}

	jobs := []models.SchedulerJob{
		{JobName: "Email Watcher", Command: "watch-mail", IntervalMinutes: 1, Enabled: true},
		{JobName: "Ticket Summarizer", Command: "summarize-tickets", IntervalMinutes: 30, Enabled: false},
	}
	for i := range jobs {
		_, err := db.NewInsert().
			Model(&jobs[i]).
			On("CONFLICT (job_name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	keys := []models.APIKey{
		{Service: models.ServiceIMAP, APIKey: opts.IMAPUser + ":" + opts.IMAPPassword, APIEndpoint: opts.IMAPServer},
		{Service: models.ServiceOllama, APIEndpoint: opts.OllamaEndpoint},
	}
	for i := range keys {
		_, err := db.NewInsert().
			Model(&keys[i]).
			On("CONFLICT (service) DO UPDATE").
			Set("api_key = EXCLUDED.api_key").
			Set("api_endpoint = EXCLUDED.api_endpoint").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}
