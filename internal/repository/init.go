package repository

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/models"
)

type Repositories struct {
	db bun.IDB

	CompanyRepository      interfaces.CompanyRepository
	UserRepository         interfaces.UserRepository
	TicketRepository       interfaces.TicketRepository
	TicketReplyRepository  interfaces.TicketReplyRepository
	SchedulerJobRepository interfaces.SchedulerJobRepository
	APIKeyRepository       interfaces.APIKeyRepository
	NoteRepository         interfaces.NoteRepository
}

func InitRepositories(db bun.IDB) *Repositories {
	return &Repositories{
		db:                     db,
		CompanyRepository:      NewCompanyRepository(db),
		UserRepository:         NewUserRepository(db),
		TicketRepository:       NewTicketRepository(db),
		TicketReplyRepository:  NewTicketReplyRepository(db),
		SchedulerJobRepository: NewSchedulerJobRepository(db),
		APIKeyRepository:       NewAPIKeyRepository(db),
		NoteRepository:         NewNoteRepository(db),
	}
}

// InTx runs fn against a transaction-scoped copy of the repositories. All
// statements issued through the copy either commit together or roll back
// together.
func (r *Repositories) InTx(ctx context.Context, fn func(ctx context.Context, txRepos *Repositories) error) error {
	db, ok := r.db.(*bun.DB)
	if !ok {
		// Already inside a transaction; reuse it.
		return fn(ctx, r)
	}
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, InitRepositories(tx))
	})
}

// MigrateDB creates the schema. Foreign keys are declared so the store
// enforces referential integrity on every keyed connection.
func MigrateDB(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Company)(nil),
		(*models.User)(nil),
		(*models.Ticket)(nil),
		(*models.TicketReply)(nil),
		(*models.CompanyNote)(nil),
		(*models.UserNote)(nil),
		(*models.APIKey)(nil),
		(*models.SchedulerJob)(nil),
	}

	for _, table := range tables {
		_, err := db.NewCreateTable().
			Model(table).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}
