package repository

import (
	"context"
	"database/sql"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/enum"
	"github.com/opsdesk/opsdesk/internal/models"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

type userRepository struct {
	db bun.IDB
}

func NewUserRepository(db bun.IDB) interfaces.UserRepository {
	return &userRepository{db: db}
}

// GetByEmail looks up a user by address. Returns nil without error when no
// row exists.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.GetByEmail")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	var user models.User
	err := r.db.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)
	span.SetTag("user_id", id)

	var user models.User
	err := r.db.NewSelect().
		Model(&user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.Create")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if user == nil {
		err := errors.New("user cannot be nil")
		tracing.TraceErr(span, err)
		return 0, err
	}
	if user.PasswordHash == "" {
		user.PasswordHash = models.PlaceholderPasswordHash
	}

	_, err := r.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	return user.ID, nil
}

// GetOrCreateByEmail resolves an address to a user, creating a Client user
// in the given company when absent. The insert uses on-conflict-do-nothing
// followed by a re-select, so two concurrent resolutions of the same
// address converge on a single row.
func (r *userRepository) GetOrCreateByEmail(ctx context.Context, email string, companyID int64) (*models.User, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userRepository.GetOrCreateByEmail")
	defer span.Finish()
	tracing.TagComponentSqliteRepository(span)

	if email == "" {
		err := errors.New("email cannot be empty")
		tracing.TraceErr(span, err)
		return nil, err
	}

	user := models.User{
		Username:  email,
		Email:     email,
		CompanyID: companyID,
		Role:      enum.UserRoleClient,
		// Unusable on purpose: users created from inbound mail must never
		// be able to authenticate.
		PasswordHash: models.PlaceholderPasswordHash,
	}
	_, err := r.db.NewInsert().
		Model(&user).
		On("CONFLICT (email) DO NOTHING").
		Exec(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	// Re-read to obtain the row whether we created it or lost the race.
	var resolved models.User
	err = r.db.NewSelect().
		Model(&resolved).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return &resolved, nil
}
