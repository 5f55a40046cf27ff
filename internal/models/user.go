package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/internal/enum"
)

// PlaceholderPasswordHash is stored for users created from inbound mail.
// It is not a valid hash in any scheme, so login through this path can
// never succeed.
const PlaceholderPasswordHash = "<no-password-set>"

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64         `bun:"id,pk,autoincrement" json:"id"`
	Username     string        `bun:"username,notnull" json:"username"`
	Email        string        `bun:"email,notnull,unique" json:"email"`
	CompanyID    int64         `bun:"company_id,notnull" json:"companyId"`
	Role         enum.UserRole `bun:"role,notnull" json:"role"`
	PasswordHash string        `bun:"password_hash,notnull" json:"-"`

	Company *Company `bun:"rel:belongs-to,join:company_id=id" json:"-"`
}

type UserNote struct {
	bun.BaseModel `bun:"table:user_notes,alias:un"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"userId"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}
