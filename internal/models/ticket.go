package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/opsdesk/opsdesk/internal/enum"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID         int64               `bun:"id,pk,autoincrement" json:"id"`
	Subject    string              `bun:"subject,notnull" json:"subject"`
	Status     enum.TicketStatus   `bun:"status,notnull,default:'Open'" json:"status"`
	Priority   enum.TicketPriority `bun:"priority,notnull,default:'Low'" json:"priority"`
	CreatedAt  time.Time           `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt  time.Time           `bun:"updated_at,notnull" json:"updatedAt"`
	CompanyID  int64               `bun:"company_id,notnull" json:"companyId"`
	UserID     int64               `bun:"user_id,notnull" json:"userId"`
	AssigneeID *int64              `bun:"assignee_id" json:"assigneeId,omitempty"`
	Summary    *string             `bun:"summary" json:"summary,omitempty"`

	Company *Company `bun:"rel:belongs-to,join:company_id=id" json:"-"`
	User    *User    `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}

type TicketReply struct {
	bun.BaseModel `bun:"table:ticket_replies,alias:tr"`

	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	TicketID       int64     `bun:"ticket_id,notnull" json:"ticketId"`
	AuthorID       *int64    `bun:"author_id" json:"authorId,omitempty"`
	Content        string    `bun:"content,notnull" json:"content"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
	IsInternalNote bool      `bun:"is_internal_note,notnull,default:false" json:"isInternalNote"`

	Ticket *Ticket `bun:"rel:belongs-to,join:ticket_id=id" json:"-"`
}
