package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SentinelCompanyName is the routing bucket that collects tickets from
// senders we have never seen before. It is seeded at init time and its
// absence is a fatal precondition for mail ingestion.
const SentinelCompanyName = "Unknown"

type Company struct {
	bun.BaseModel `bun:"table:companies,alias:c"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

type CompanyNote struct {
	bun.BaseModel `bun:"table:company_notes,alias:cn"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	CompanyID int64     `bun:"company_id,notnull" json:"companyId"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt"`

	Company *Company `bun:"rel:belongs-to,join:company_id=id" json:"-"`
}
