package models

import "github.com/uptrace/bun"

// Known service names in the api_keys table.
const (
	ServiceIMAP   = "imap"
	ServiceOllama = "ollama"
)

// APIKey is a keyed credential blob for an external collaborator.
// For the imap service the APIKey field packs "user:password" and
// APIEndpoint holds the server address.
type APIKey struct {
	bun.BaseModel `bun:"table:api_keys,alias:ak"`

	Service     string `bun:"service,pk" json:"service"`
	APIKey      string `bun:"api_key" json:"-"`
	APIEndpoint string `bun:"api_endpoint" json:"apiEndpoint"`
}
