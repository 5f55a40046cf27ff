package interfaces

import (
	"context"
	"time"
)

// MailMessage is one inbound message as the ingestor sees it: envelope
// fields plus the decoded text and HTML parts.
type MailMessage struct {
	From    string
	Subject string
	Date    time.Time
	Text    string
	HTML    string
}

// MailboxClient is the mailbox protocol boundary. FetchUnseen retrieves up
// to limit unseen messages oldest-first; retrieval marks them seen on the
// server as a side effect, so delivery is at-most-once.
type MailboxClient interface {
	Login(ctx context.Context, server, username, password string) error
	FetchUnseen(ctx context.Context, limit int) ([]*MailMessage, error)
	Close() error
}
