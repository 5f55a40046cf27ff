package imapclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/tracing"
	"github.com/opsdesk/opsdesk/internal/utils"
)

const (
	dialTimeout  = 30 * time.Second
	loginTimeout = 30 * time.Second
	fetchTimeout = 60 * time.Second
)

// Client is the IMAP implementation of the mailbox boundary. Messages are
// fetched without PEEK, so retrieval marks them seen on the server; the
// ingestor relies on that for at-most-once delivery.
type Client struct {
	log logger.Logger
	c   *client.Client
}

func NewClient(log logger.Logger) interfaces.MailboxClient {
	return &Client{log: log}
}

// Login dials the server (TLS on the default port) and authenticates.
// server may carry an explicit port; 993 is assumed otherwise.
func (s *Client) Login(ctx context.Context, server, username, password string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "imapclient.Login")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("server", server)

	serverAddr := server
	if !strings.Contains(serverAddr, ":") {
		serverAddr += ":993"
	}

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	host, _, err := net.SplitHostPort(serverAddr)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "invalid server address %s", serverAddr)
	}

	tlsConfig := &tls.Config{ServerName: host}
	c, err := client.DialWithDialerTLS(dialer, serverAddr, tlsConfig)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}

	c.Timeout = loginTimeout
	if err := c.Login(username, password); err != nil {
		c.Logout()
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "failed to login as %s", username)
	}
	c.Timeout = 0

	s.c = c
	s.log.Infof("Connected to mailbox for %s", username)
	return nil
}

// FetchUnseen retrieves up to limit unseen messages from INBOX,
// oldest-first, with their full bodies. The body fetch is deliberately not
// a PEEK so the server flags each retrieved message as seen.
func (s *Client) FetchUnseen(ctx context.Context, limit int) ([]*interfaces.MailMessage, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "imapclient.FetchUnseen")
	defer span.Finish()
	tracing.TagComponentService(span)
	span.SetTag("limit", limit)

	if s.c == nil {
		err := errors.New("not logged in")
		tracing.TraceErr(span, err)
		return nil, err
	}

	if _, err := s.c.Select("INBOX", false); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to select INBOX")
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := s.c.Search(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to search unseen messages")
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	// Search results come back in mailbox order; bound the page oldest-first
	// so backlogs drain across successive runs.
	if len(seqNums) > limit {
		seqNums = seqNums[:limit]
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seqNums...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, len(seqNums))
	s.c.Timeout = fetchTimeout
	err = s.c.Fetch(seqSet, items, messages)
	s.c.Timeout = 0
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to fetch messages")
	}

	var result []*interfaces.MailMessage
	for msg := range messages {
		parsed, err := parseMessage(msg, section)
		if err != nil {
			s.log.Warnf("Skipping unparseable message: %v", err)
			continue
		}
		result = append(result, parsed)
	}

	span.SetTag("fetched", len(result))
	return result, nil
}

func (s *Client) Close() error {
	if s.c == nil {
		return nil
	}
	s.c.Timeout = 5 * time.Second
	err := s.c.Logout()
	s.c = nil
	return err
}

func parseMessage(msg *imap.Message, section *imap.BodySectionName) (*interfaces.MailMessage, error) {
	if msg == nil || msg.Envelope == nil {
		return nil, errors.New("message has no envelope")
	}

	out := &interfaces.MailMessage{
		Subject: msg.Envelope.Subject,
		Date:    msg.Envelope.Date,
	}
	if len(msg.Envelope.From) > 0 {
		out.From = utils.NormalizeEmailAddress(msg.Envelope.From[0].Address())
	}
	if out.From == "" {
		return nil, errors.New("message has no sender address")
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("message %d has no body section", msg.SeqNum)
	}

	envelope, err := enmime.ReadEnvelope(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse MIME envelope")
	}
	out.Text = envelope.Text
	out.HTML = envelope.HTML

	return out, nil
}
