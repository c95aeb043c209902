package service

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/model"
	"github.com/unclebandit/hubmailer/internal/repository"
)

const inReplyToHeader = "In-Reply-To"

// InReplyToID is the exact header value the correlator searches for: the
// deterministic Message-ID of the outbound message, in angle brackets.
func InReplyToID(recipientID int, domain string) string {
	return fmt.Sprintf("<%s>", MessageID(recipientID, domain))
}

// MailboxSession is one authenticated IMAP session with INBOX selected.
type MailboxSession interface {
	SearchHeader(name, value string) ([]uint32, error)
	Logout() error
}

// MailboxDialer opens mailbox sessions; swapped out in tests.
type MailboxDialer interface {
	Dial(server string, port int, login, password string) (MailboxSession, error)
}

type imapDialer struct{}

// NewIMAPDialer returns a dialer that opens implicit-TLS IMAP sessions.
func NewIMAPDialer() MailboxDialer {
	return imapDialer{}
}

func (imapDialer) Dial(server string, port int, login, password string) (MailboxSession, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", server, port), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to imap server %s: %w", server, err)
	}
	if err := c.Login(login, password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to login to imap server %s: %w", server, err)
	}
	if _, err := c.Select("INBOX", true); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}
	return &imapSession{c: c}, nil
}

type imapSession struct {
	c *client.Client
}

func (s *imapSession) SearchHeader(name, value string) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add(name, value)
	return s.c.Search(criteria)
}

func (s *imapSession) Logout() error {
	return s.c.Logout()
}

// Correlator sweeps each hub's mailbox for replies to tracked recipients.
// One synchronous pass per invocation: hubs one after another, recipients
// one search after another. A failed hub or a failed search never aborts
// the rest of the sweep.
type Correlator struct {
	Hubs    repository.HubRepositoryInterface
	Emails  repository.EmailRepositoryInterface
	Tracker *StatusTracker
	Dialer  MailboxDialer
	Domain  string
	Logger  *zap.Logger
}

// Sweep runs one full pass over all hubs.
func (c *Correlator) Sweep(ctx context.Context) error {
	hubs, err := c.Hubs.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hubs: %w", err)
	}

	for i := range hubs {
		c.Logger.Info("checking hub", zap.Int("hub_id", hubs[i].ID), zap.String("name", hubs[i].Name))
		c.sweepHub(ctx, &hubs[i])
	}
	return nil
}

func (c *Correlator) sweepHub(ctx context.Context, hub *model.Hub) {
	recipients, err := c.Emails.GetHubRecipientsNotReplied(ctx, hub.ID)
	if err != nil {
		c.Logger.Error("cannot get recipients for hub", zap.Int("hub_id", hub.ID), zap.Error(err))
		return
	}

	if !hub.HasIMAPConfig() {
		c.Logger.Error("cannot get imap server and port for the hub", zap.Int("hub_id", hub.ID))
		return
	}

	session, err := c.Dialer.Dial(*hub.IMAPServer, *hub.IMAPPort, *hub.Login, *hub.Password)
	if err != nil {
		c.Logger.Error("cannot open imap session", zap.Int("hub_id", hub.ID), zap.Error(err))
		return
	}
	defer func() {
		if err := session.Logout(); err != nil {
			c.Logger.Error("cannot logout from imap server", zap.Int("hub_id", hub.ID), zap.Error(err))
		}
	}()

	for _, recipient := range recipients {
		inReplyTo := InReplyToID(recipient.ID, c.Domain)

		ids, err := session.SearchHeader(inReplyToHeader, inReplyTo)
		if err != nil {
			c.Logger.Error("cannot search for replies",
				zap.Int("recipient_id", recipient.ID),
				zap.Error(err),
			)
			continue
		}

		if len(ids) == 0 {
			c.Logger.Debug("no matching replies",
				zap.Int("email_id", recipient.EmailID),
				zap.String("address", recipient.Address),
			)
			continue
		}

		c.Logger.Info("found reply",
			zap.String("in_reply_to", inReplyTo),
			zap.Uint32s("uids", ids),
		)

		if err := c.Tracker.MarkRecipientReplied(ctx, recipient.EmailID, recipient.ID); err != nil {
			c.Logger.Error("cannot set recipient replied status",
				zap.Int("recipient_id", recipient.ID),
				zap.Error(err),
			)
			continue
		}

		if err := c.Tracker.RecomputeCounter(ctx, recipient.EmailID, model.CounterReplied); err != nil {
			c.Logger.Error("cannot recompute replied counter",
				zap.Int("email_id", recipient.EmailID),
				zap.Error(err),
			)
		}
	}
}
