// internal/service/mailer.go
package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
)

const (
	placeholderMessage     = "{message}"
	placeholderUnsubscribe = "{unsubscribe_url}"
)

// Sender transmits one campaign message to one recipient. The dispatcher
// depends on this seam so tests can swap the SMTP transport out.
type Sender interface {
	Send(ctx context.Context, hub *model.Hub, email *model.Email, recipient *model.EmailRecipient) error
}

// Mailer builds and transmits one MIME message per recipient over an
// implicit-TLS SMTP connection opened fresh for every send. Connections are
// not pooled: each send is independent and may fail independently.
type Mailer struct {
	Domain string
	Logger *zap.Logger
}

func NewMailer(domain string, logger *zap.Logger) *Mailer {
	return &Mailer{Domain: domain, Logger: logger}
}

// MessageID is the deterministic correlation key embedded in every
// outbound message. It must stay stable across resends of the same
// recipient row: the reply correlator searches inbound In-Reply-To headers
// for exactly this value.
func MessageID(recipientID int, domain string) string {
	return fmt.Sprintf("%d@%s", recipientID, domain)
}

// TrackingPixelURL is the absolute link the tracking collaborator serves.
func TrackingPixelURL(domain string, recipientID int) string {
	return fmt.Sprintf("https://%s/track/%d", domain, recipientID)
}

func trackingPixelTag(domain string, recipientID int) string {
	return fmt.Sprintf(`<img src="%s" width="1" height="1" alt="">`, TrackingPixelURL(domain, recipientID))
}

// RenderBody merges the campaign message into the hub template. The
// template's {unsubscribe_url} placeholder is always substituted; the
// message lands in the {message} placeholder when the template has one,
// otherwise the template is appended after the message.
func RenderBody(hubTemplate, message, unsubscribeURL string) string {
	if hubTemplate == "" {
		return message
	}
	rendered := strings.ReplaceAll(hubTemplate, placeholderUnsubscribe, unsubscribeURL)
	if strings.Contains(rendered, placeholderMessage) {
		return strings.ReplaceAll(rendered, placeholderMessage, message)
	}
	return message + rendered
}

// BuildMessage constructs the outbound MIME message for one recipient:
// rendered body with tracking pixel as HTML and plain text, deterministic
// Message-ID, List-Unsubscribe header, and at most one attachment part.
func BuildMessage(hub *model.Hub, email *model.Email, recipient *model.EmailRecipient, domain string) (*mail.Msg, error) {
	var sender, login, template string
	if hub.Sender != nil {
		sender = *hub.Sender
	}
	if hub.Login != nil {
		login = *hub.Login
	}
	if hub.EmailTemplate != nil {
		template = *hub.EmailTemplate
	}

	unsubscribeURL := hub.UnsubscribeURL()
	body := RenderBody(template, email.Message, unsubscribeURL) + trackingPixelTag(domain, recipient.ID)

	m := mail.NewMsg()
	if err := m.FromFormat(sender, login); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", login, err)
	}
	if err := m.To(recipient.Address); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", recipient.Address, err)
	}

	var subject string
	if email.Subject != nil {
		subject = *email.Subject
	}
	m.Subject(subject)
	m.SetMessageIDWithValue(MessageID(recipient.ID, domain))
	if unsubscribeURL != "" {
		m.SetGenHeader(mail.HeaderListUnsubscribe, "<"+unsubscribeURL+">")
	}

	m.SetBodyString(mail.TypeTextPlain, body)
	m.AddAlternativeString(mail.TypeTextHTML, body)

	if email.HasAttachment() {
		if err := m.AttachReader(*email.AttachmentName, bytes.NewReader(email.Attachment),
			mail.WithFileContentType(mail.ContentType(*email.AttachmentMime))); err != nil {
			return nil, fmt.Errorf("failed to attach %q: %w", *email.AttachmentName, err)
		}
	}

	return m, nil
}

// Send builds the message and transmits it over a fresh implicit-TLS SMTP
// connection authenticated with the hub credentials.
func (m *Mailer) Send(ctx context.Context, hub *model.Hub, email *model.Email, recipient *model.EmailRecipient) error {
	if !hub.HasSMTPConfig() {
		return appErrors.NewMissingHubConfig(hub.ID, "smtp")
	}

	msg, err := BuildMessage(hub, email, recipient, m.Domain)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(*hub.SMTPServer,
		mail.WithPort(*hub.SMTPPort),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(*hub.Login),
		mail.WithPassword(*hub.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client for hub %d: %w", hub.ID, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send to %s: %w", recipient.Address, err)
	}

	m.Logger.Info("email sent",
		zap.Int("email_id", email.ID),
		zap.Int("recipient_id", recipient.ID),
		zap.String("address", recipient.Address),
	)
	return nil
}

var _ Sender = (*Mailer)(nil)
