package model

import (
	"fmt"
	"time"
)

// Hub is a tenant: SMTP/IMAP endpoint, credentials, sender identity and an
// optional body template with {message} and {unsubscribe_url} placeholders.
// Hubs are owned by configuration and read-only to the delivery core.
type Hub struct {
	ID            int        `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Login         *string    `db:"login" json:"login,omitempty"`
	Password      *string    `db:"password" json:"-"`
	Sender        *string    `db:"sender" json:"sender,omitempty"`
	SMTPServer    *string    `db:"smtp_server" json:"smtp_server,omitempty"`
	SMTPPort      *int       `db:"smtp_port" json:"smtp_port,omitempty"`
	IMAPServer    *string    `db:"imap_server" json:"imap_server,omitempty"`
	IMAPPort      *int       `db:"imap_port" json:"imap_port,omitempty"`
	EmailTemplate *string    `db:"email_template" json:"email_template,omitempty"`
	CreatedAt     *time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// UnsubscribeURL builds the mailto unsubscribe link derived from the hub
// login. Empty when the hub has no login configured.
func (h *Hub) UnsubscribeURL() string {
	if h.Login == nil || *h.Login == "" {
		return ""
	}
	return fmt.Sprintf("mailto:%s?subject=unsubscribe", *h.Login)
}

// HasSMTPConfig reports whether the hub can send mail.
func (h *Hub) HasSMTPConfig() bool {
	return h.SMTPServer != nil && *h.SMTPServer != "" &&
		h.SMTPPort != nil && *h.SMTPPort > 0 &&
		h.Login != nil && *h.Login != "" &&
		h.Password != nil && *h.Password != ""
}

// HasIMAPConfig reports whether the hub mailbox can be swept for replies.
func (h *Hub) HasIMAPConfig() bool {
	return h.IMAPServer != nil && *h.IMAPServer != "" &&
		h.IMAPPort != nil && *h.IMAPPort > 0 &&
		h.Login != nil && *h.Login != "" &&
		h.Password != nil && *h.Password != ""
}
