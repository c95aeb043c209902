package model

import "time"

// Email is one bulk campaign owned by a user. Counters are re-derived from
// recipient flags by the status tracker, never incremented in place.
type Email struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	Subject        *string   `db:"subject" json:"subject,omitempty"`
	Message        string    `db:"message" json:"message"`
	Attachment     []byte    `db:"attachment" json:"-"`
	AttachmentName *string   `db:"attachment_name" json:"attachment_name,omitempty"`
	AttachmentMime *string   `db:"attachment_mime" json:"attachment_mime,omitempty"`
	IsSent         bool      `db:"is_sent" json:"is_sent"`
	NumSent        int       `db:"num_sent" json:"num_sent"`
	NumOpened      int       `db:"num_opened" json:"num_opened"`
	NumReplied     int       `db:"num_replied" json:"num_replied"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// HasAttachment reports whether the message should carry an attachment part.
// All three of bytes, name and mime type must be present and non-empty.
func (e *Email) HasAttachment() bool {
	return len(e.Attachment) > 0 &&
		e.AttachmentName != nil && *e.AttachmentName != "" &&
		e.AttachmentMime != nil && *e.AttachmentMime != ""
}

// EmailRecipient is one destination address of a campaign with its three
// independent delivery flags.
type EmailRecipient struct {
	ID        int       `db:"id" json:"id"`
	EmailID   int       `db:"email_id" json:"email_id"`
	Address   string    `db:"address" json:"address"`
	IsSent    bool      `db:"is_sent" json:"is_sent"`
	Opened    bool      `db:"opened" json:"opened"`
	Replied   bool      `db:"replied" json:"replied"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CounterKind selects which campaign counter a recompute targets.
type CounterKind string

const (
	CounterSent    CounterKind = "sent"
	CounterOpened  CounterKind = "opened"
	CounterReplied CounterKind = "replied"
)
