package repository

import (
	"context"
	"database/sql"
	"fmt"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
)

type EmailRepositoryInterface interface {
	// Emails
	GetByID(ctx context.Context, id int) (*model.Email, error)
	SetEmailSentStatus(ctx context.Context, emailID int, status bool) error
	ResetEmailStatus(ctx context.Context, emailID int) error
	RecomputeCounter(ctx context.Context, emailID int, kind model.CounterKind) error

	// Recipients
	GetRecipients(ctx context.Context, emailID int) ([]model.EmailRecipient, error)
	GetRecipient(ctx context.Context, recipientID int) (*model.EmailRecipient, error)
	GetHubRecipientsNotReplied(ctx context.Context, hubID int) ([]model.EmailRecipient, error)
	SetRecipientSentStatus(ctx context.Context, recipientID int, status bool) error
	SetRecipientOpenedStatus(ctx context.Context, recipientID int, status bool) error
	SetRecipientRepliedStatus(ctx context.Context, emailID, recipientID int) error
}

type EmailRepository struct {
	DB *sql.DB
}

// ====================== Emails ======================

func (r *EmailRepository) GetByID(ctx context.Context, id int) (*model.Email, error) {
	query := `
        SELECT id, user_id, subject, message, attachment, attachment_name, attachment_mime,
               is_sent, num_sent, num_opened, num_replied, created_at
        FROM emails WHERE id=$1
    `
	var e model.Email
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Subject, &e.Message,
		&e.Attachment, &e.AttachmentName, &e.AttachmentMime,
		&e.IsSent, &e.NumSent, &e.NumOpened, &e.NumReplied, &e.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewEmailNotFound(id)
		}
		return nil, err
	}
	return &e, nil
}

func (r *EmailRepository) SetEmailSentStatus(ctx context.Context, emailID int, status bool) error {
	query := `UPDATE emails SET is_sent=$1 WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, status, emailID)
	return err
}

// ResetEmailStatus clears the campaign sent flag and every recipient's
// sent/opened flags ahead of a manual retry. Replied flags survive a
// retry: a reply already observed stays observed.
func (r *EmailRepository) ResetEmailStatus(ctx context.Context, emailID int) error {
	if err := r.SetEmailSentStatus(ctx, emailID, false); err != nil {
		return err
	}
	query := `UPDATE email_recipients SET is_sent=FALSE, opened=FALSE, updated_at=NOW() WHERE email_id=$1`
	_, err := r.DB.ExecContext(ctx, query, emailID)
	return err
}

// RecomputeCounter re-derives one campaign counter from the recipient
// flags. Always a full recount, never an increment, so reruns and partial
// failures cannot drift the counter away from the booleans.
func (r *EmailRepository) RecomputeCounter(ctx context.Context, emailID int, kind model.CounterKind) error {
	var query string
	switch kind {
	case model.CounterSent:
		query = `UPDATE emails SET num_sent = (SELECT COUNT(*) FROM email_recipients WHERE email_id=$1 AND is_sent=TRUE) WHERE id=$1`
	case model.CounterOpened:
		query = `UPDATE emails SET num_opened = (SELECT COUNT(*) FROM email_recipients WHERE email_id=$1 AND opened=TRUE) WHERE id=$1`
	case model.CounterReplied:
		query = `UPDATE emails SET num_replied = (SELECT COUNT(*) FROM email_recipients WHERE email_id=$1 AND replied=TRUE) WHERE id=$1`
	default:
		return fmt.Errorf("unknown counter kind: %s", kind)
	}
	_, err := r.DB.ExecContext(ctx, query, emailID)
	return err
}

// ====================== Recipients ======================

const recipientColumns = `id, email_id, address, is_sent, opened, replied, updated_at`

func (r *EmailRepository) GetRecipients(ctx context.Context, emailID int) ([]model.EmailRecipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM email_recipients WHERE email_id=$1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, emailID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecipients(rows)
}

func (r *EmailRepository) GetRecipient(ctx context.Context, recipientID int) (*model.EmailRecipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM email_recipients WHERE id=$1`
	var rec model.EmailRecipient
	err := r.DB.QueryRowContext(ctx, query, recipientID).Scan(
		&rec.ID, &rec.EmailID, &rec.Address, &rec.IsSent, &rec.Opened, &rec.Replied, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// GetHubRecipientsNotReplied lists every recipient belonging to a hub's
// campaigns whose reply has not been seen yet. The reply correlator walks
// this list once per sweep.
func (r *EmailRepository) GetHubRecipientsNotReplied(ctx context.Context, hubID int) ([]model.EmailRecipient, error) {
	query := `
        SELECT er.id, er.email_id, er.address, er.is_sent, er.opened, er.replied, er.updated_at
        FROM email_recipients er
        JOIN emails e ON er.email_id = e.id
        JOIN users u ON e.user_id = u.id
        WHERE u.hub_id=$1 AND er.replied=FALSE
        ORDER BY er.id
    `
	rows, err := r.DB.QueryContext(ctx, query, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecipients(rows)
}

func (r *EmailRepository) SetRecipientSentStatus(ctx context.Context, recipientID int, status bool) error {
	query := `UPDATE email_recipients SET is_sent=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, status, recipientID)
	return err
}

func (r *EmailRepository) SetRecipientOpenedStatus(ctx context.Context, recipientID int, status bool) error {
	query := `UPDATE email_recipients SET opened=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, status, recipientID)
	return err
}

// SetRecipientRepliedStatus marks a reply. A reply implies the mail was
// delivered and read, so is_sent and opened are forced true alongside it,
// and the owning campaign is flagged sent as well.
func (r *EmailRepository) SetRecipientRepliedStatus(ctx context.Context, emailID, recipientID int) error {
	query := `UPDATE email_recipients SET replied=TRUE, is_sent=TRUE, opened=TRUE, updated_at=NOW() WHERE id=$1`
	if _, err := r.DB.ExecContext(ctx, query, recipientID); err != nil {
		return err
	}
	return r.SetEmailSentStatus(ctx, emailID, true)
}

func scanRecipients(rows *sql.Rows) ([]model.EmailRecipient, error) {
	recipients := []model.EmailRecipient{}
	for rows.Next() {
		var rec model.EmailRecipient
		if err := rows.Scan(&rec.ID, &rec.EmailID, &rec.Address, &rec.IsSent, &rec.Opened, &rec.Replied, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

var _ EmailRepositoryInterface = (*EmailRepository)(nil)
