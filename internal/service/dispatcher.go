package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
	"github.com/unclebandit/hubmailer/internal/repository"
)

// Dispatcher turns one queued campaign id into one SMTP transmission per
// recipient. Recipients are processed sequentially inside a job so campaign
// counter writes never race; the queue consumer runs jobs for different
// campaigns concurrently.
type Dispatcher struct {
	Emails  repository.EmailRepositoryInterface
	Users   repository.UserRepositoryInterface
	Hubs    repository.HubRepositoryInterface
	Sender  Sender
	Tracker *StatusTracker
	Logger  *zap.Logger
}

// ProcessJob runs one delivery pass for a campaign. Loading failures and
// missing hub configuration abort the job with no side effects; a failed
// send for one recipient is logged and skipped. The campaign is flagged
// sent once at least one attempt was made, regardless of individual
// outcomes.
func (d *Dispatcher) ProcessJob(ctx context.Context, emailID int) error {
	email, err := d.Emails.GetByID(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load email %d: %w", emailID, err)
	}

	user, err := d.Users.GetByID(ctx, email.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", email.UserID, err)
	}
	if user.HubID == nil {
		return fmt.Errorf("user %d has no hub assigned", user.ID)
	}

	hub, err := d.Hubs.GetByID(ctx, *user.HubID)
	if err != nil {
		return fmt.Errorf("failed to load hub %d: %w", *user.HubID, err)
	}
	if !hub.HasSMTPConfig() {
		return appErrors.NewMissingHubConfig(hub.ID, "smtp")
	}

	recipients, err := d.Emails.GetRecipients(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load recipients for email %d: %w", emailID, err)
	}

	d.Logger.Info("dispatching email",
		zap.Int("email_id", emailID),
		zap.Int("hub_id", hub.ID),
		zap.Int("recipients", len(recipients)),
	)

	for i := range recipients {
		recipient := &recipients[i]

		if err := d.Sender.Send(ctx, hub, email, recipient); err != nil {
			d.Logger.Error("failed to send email to recipient",
				zap.Int("recipient_id", recipient.ID),
				zap.String("address", recipient.Address),
				zap.Error(err),
			)
			continue
		}

		if err := d.Tracker.MarkRecipientSent(ctx, recipient.ID); err != nil {
			d.Logger.Error("failed to update sent status for recipient",
				zap.Int("recipient_id", recipient.ID),
				zap.Error(err),
			)
		}
	}

	if err := d.Tracker.MarkEmailSent(ctx, emailID, true); err != nil {
		d.Logger.Error("failed to update email sent status",
			zap.Int("email_id", emailID),
			zap.Error(err),
		)
	}

	for _, kind := range []model.CounterKind{model.CounterSent, model.CounterOpened, model.CounterReplied} {
		if err := d.Tracker.RecomputeCounter(ctx, emailID, kind); err != nil {
			d.Logger.Error("failed to recompute counter",
				zap.Int("email_id", emailID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}

	d.Logger.Info("email dispatch finished", zap.Int("email_id", emailID))
	return nil
}
