package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/model"
	"github.com/unclebandit/hubmailer/internal/repository"
)

// StatusTracker applies the idempotent per-recipient and per-campaign state
// transitions after send, open and reply events. Every operation is a
// single persistence call; counters are always re-derived from the boolean
// flags so reruns cannot drift them.
type StatusTracker struct {
	EmailRepo repository.EmailRepositoryInterface
	Logger    *zap.Logger
}

func NewStatusTracker(repo repository.EmailRepositoryInterface, logger *zap.Logger) *StatusTracker {
	return &StatusTracker{EmailRepo: repo, Logger: logger}
}

// MarkRecipientSent sets is_sent = true for the recipient.
func (t *StatusTracker) MarkRecipientSent(ctx context.Context, recipientID int) error {
	return t.EmailRepo.SetRecipientSentStatus(ctx, recipientID, true)
}

// MarkRecipientOpened sets opened = true; called when the tracking pixel is
// fetched.
func (t *StatusTracker) MarkRecipientOpened(ctx context.Context, recipientID int) error {
	return t.EmailRepo.SetRecipientOpenedStatus(ctx, recipientID, true)
}

// MarkRecipientReplied is a monotonic one-way transition. It forces
// is_sent and opened true on the recipient and flags the owning campaign
// sent as a side effect.
func (t *StatusTracker) MarkRecipientReplied(ctx context.Context, emailID, recipientID int) error {
	if err := t.EmailRepo.SetRecipientRepliedStatus(ctx, emailID, recipientID); err != nil {
		return err
	}
	t.Logger.Info("recipient replied",
		zap.Int("email_id", emailID),
		zap.Int("recipient_id", recipientID),
	)
	return nil
}

// RecomputeCounter re-derives one campaign counter from recipient flags.
// Safe to call concurrently for different campaigns; the dispatcher is the
// only writer per campaign during a pass.
func (t *StatusTracker) RecomputeCounter(ctx context.Context, emailID int, kind model.CounterKind) error {
	return t.EmailRepo.RecomputeCounter(ctx, emailID, kind)
}

// MarkEmailSent sets the campaign-level sent flag. The flag means
// "dispatch was attempted", not "all recipients succeeded"; per-recipient
// flags stay the source of truth for individual outcomes.
func (t *StatusTracker) MarkEmailSent(ctx context.Context, emailID int, status bool) error {
	return t.EmailRepo.SetEmailSentStatus(ctx, emailID, status)
}

// ResetEmailStatus clears campaign and recipient sent/opened flags ahead of
// a manual retry. Replied flags are preserved.
func (t *StatusTracker) ResetEmailStatus(ctx context.Context, emailID int) error {
	return t.EmailRepo.ResetEmailStatus(ctx, emailID)
}
