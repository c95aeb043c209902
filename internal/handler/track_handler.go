// internal/handler/track_handler.go
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/hubmailer/internal/model"
)

// StatusTracker is the slice of the tracker the HTTP collaborators need.
type StatusTracker interface {
	MarkRecipientOpened(ctx context.Context, recipientID int) error
	RecomputeCounter(ctx context.Context, emailID int, kind model.CounterKind) error
	ResetEmailStatus(ctx context.Context, emailID int) error
}

// RecipientGetter resolves tracked recipient ids back to their rows.
type RecipientGetter interface {
	GetRecipient(ctx context.Context, recipientID int) (*model.EmailRecipient, error)
}

// trackingPixelGIF is a 1x1 transparent GIF.
var trackingPixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

// TrackHandler serves the open-tracking pixel embedded in outbound mail.
type TrackHandler struct {
	Emails  RecipientGetter
	Tracker StatusTracker
	Logger  *zap.Logger
}

// TrackEmail handles GET /track/{recipientID}: record the open and serve
// the pixel. The image is served even when the recipient is unknown or the
// status write fails, so mail clients never see a broken image.
func (h *TrackHandler) TrackEmail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "recipientID"))
	if err != nil {
		http.Error(w, "invalid recipient id", http.StatusBadRequest)
		return
	}

	recipient, err := h.Emails.GetRecipient(r.Context(), id)
	if err != nil {
		h.Logger.Error("failed to load recipient", zap.Int("recipient_id", id), zap.Error(err))
	}

	if recipient != nil {
		if err := h.Tracker.MarkRecipientOpened(r.Context(), recipient.ID); err != nil {
			h.Logger.Error("failed to mark recipient opened", zap.Int("recipient_id", id), zap.Error(err))
		} else if err := h.Tracker.RecomputeCounter(r.Context(), recipient.EmailID, model.CounterOpened); err != nil {
			h.Logger.Error("failed to recompute opened counter", zap.Int("email_id", recipient.EmailID), zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(trackingPixelGIF); err != nil {
		h.Logger.Error("failed to write tracking pixel", zap.Error(err))
	}
}
