package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/hubmailer/internal/errors"
	"github.com/unclebandit/hubmailer/internal/model"
	"github.com/unclebandit/hubmailer/internal/queue"
)

// EmailGetter loads campaigns for existence checks.
type EmailGetter interface {
	GetByID(ctx context.Context, id int) (*model.Email, error)
}

// EmailHandler exposes the manual retry action: reset delivery status and
// re-enqueue the campaign. This is the out-of-band recovery path for jobs
// lost in the at-most-once queue.
type EmailHandler struct {
	Emails  EmailGetter
	Tracker StatusTracker
	Queue   queue.Publisher
	Logger  *zap.Logger
}

// RetryEmail handles POST /emails/{emailID}/retry.
func (h *EmailHandler) RetryEmail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "emailID"))
	if err != nil {
		http.Error(w, "invalid email id", http.StatusBadRequest)
		return
	}

	if _, err := h.Emails.GetByID(r.Context(), id); err != nil {
		var notFound *appErrors.ErrEmailNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.Logger.Error("failed to load email", zap.Int("email_id", id), zap.Error(err))
		http.Error(w, "failed to load email", http.StatusInternalServerError)
		return
	}

	if err := h.Tracker.ResetEmailStatus(r.Context(), id); err != nil {
		h.Logger.Error("failed to reset email status", zap.Int("email_id", id), zap.Error(err))
		http.Error(w, "failed to reset email status", http.StatusInternalServerError)
		return
	}

	if err := h.Queue.Publish(int32(id)); err != nil {
		h.Logger.Error("failed to enqueue email", zap.Int("email_id", id), zap.Error(err))
		http.Error(w, "failed to enqueue email", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"email_id": id,
		"status":   "queued",
	})
}
