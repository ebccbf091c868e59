package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

// Handler runs the lazy garbage passes: the auth core never purges expired
// sessions or spent reset codes inline, it leaves them for these sweeps.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSessionSweep, h.HandleSessionSweep)
	mux.HandleFunc(TypeResetSweep, h.HandleResetSweep)
}

func (h *Handler) HandleSessionSweep(ctx context.Context, t *asynq.Task) error {
	payload, err := sweepPayload(t)
	if err != nil {
		return err
	}

	res := h.db.WithContext(ctx).
		Where("expires_at <= ?", payload.Before).
		Delete(&models.Session{})
	if res.Error != nil {
		return fmt.Errorf("sweeping sessions: %w", res.Error)
	}

	h.logger.Info("swept expired sessions",
		"before", payload.Before,
		"deleted", res.RowsAffected,
	)
	return nil
}

func (h *Handler) HandleResetSweep(ctx context.Context, t *asynq.Task) error {
	payload, err := sweepPayload(t)
	if err != nil {
		return err
	}

	res := h.db.WithContext(ctx).
		Where("expires_at <= ? OR used_at IS NOT NULL", payload.Before).
		Delete(&models.PasswordReset{})
	if res.Error != nil {
		return fmt.Errorf("sweeping password resets: %w", res.Error)
	}

	h.logger.Info("swept password resets",
		"before", payload.Before,
		"deleted", res.RowsAffected,
	)
	return nil
}

// sweepPayload decodes the optional cutoff. Scheduler-registered tasks carry
// no payload at all; they sweep up to now.
func sweepPayload(t *asynq.Task) (SweepPayload, error) {
	var payload SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return payload, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if payload.Before.IsZero() {
		payload.Before = time.Now()
	}
	return payload, nil
}
