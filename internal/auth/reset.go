package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"github.com/taskloop/taskloop/internal/notify"
	"gorm.io/gorm"
)

var (
	// ErrInvalidOrExpiredCode deliberately conflates wrong, expired and
	// already-used codes so callers can't probe reset state.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrDeliveryUnavailable  = errors.New("delivery unavailable")
)

// ResetService drives the OTP password-reset flow:
// requested → delivered → verified → consumed, or expired on timeout.
type ResetService struct {
	db       *database.Runner
	sessions *Service
	mailer   notify.Mailer
	codeTTL  time.Duration
}

func NewResetService(db *database.Runner, sessions *Service, mailer notify.Mailer, codeTTL time.Duration) *ResetService {
	if codeTTL <= 0 {
		codeTTL = 10 * time.Minute
	}
	return &ResetService{db: db, sessions: sessions, mailer: mailer, codeTTL: codeTTL}
}

// Request issues a fresh code for the account behind email and hands it to
// the mailer. An unknown email reports success so the endpoint can't be used
// to enumerate accounts. A missing or failing mailer is surfaced as
// ErrDeliveryUnavailable since no code reached the user.
func (s *ResetService) Request(ctx context.Context, email string) error {
	user, err := s.sessions.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	code, err := newResetCode()
	if err != nil {
		return err
	}

	reset := models.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Create(&reset).Error
	}); err != nil {
		return err
	}

	if s.mailer == nil {
		return ErrDeliveryUnavailable
	}
	if err := s.mailer.SendPasswordResetCode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryUnavailable, err)
	}

	return nil
}

// Verify reports whether email+code currently match a usable reset row. It is
// read-only so a client can check a code before prompting for a new password.
func (s *ResetService) Verify(ctx context.Context, email, code string) (bool, error) {
	_, err := s.match(ctx, email, code)
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Consume sets the user's password and retires the matched code in one
// transaction. The guarded update on used_at makes a second Consume with the
// same code lose the race and fail like any other non-match.
func (s *ResetService) Consume(ctx context.Context, email, code, newPassword string) error {
	reset, err := s.match(ctx, email, code)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	now := time.Now()
	return s.db.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordReset{}).
			Where("id = ? AND used_at IS NULL", reset.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidOrExpiredCode
		}

		return tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password_hash", hash).Error
	})
}

// match finds the freshest unused, unexpired row for email+code. Validity is
// per-row: an older still-unexpired code with a distinct value stays usable;
// recency only tie-breaks duplicate code strings.
func (s *ResetService) match(ctx context.Context, email, code string) (*models.PasswordReset, error) {
	user, err := s.sessions.getUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	var reset models.PasswordReset
	err = s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?",
			user.ID, code, time.Now()).
			Order("created_at DESC").
			First(&reset).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	return &reset, nil
}

func newResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generating reset code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
