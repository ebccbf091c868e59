package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Service issues, validates and revokes opaque session tokens.
type Service struct {
	db         *database.Runner
	sessionTTL time.Duration
}

func NewService(db *database.Runner, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{db: db, sessionTTL: sessionTTL}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	var existing models.User
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", input.Email).First(&existing).Error
	})
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: &hash,
	}
	if err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Create(&user).Error
	}); err != nil {
		return nil, err
	}

	return s.mintSession(ctx, &user)
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", input.Email).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Accounts created through an identity provider carry no hash and can
	// only sign in through that provider.
	if user.PasswordHash == nil || !CheckPassword(input.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.mintSession(ctx, &user)
}

// MintSession creates a fresh session for an already-authenticated user.
// Every authentication path (password, identity provider) funnels through it.
func (s *Service) MintSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	return s.mintSession(ctx, user)
}

func (s *Service) mintSession(ctx context.Context, user *models.User) (*AuthResponse, error) {
	token, err := NewSessionToken()
	if err != nil {
		return nil, err
	}

	session := models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Create(&session).Error
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

// Validate resolves a token to its owning user id. Expired or unknown tokens
// yield ErrUnauthenticated. Expiry is never extended on use.
func (s *Service) Validate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrUnauthenticated
	}

	var session models.Session
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("token = ? AND expires_at > ?", token, time.Now()).
			First(&session).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrUnauthenticated
		}
		return uuid.Nil, err
	}

	return session.UserID, nil
}

// Revoke deletes the session if it exists. Revoking an unknown or already
// revoked token is a no-op.
func (s *Service) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("token = ?", token).Delete(&models.Session{}).Error
	})
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.First(&user, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) getUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", email).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
