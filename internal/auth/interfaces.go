package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskloop/taskloop/internal/database/models"
)

// Authenticator defines the interface for user authentication operations.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionValidator is the slice of the session manager the HTTP middleware
// depends on.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (uuid.UUID, error)
}

// PasswordResetter defines the interface for the OTP reset flow.
type PasswordResetter interface {
	Request(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (bool, error)
	Consume(ctx context.Context, email, code, newPassword string) error
}

// ProviderAuthenticator defines the interface for identity-provider login.
type ProviderAuthenticator interface {
	LoginWithProvider(ctx context.Context, accessToken string) (*AuthResponse, error)
}

// Compile-time interface satisfaction checks
var (
	_ Authenticator         = (*Service)(nil)
	_ SessionValidator      = (*Service)(nil)
	_ PasswordResetter      = (*ResetService)(nil)
	_ ProviderAuthenticator = (*OAuthService)(nil)
)
