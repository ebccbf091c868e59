package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/database/models"
	"golang.org/x/oauth2"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

var ErrInvalidProviderToken = errors.New("invalid provider token")

// Profile is what the identity provider vouches for. Email is required and
// trusted as verified by the provider; the rest is best-effort.
type Profile struct {
	Email     string
	Name      string
	AvatarURL string
}

// ProfileExchanger resolves a provider access token to a profile.
type ProfileExchanger interface {
	Exchange(ctx context.Context, accessToken string) (*Profile, error)
}

// GoogleExchanger calls the Google userinfo endpoint with the access token.
type GoogleExchanger struct{}

func (GoogleExchanger) Exchange(ctx context.Context, accessToken string) (*Profile, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := oauthapi.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("creating userinfo client: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}

	return &Profile{
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}

// OAuthService links identity-provider logins to local accounts.
type OAuthService struct {
	db        *database.Runner
	sessions  *Service
	exchanger ProfileExchanger
}

func NewOAuthService(db *database.Runner, sessions *Service, exchanger ProfileExchanger) *OAuthService {
	return &OAuthService{db: db, sessions: sessions, exchanger: exchanger}
}

// LoginWithProvider exchanges accessToken for a profile, resolves it to a
// local user by email (creating or merging as needed) and mints a session
// through the same path as password login.
func (s *OAuthService) LoginWithProvider(ctx context.Context, accessToken string) (*AuthResponse, error) {
	profile, err := s.exchanger.Exchange(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderToken, err)
	}
	if profile.Email == "" {
		return nil, ErrInvalidProviderToken
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	return s.sessions.MintSession(ctx, user)
}

// resolveUser finds the account for profile.Email or creates a provider-only
// one. On merge, provider fields only overwrite when non-empty; the password
// hash is never touched.
func (s *OAuthService) resolveUser(ctx context.Context, profile *Profile) (*models.User, error) {
	var user models.User
	err := s.db.Do(ctx, func(db *gorm.DB) error {
		return db.Where("email = ?", profile.Email).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Email:     profile.Email,
			Name:      profile.Name,
			AvatarURL: profile.AvatarURL,
		}
		if err := s.db.Do(ctx, func(db *gorm.DB) error {
			return db.Create(&user).Error
		}); err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if profile.Name != "" && profile.Name != user.Name {
		updates["name"] = profile.Name
	}
	if profile.AvatarURL != "" && profile.AvatarURL != user.AvatarURL {
		updates["avatar_url"] = profile.AvatarURL
	}
	if len(updates) > 0 {
		if err := s.db.Do(ctx, func(db *gorm.DB) error {
			return db.Model(&user).Updates(updates).Error
		}); err != nil {
			return nil, err
		}
		if name, ok := updates["name"]; ok {
			user.Name = name.(string)
		}
		if avatar, ok := updates["avatar_url"]; ok {
			user.AvatarURL = avatar.(string)
		}
	}

	return &user, nil
}
