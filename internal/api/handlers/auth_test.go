package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api"
	"github.com/taskloop/taskloop/internal/api/dto"
	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/notify"
	"github.com/taskloop/taskloop/internal/testutil"
	"gorm.io/gorm"
)

// fakeMailer records outgoing reset codes instead of sending them.
type fakeMailer struct {
	codes []string
}

func (f *fakeMailer) SendPasswordResetCode(_ context.Context, _ string, code string) error {
	f.codes = append(f.codes, code)
	return nil
}

// fakeExchanger resolves one access token to one profile.
type fakeExchanger struct {
	token   string
	profile auth.Profile
}

func (f *fakeExchanger) Exchange(_ context.Context, accessToken string) (*auth.Profile, error) {
	if accessToken != f.token {
		return nil, auth.ErrInvalidProviderToken
	}
	p := f.profile
	return &p, nil
}

type testEnv struct {
	db     *gorm.DB
	runner *database.Runner
	router http.Handler
	mailer *fakeMailer
}

func newTestEnv(t *testing.T, mailer notify.Mailer) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	runner := testutil.NewTestRunner(t, db)
	authService := auth.NewService(runner, 7*24*time.Hour)
	resetService := auth.NewResetService(runner, authService, mailer, 10*time.Minute)
	exchanger := &fakeExchanger{
		token:   "provider-token",
		profile: auth.Profile{Email: "oauth@example.com", Name: "OAuth User", AvatarURL: "https://img.example.com/a.png"},
	}
	oauthService := auth.NewOAuthService(runner, authService, exchanger)
	resolver := access.NewResolver(runner)

	router := api.NewRouter(api.RouterConfig{
		DB:           runner,
		Logger:       testutil.DiscardLogger(),
		AuthService:  authService,
		ResetService: resetService,
		OAuthService: oauthService,
		Resolver:     resolver,
	})

	fm, _ := mailer.(*fakeMailer)
	return &testEnv{db: db, runner: runner, router: router, mailer: fm}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func registerBody(email string) map[string]string {
	return map[string]string{
		"email":    email,
		"password": testutil.TestPassword,
		"name":     "New User",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/register", registerBody("new@example.com")))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var resp dto.AuthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "new@example.com", resp.User.Email)

	// The minted token immediately authenticates
	rr = env.do(t, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, resp.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me dto.UserDTO
	testutil.ParseJSONResponse(t, rr, &me)
	assert.Equal(t, resp.User.ID, me.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/register", registerBody("dup@example.com")))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/register", registerBody("dup@example.com")))
	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestRegister_WeakPassword(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	body := registerBody("weak@example.com")
	body["password"] = "short"
	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/register", body))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Contains(t, resp.Details, "password")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	user := testutil.CreateTestUser(t, env.db)

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    user.Email,
		"password": testutil.TestPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp dto.AuthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID.String(), resp.User.ID)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	user := testutil.CreateTestUser(t, env.db)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", user.Email, "Wr0ng$Password!"},
		{"unknown email", "nobody@example.com", testutil.TestPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
				"email":    tt.email,
				"password": tt.password,
			}))
			// Same status either way; the response must not say which field was wrong
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})
	user := testutil.CreateTestUser(t, env.db)
	session := testutil.CreateTestSession(t, env.db, user.ID, time.Now().Add(time.Hour))

	rr := env.do(t, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = env.do(t, testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/auth/logout", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = env.do(t, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	// Logging out again still succeeds
	rr = env.do(t, testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/auth/logout", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestMe_Unauthenticated(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestOAuthLogin(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/oauth/google", map[string]string{
		"access_token": "provider-token",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp dto.AuthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "oauth@example.com", resp.User.Email)

	rr = env.do(t, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, resp.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestOAuthLogin_InvalidToken(t *testing.T) {
	env := newTestEnv(t, &fakeMailer{})

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/oauth/google", map[string]string{
		"access_token": "forged",
	}))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestPasswordResetFlow(t *testing.T) {
	mailer := &fakeMailer{}
	env := newTestEnv(t, mailer)
	user := testutil.CreateTestUser(t, env.db)

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/request", map[string]string{
		"email": user.Email,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Len(t, mailer.codes, 1)
	code := mailer.codes[0]

	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/verify", map[string]string{
		"email": user.Email,
		"code":  code,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var verify dto.VerifyResponse
	testutil.ParseJSONResponse(t, rr, &verify)
	assert.True(t, verify.Valid)

	const newPassword = "N3w$ecret-pass"
	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/consume", map[string]string{
		"email":        user.Email,
		"code":         code,
		"new_password": newPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// Old password is dead, new one works
	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    user.Email,
		"password": testutil.TestPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    user.Email,
		"password": newPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestPasswordReset_UnknownEmailLooksNormal(t *testing.T) {
	mailer := &fakeMailer{}
	env := newTestEnv(t, mailer)

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/request", map[string]string{
		"email": "nobody@example.com",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Empty(t, mailer.codes)
}

func TestPasswordReset_WrongCode(t *testing.T) {
	mailer := &fakeMailer{}
	env := newTestEnv(t, mailer)
	user := testutil.CreateTestUser(t, env.db)

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/request", map[string]string{
		"email": user.Email,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	require.Len(t, mailer.codes, 1)

	wrong := "0000"
	if mailer.codes[0] == wrong {
		wrong = "0001"
	}

	rr = env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/consume", map[string]string{
		"email":        user.Email,
		"code":         wrong,
		"new_password": "N3w$ecret-pass",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestPasswordReset_NoMailer(t *testing.T) {
	env := newTestEnv(t, nil)
	user := testutil.CreateTestUser(t, env.db)

	rr := env.do(t, testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/reset/request", map[string]string{
		"email": user.Email,
	}))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
}
