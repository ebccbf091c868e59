package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/database/models"
	"github.com/taskloop/taskloop/internal/testutil"
)

type fakeMailer struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	email string
	code  string
}

func (m *fakeMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{email: email, code: code})
	return nil
}

func newResetService(t *testing.T, mailer *fakeMailer) (*auth.ResetService, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)
	if mailer == nil {
		// nil Mailer means no provider configured
		return auth.NewResetService(tc.Runner, tc.Auth, nil, 10*time.Minute), tc
	}
	return auth.NewResetService(tc.Runner, tc.Auth, mailer, 10*time.Minute), tc
}

func TestResetRequest_DeliversCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, tc.User.Email, mailer.sent[0].email)
	assert.Len(t, mailer.sent[0].code, 4)

	valid, err := svc.Verify(ctx, tc.User.Email, mailer.sent[0].code)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestResetRequest_UnknownEmailIsSilent(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	// Anti-enumeration: unknown email reports success and sends nothing
	require.NoError(t, svc.Request(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestResetRequest_DeliveryUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("no mailer configured", func(t *testing.T) {
		svc, tc := newResetService(t, nil)
		defer tc.Cleanup()

		err := svc.Request(ctx, tc.User.Email)
		assert.ErrorIs(t, err, auth.ErrDeliveryUnavailable)
	})

	t.Run("mailer fails", func(t *testing.T) {
		svc, tc := newResetService(t, &fakeMailer{err: errors.New("smtp down")})
		defer tc.Cleanup()

		err := svc.Request(ctx, tc.User.Email)
		assert.ErrorIs(t, err, auth.ErrDeliveryUnavailable)
	})
}

func TestResetVerify_NeverMutates(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))
	code := mailer.sent[0].code

	for i := 0; i < 5; i++ {
		valid, err := svc.Verify(ctx, tc.User.Email, code)
		require.NoError(t, err)
		assert.True(t, valid)
	}

	// Still consumable after repeated verification
	require.NoError(t, svc.Consume(ctx, tc.User.Email, code, "N3w$ecret!!"))
}

func TestResetVerify_WrongCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))

	wrong := "0000"
	if mailer.sent[0].code == wrong {
		wrong = "1111"
	}
	valid, err := svc.Verify(ctx, tc.User.Email, wrong)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestResetVerify_ExpiredCode(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))
	code := mailer.sent[0].code

	// Push the row past its expiry, as if 11 minutes elapsed
	require.NoError(t, tc.DB.Model(&models.PasswordReset{}).
		Where("user_id = ?", tc.User.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	valid, err := svc.Verify(ctx, tc.User.Email, code)
	require.NoError(t, err)
	assert.False(t, valid)

	err = svc.Consume(ctx, tc.User.Email, code, "N3w$ecret!!")
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredCode)
}

func TestResetConsume_RotatesPassword(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))
	code := mailer.sent[0].code

	require.NoError(t, svc.Consume(ctx, tc.User.Email, code, "N3w$ecret!!"))

	_, err := tc.Auth.Login(ctx, auth.LoginInput{Email: tc.User.Email, Password: testutil.TestPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "old password must stop working")

	_, err = tc.Auth.Login(ctx, auth.LoginInput{Email: tc.User.Email, Password: "N3w$ecret!!"})
	assert.NoError(t, err, "new password must work")
}

func TestResetConsume_SingleUse(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	require.NoError(t, svc.Request(ctx, tc.User.Email))
	code := mailer.sent[0].code

	require.NoError(t, svc.Consume(ctx, tc.User.Email, code, "N3w$ecret!!"))

	var row models.PasswordReset
	require.NoError(t, tc.DB.Where("user_id = ?", tc.User.ID).First(&row).Error)
	require.NotNil(t, row.UsedAt)
	assert.False(t, row.Usable(time.Now()))

	err := svc.Consume(ctx, tc.User.Email, code, "An0ther$ecret!")
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredCode)
}

func TestResetConsume_OlderCodeStaysUsable(t *testing.T) {
	mailer := &fakeMailer{}
	svc, tc := newResetService(t, mailer)
	defer tc.Cleanup()
	ctx := testutil.TestContext(t)

	// Issue two codes; force distinct values so each matches its own row
	require.NoError(t, svc.Request(ctx, tc.User.Email))
	require.NoError(t, svc.Request(ctx, tc.User.Email))
	require.Len(t, mailer.sent, 2)

	older, newer := mailer.sent[0].code, mailer.sent[1].code
	if older == newer {
		t.Skip("codes collided; per-row validity indistinguishable this run")
	}

	// Consuming the newer code does not invalidate the older row
	require.NoError(t, svc.Consume(ctx, tc.User.Email, newer, "N3w$ecret!!"))

	valid, err := svc.Verify(ctx, tc.User.Email, older)
	require.NoError(t, err)
	assert.True(t, valid, "an unexpired unused code stays valid per-row")

	require.NoError(t, svc.Consume(ctx, tc.User.Email, older, "An0ther$ecret!"))
}
