package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
	"github.com/shubhammm008/Infosys-Team5/services/email"
	"github.com/shubhammm008/Infosys-Team5/services/otp"
	"github.com/shubhammm008/Infosys-Team5/storage/prefs"
	testutil "github.com/shubhammm008/Infosys-Team5/tests"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	provider *otp.Provider
	prefs    *prefs.Memory
	outbox   *emailsvc.Outbox
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	testutil.FixedNow(t, t0)
	conf := &core.Config{AppName: "LTMS"}
	f := fixture{prefs: prefs.NewMemory(), outbox: new(emailsvc.Outbox)}
	var err error
	f.provider, err = otp.New(context.Background(), otp.Options{
		Prefs:      f.prefs,
		Email:      emailsvc.NewConsoleServiceMock(conf, f.outbox),
		Secret:     "s3cr3t",
		Issuer:     "ltms",
		CodeTTL:    10 * time.Minute,
		CodeLength: 6,
		SessionTTL: time.Hour,
		Cost:       bcrypt.MinCost,
	})
	require.NoError(t, err)
	return f
}

func (f fixture) code(t *testing.T, email string) string {
	t.Helper()
	msg, ok := f.outbox.Last(email)
	require.True(t, ok, "no email sent to %s", email)
	code, ok := msg.TemplateData.(map[string]interface{})["Code"].(string)
	require.True(t, ok)
	return code
}

func TestNew_requiresSecret(t *testing.T) {
	_, err := otp.New(context.Background(), otp.Options{Prefs: prefs.NewMemory()})
	assert.Error(t, err)
}

func TestProvider_oneTimeCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "jane@example.com"

	require.NoError(t, f.provider.SendOneTimeCode(ctx, "  Jane@Example.com ", nil))
	code := f.code(t, email)
	assert.Len(t, code, 6)

	t.Run("wrong code keeps the pending one", func(t *testing.T) {
		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := f.provider.VerifyOneTimeCode(ctx, email, wrong)
		assert.ErrorIs(t, err, auth.ErrInvalidOneTimeCode)
	})

	t.Run("right code", func(t *testing.T) {
		ident, err := f.provider.VerifyOneTimeCode(ctx, email, code)
		require.NoError(t, err)
		assert.Equal(t, email, ident.Email)
		assert.NotEmpty(t, ident.UserID)
		assert.Equal(t, t0.Add(time.Hour), ident.ExpiresAt)

		sess, err := f.provider.Session(ctx, ident.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, ident.UserID, sess.UserID)
	})

	t.Run("code is single use", func(t *testing.T) {
		_, err := f.provider.VerifyOneTimeCode(ctx, email, code)
		assert.ErrorIs(t, err, auth.ErrInvalidOneTimeCode)
	})
}

func TestProvider_tooManyWrongCodes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "mallory@example.com"

	require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
	code := f.code(t, email)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 1; i < 5; i++ {
		_, err := f.provider.VerifyOneTimeCode(ctx, email, wrong)
		require.ErrorIs(t, err, auth.ErrInvalidOneTimeCode, "attempt %d", i)
	}
	_, err := f.provider.VerifyOneTimeCode(ctx, email, wrong)
	assert.ErrorIs(t, err, auth.ErrOneTimeCodeExpired, "fifth wrong guess burns the code")

	_, err = f.provider.VerifyOneTimeCode(ctx, email, code)
	assert.ErrorIs(t, err, auth.ErrInvalidOneTimeCode, "the right code no longer works")

	t.Run("a new code resets the count", func(t *testing.T) {
		require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
		fresh := f.code(t, email)
		wrong := "000000"
		if fresh == wrong {
			wrong = "111111"
		}
		for i := 1; i < 5; i++ {
			_, err := f.provider.VerifyOneTimeCode(ctx, email, wrong)
			require.ErrorIs(t, err, auth.ErrInvalidOneTimeCode)
		}
		_, err := f.provider.VerifyOneTimeCode(ctx, email, fresh)
		assert.NoError(t, err)
	})
}

func TestProvider_expiredCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "late@example.com"

	require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
	code := f.code(t, email)

	testutil.FixedNow(t, t0.Add(11*time.Minute))
	_, err := f.provider.VerifyOneTimeCode(ctx, email, code)
	assert.ErrorIs(t, err, auth.ErrOneTimeCodeExpired)
}

func TestProvider_resendReplacesCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "again@example.com"

	require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
	first := f.code(t, email)
	require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
	second := f.code(t, email)
	if first == second {
		t.Skip("codes collided")
	}

	_, err := f.provider.VerifyOneTimeCode(ctx, email, first)
	assert.ErrorIs(t, err, auth.ErrInvalidOneTimeCode)
	_, err = f.provider.VerifyOneTimeCode(ctx, email, second)
	assert.NoError(t, err)
}

func TestProvider_password(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	const email = "pwd@example.com"

	require.NoError(t, f.provider.SendOneTimeCode(ctx, email, nil))
	ident, err := f.provider.VerifyOneTimeCode(ctx, email, f.code(t, email))
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, email, "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "no password yet")

	assert.ErrorIs(t, f.provider.UpdatePassword(ctx, ident.AccessToken, "123"), auth.ErrWeakPassword)
	require.NoError(t, f.provider.UpdatePassword(ctx, ident.AccessToken, "secret1"))

	_, err = f.provider.SignIn(ctx, email, "wrong-pass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	signedIn, err := f.provider.SignIn(ctx, "PWD@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, ident.UserID, signedIn.UserID)
}

func TestProvider_signUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ident, err := f.provider.SignUp(ctx, "new@example.com", "secret1", map[string]interface{}{"name": "New"})
	require.NoError(t, err)
	assert.NotEmpty(t, ident.AccessToken)

	_, err = f.provider.SignUp(ctx, "NEW@example.com", "secret1", nil)
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyInUse)

	_, err = f.provider.SignUp(ctx, "weak@example.com", "123", nil)
	assert.ErrorIs(t, err, auth.ErrWeakPassword)

	t.Run("accounts survive a reload", func(t *testing.T) {
		reloaded, err := otp.New(ctx, otp.Options{Prefs: f.prefs, Secret: "s3cr3t", Issuer: "ltms", Cost: bcrypt.MinCost})
		require.NoError(t, err)
		got, err := reloaded.SignIn(ctx, "new@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, ident.UserID, got.UserID)

		// tokens from the first instance verify against the same secret
		_, err = reloaded.Session(ctx, ident.AccessToken)
		assert.NoError(t, err)
	})
}

func TestProvider_session(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ident, err := f.provider.SignUp(ctx, "sess@example.com", "secret1", nil)
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := f.provider.Session(ctx, "not-a-token")
		var unknown *auth.UnknownError
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, err := otp.New(ctx, otp.Options{Prefs: prefs.NewMemory(), Secret: "other", Issuer: "ltms"})
		require.NoError(t, err)
		_, err = other.Session(ctx, ident.AccessToken)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		testutil.FixedNow(t, t0.Add(2*time.Hour))
		_, err := f.provider.Session(ctx, ident.AccessToken)
		assert.Error(t, err)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, f.provider.SignOut(ctx, ident.AccessToken))
		_, err := f.provider.Session(ctx, ident.AccessToken)
		assert.Error(t, err)
		assert.Error(t, f.provider.SignOut(ctx, ident.AccessToken))
	})
}
