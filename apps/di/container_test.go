package di_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhammm008/Infosys-Team5/apps/di"
	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
	"github.com/shubhammm008/Infosys-Team5/core/user"
	"github.com/shubhammm008/Infosys-Team5/storage/fallback"
)

func testConfig() *core.Config {
	return &core.Config{
		Env:          "TEST",
		TestMode:     true,
		AppName:      "LTMS",
		SecretKey:    "secret",
		AuthProvider: di.ProviderLocal,
		Backend:      di.BackendMemory,
		OTPTTL:       10 * time.Minute,
		OTPLength:    6,
		SessionTTL:   time.Hour,
		Prefs:        core.PrefsConfig{Driver: "memory"},
	}
}

func newContainer(t *testing.T, conf *core.Config, opts di.Options) *di.Container {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = core.NopLogger()
	}
	c, err := di.New(context.Background(), conf, opts)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })
	return c
}

func TestNew_localSignUpFlow(t *testing.T) {
	ctx := context.Background()
	c := newContainer(t, testConfig(), di.Options{})
	require.True(t, c.Auth.Configured())

	state, err := c.Auth.SignUp(ctx, user.NewUser{
		Email: "bob@example.com", Password: "x9!Qm#2v", FirstName: "Bob", LastName: "Builder", Role: user.RoleLearner,
	})
	require.NoError(t, err)
	require.Equal(t, auth.PendingVerification, state)

	msg, ok := c.Outbox.Last("bob@example.com")
	require.True(t, ok)
	code := msg.TemplateData.(map[string]interface{})["Code"].(string)

	v, err := c.Auth.VerifyOneTimeCode(ctx, "bob@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, auth.OutcomeAuthenticated, v.Outcome)

	profile, err := c.Users.FetchByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, v.User.ID, profile.ID)

	c.Auth.SignOut(ctx)
	_, err = c.Auth.SignIn(ctx, "bob@example.com", "x9!Qm#2v")
	require.NoError(t, err)
}

func TestNew_skipVerification(t *testing.T) {
	ctx := context.Background()
	conf := testConfig()
	conf.SkipVerification = true
	c := newContainer(t, conf, di.Options{})

	state, err := c.Auth.SignUp(ctx, user.NewUser{
		Email: "dana@example.com", Password: "x9!Qm#2v", FirstName: "Dana", LastName: "Direct", Role: user.RoleEducator,
	})
	require.NoError(t, err)
	assert.Equal(t, auth.Authenticated, state)
	assert.Empty(t, c.Outbox.Messages(), "no code is mailed")

	profile, err := c.Users.FetchByEmail(ctx, "dana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleEducator, profile.Role)
}

func TestNew_fallbackAdmin(t *testing.T) {
	ctx := context.Background()
	conf := testConfig()
	conf.AuthProvider = di.ProviderNone
	c := newContainer(t, conf, di.Options{})
	assert.False(t, c.Auth.Configured())

	usr, err := c.Auth.SignIn(ctx, fallback.AdminEmail, fallback.AdminPassword)
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())
}

func TestNew_unconfiguredSupabase(t *testing.T) {
	conf := testConfig()
	conf.AuthProvider = di.ProviderSupabase
	conf.Backend = di.BackendSupabase
	conf.SupabaseURL = core.PlaceholderSupabaseURL
	conf.SupabaseAnonKey = core.PlaceholderSupabaseKey

	c := newContainer(t, conf, di.Options{})
	assert.False(t, c.Auth.Configured())
	assert.Equal(t, core.CamelCase, c.Backend.Naming(), "in-memory backend")
}

func TestNew_sqlWithTracing(t *testing.T) {
	ctx := context.Background()
	conf := testConfig()
	conf.Backend = di.BackendSQL
	conf.Database = core.DatabaseConfig{Engine: "sqlite3", DSN: filepath.Join(t.TempDir(), "ltms.db")}
	conf.Tracing = true
	var spans bytes.Buffer

	c, err := di.New(ctx, conf, di.Options{Logger: core.NopLogger(), TraceWriter: &spans})
	require.NoError(t, err)
	require.NotNil(t, c.DB)

	_, err = c.Users.Create(ctx, user.User{Email: "sql@example.com", Role: user.RoleLearner, FirstName: "S", LastName: "Q", IsActive: true})
	require.NoError(t, err)
	exists, err := c.Users.EmailExists(ctx, "sql@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Close())
	assert.Contains(t, spans.String(), "backend.create")
}

func TestNew_errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*core.Config)
	}{
		{"backend", func(c *core.Config) { c.Backend = "mongo" }},
		{"provider", func(c *core.Config) { c.AuthProvider = "ldap" }},
		{"prefs", func(c *core.Config) { c.Prefs.Driver = "etcd" }},
		{"local auth without secret", func(c *core.Config) { c.SecretKey = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conf := testConfig()
			tc.mod(conf)
			_, err := di.New(context.Background(), conf, di.Options{Logger: core.NopLogger()})
			assert.Error(t, err)
		})
	}
}
