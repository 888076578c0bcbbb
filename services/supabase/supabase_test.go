package supabase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/services/supabase/supabasetest"
	testutil "github.com/shubhammm008/Infosys-Team5/tests"
)

func newFake(t *testing.T) (*supabasetest.Server, *Client) {
	t.Helper()
	srv := supabasetest.NewServer()
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, supabasetest.AnonKey, 5*time.Second)
}

func TestBackend(t *testing.T) {
	testutil.RunBackendSuite(t, func(t *testing.T) core.Backend {
		_, client := newFake(t)
		return NewBackend(client)
	})
}

func TestBackend_relationalTableNames(t *testing.T) {
	ctx := context.Background()
	srv, client := newFake(t)
	b := NewBackend(client)

	m := course.Module{ID: core.NewID(), CourseID: "c1", Title: "Intro", OrderIndex: 1, CreatedAt: core.Now(), UpdatedAt: core.Now()}
	_, err := core.Create(ctx, b, core.TableModules, m)
	require.NoError(t, err)

	rows := srv.Rows("course_modules")
	require.Len(t, rows, 1)
	assert.Equal(t, "c1", rows[0]["course_id"])
	assert.Equal(t, float64(1), rows[0]["order_index"])
	_, camel := rows[0]["courseId"]
	assert.False(t, camel)
}

func TestClient_errors(t *testing.T) {
	ctx := context.Background()
	srv, _ := newFake(t)

	t.Run("bad key", func(t *testing.T) {
		b := NewBackend(NewClient(srv.URL, "wrong", time.Second))
		_, err := b.FetchAll(ctx, core.TableUsers)
		var re *core.RemoteError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusUnauthorized, re.Status)
		assert.Equal(t, "Invalid API key", re.Message)
	})

	t.Run("structured code", func(t *testing.T) {
		b := NewBackend(NewClient(srv.URL, supabasetest.AnonKey, time.Second))
		_, err := b.FetchAll(ctx, core.Table("missing"))
		var re *core.RemoteError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "42P01", re.Code)
	})

	t.Run("unreachable", func(t *testing.T) {
		b := NewBackend(NewClient("http://127.0.0.1:1", supabasetest.AnonKey, time.Second))
		_, err := b.FetchAll(ctx, core.TableUsers)
		var re *core.RemoteError
		require.ErrorAs(t, err, &re)
		assert.Error(t, re.Err)
		assert.ErrorIs(t, auth.Classify(err), auth.ErrNetwork)
	})
}

func TestRemoteError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{"postgrest", 409, `{"code":"23505","message":"duplicate key"}`, "23505", "duplicate key"},
		{"gotrue", 400, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, "invalid_credentials", "Invalid login credentials"},
		{"gotrue legacy", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "invalid_grant", "Invalid login credentials"},
		{"plain text", 502, "Bad Gateway", "", "Bad Gateway"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			re := remoteError(tc.status, tc.body)
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.wantCode, re.Code)
			assert.Equal(t, tc.wantMsg, re.Message)
		})
	}
}

func TestNewClientFromConfig(t *testing.T) {
	_, err := NewClientFromConfig(&core.Config{SupabaseURL: core.PlaceholderSupabaseURL, SupabaseAnonKey: "k"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	c, err := NewClientFromConfig(&core.Config{SupabaseURL: "https://abc.supabase.co/", SupabaseAnonKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", c.url)
}

func TestAuth(t *testing.T) {
	ctx := context.Background()
	srv, client := newFake(t)
	a := NewAuth(client)

	t.Run("sign in", func(t *testing.T) {
		id := srv.AddAccount("dana@example.com", "secret1")
		ident, err := a.SignIn(ctx, "dana@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, id, ident.UserID)
		assert.NotEmpty(t, ident.AccessToken)
		assert.True(t, ident.ExpiresAt.After(time.Now()))

		_, err = a.SignIn(ctx, "dana@example.com", "wrong")
		assert.ErrorIs(t, auth.Classify(err), auth.ErrInvalidCredentials)
	})

	t.Run("sign up", func(t *testing.T) {
		ident, err := a.SignUp(ctx, "erin@example.com", "secret1", map[string]interface{}{"role": "learner"})
		require.NoError(t, err)
		assert.Equal(t, "erin@example.com", ident.Email)

		_, err = a.SignUp(ctx, "erin@example.com", "secret1", nil)
		assert.ErrorIs(t, auth.Classify(err), auth.ErrEmailAlreadyInUse)

		_, err = a.SignUp(ctx, "weak@example.com", "123", nil)
		assert.ErrorIs(t, auth.Classify(err), auth.ErrWeakPassword)
	})

	t.Run("one-time code", func(t *testing.T) {
		require.NoError(t, a.SendOneTimeCode(ctx, "finn@example.com", nil))
		code := srv.Code("finn@example.com")
		require.Len(t, code, 6)

		wrong := "000000"
		if code == wrong {
			wrong = "111111"
		}
		_, err := a.VerifyOneTimeCode(ctx, "finn@example.com", wrong)
		assert.ErrorIs(t, auth.Classify(err), auth.ErrInvalidOneTimeCode)

		ident, err := a.VerifyOneTimeCode(ctx, "finn@example.com", code)
		require.NoError(t, err)
		require.NoError(t, a.UpdatePassword(ctx, ident.AccessToken, "secret1"))
		_, err = a.SignIn(ctx, "finn@example.com", "secret1")
		assert.NoError(t, err)
	})

	t.Run("expired code", func(t *testing.T) {
		require.NoError(t, a.SendOneTimeCode(ctx, "gus@example.com", nil))
		code := srv.Code("gus@example.com")
		srv.ExpireCodes()
		_, err := a.VerifyOneTimeCode(ctx, "gus@example.com", code)
		assert.ErrorIs(t, auth.Classify(err), auth.ErrOneTimeCodeExpired)
	})

	t.Run("session and sign out", func(t *testing.T) {
		id := srv.AddAccount("hal@example.com", "secret1")
		ident, err := a.SignIn(ctx, "hal@example.com", "secret1")
		require.NoError(t, err)

		sess, err := a.Session(ctx, ident.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, id, sess.UserID)

		require.NoError(t, a.SignOut(ctx, ident.AccessToken))
		_, err = a.Session(ctx, ident.AccessToken)
		var re *core.RemoteError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, http.StatusUnauthorized, re.Status)
	})
}
