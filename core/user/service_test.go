package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/user"
	"github.com/shubhammm008/Infosys-Team5/storage/database/memdb"
	testutil "github.com/shubhammm008/Infosys-Team5/tests"
)

func seed(t *testing.T, svc *user.Service) []user.User {
	t.Helper()
	ctx := context.Background()
	var out []user.User
	for _, u := range []user.User{
		testutil.NewUser("Zoe@Example.com", user.RoleLearner),
		testutil.NewUser("adam@example.com", user.RoleEducator),
		testutil.NewUser("eve@example.com", user.RoleLearner),
	} {
		u.FirstName = strings.ToLower(u.Email[:3])
		created, err := svc.Create(ctx, u)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestService_fetch(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(memdb.Open())
	users := seed(t, svc)

	assert.Equal(t, "zoe@example.com", users[0].Email, "emails are stored lowercased")

	got, err := svc.FetchByEmail(ctx, " ZOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, got.ID)

	_, err = svc.FetchByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.True(t, core.IsNotFound(err))

	exists, err := svc.EmailExists(ctx, "Adam@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = svc.EmailExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	learners, err := svc.FetchByRole(ctx, user.RoleLearner)
	require.NoError(t, err)
	assert.Len(t, learners, 2)
}

func TestService_Search(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(memdb.Open())
	seed(t, svc)
	inactive := false

	tests := []struct {
		name string
		qf   user.QueryFilter
		want []string
	}{
		{"all, by name", user.QueryFilter{}, []string{"ada", "eve", "zoe"}},
		{"role", user.QueryFilter{Role: user.RoleLearner}, []string{"eve", "zoe"}},
		{"search email", user.QueryFilter{Search: " ZOE@"}, []string{"zoe"}},
		{"search name", user.QueryFilter{Search: "educator"}, []string{"ada"}},
		{"inactive", user.QueryFilter{IsActive: &inactive}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users, err := svc.Search(ctx, tc.qf)
			require.NoError(t, err)
			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.FirstName)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestService_adminOperations(t *testing.T) {
	ctx := context.Background()
	testutil.FixedNow(t, testutil.FixedTime)
	svc := user.NewService(memdb.Open())
	users := seed(t, svc)
	id := users[1].ID

	usr, err := svc.SetActive(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, usr.IsActive)

	usr, err = svc.ChangeRole(ctx, id, user.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())

	_, err = svc.ChangeRole(ctx, id, "owner")
	assert.True(t, core.HasField(err, "role"))

	usr, err = svc.TouchLastLogin(ctx, usr)
	require.NoError(t, err)
	stored, err := svc.Fetch(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.LastLogin.Time.Equal(testutil.FixedTime))
	assert.False(t, stored.IsActive)

	require.NoError(t, svc.Delete(ctx, id))
	assert.ErrorIs(t, svc.Delete(ctx, id), user.ErrNotFound)
	_, err = svc.SetActive(ctx, id, true)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestNewUser_Validate(t *testing.T) {
	v := core.NewValidator()
	user.RegisterValidators(v)

	valid := func() user.NewUser {
		return user.NewUser{Email: " Jane@Example.com ", Password: "x9!Qm#2v", FirstName: "Jane", LastName: "Doe", Role: user.RoleLearner}
	}
	tests := []struct {
		name  string
		mod   func(*user.NewUser)
		field string
	}{
		{"valid", func(*user.NewUser) {}, ""},
		{"email", func(nu *user.NewUser) { nu.Email = "jane" }, "email"},
		{"password too similar", func(nu *user.NewUser) { nu.Password = "jane@example" }, "password"},
		{"password too short", func(nu *user.NewUser) { nu.Password = "abc" }, "password"},
		{"role", func(nu *user.NewUser) { nu.Role = "owner" }, "role"},
		{"organization", func(nu *user.NewUser) { nu.OrganizationID = "not-a-uuid" }, "organizationId"},
		{"first name", func(nu *user.NewUser) { nu.FirstName = "  " }, "firstName"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			nu := valid()
			tc.mod(&nu)
			err := nu.Validate(v)
			if tc.field == "" {
				require.NoError(t, err)
				assert.Equal(t, "jane@example.com", nu.Email)
				return
			}
			assert.True(t, core.HasField(err, tc.field), "%v", err)
		})
	}
}

func TestRole(t *testing.T) {
	assert.True(t, user.RoleEducator.IsValid())
	assert.False(t, user.Role("owner").IsValid())
	assert.Equal(t, "Learner", user.RoleLearner.DisplayName())
}
