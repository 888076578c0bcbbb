package auth

import (
	"context"
	"time"

	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// Identity is a remote account and its session.
type Identity struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type (
	// Provider is the remote authentication service.
	Provider interface {
		SignIn(ctx context.Context, email, password string) (Identity, error)
		// SignUp registers email directly, without verification.
		SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (Identity, error)
		// SendOneTimeCode emails a verification code, creating the account if needed.
		SendOneTimeCode(ctx context.Context, email string, metadata map[string]interface{}) error
		VerifyOneTimeCode(ctx context.Context, email, code string) (Identity, error)
		UpdatePassword(ctx context.Context, accessToken, password string) error
		SignOut(ctx context.Context, accessToken string) error
		// Session resolves the identity behind an access token.
		Session(ctx context.Context, accessToken string) (Identity, error)
	}

	// Profiles is where user profiles live, usually a *user.Service.
	Profiles interface {
		Create(ctx context.Context, usr user.User) (user.User, error)
		Fetch(ctx context.Context, id string) (user.User, error)
		EmailExists(ctx context.Context, email string) (bool, error)
		TouchLastLogin(ctx context.Context, usr user.User) (user.User, error)
	}

	// LocalStore validates test identities and backs up the remote when it is unreachable.
	LocalStore interface {
		AddUser(ctx context.Context, usr user.User, password string) error
		UpdateUser(ctx context.Context, usr user.User) error
		GetUserByEmail(email string) (user.User, bool)
		ValidateCredentials(email, password string) bool
	}
)
