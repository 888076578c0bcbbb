package supabase

import (
	"context"
	"time"

	"github.com/sendgrid/rest"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
)

const authPath = "/auth/v1"

// Auth is the GoTrue auth.Provider.
type Auth struct {
	client *Client
}

var _ auth.Provider = (*Auth)(nil) // interface compliance check

func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

type (
	gotrueUser struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	// gotrueSession is a session answer. Sign-up without a session answers the bare user instead.
	gotrueSession struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    int         `json:"expires_in"`
		User         *gotrueUser `json:"user"`
		gotrueUser
	}
)

func (s gotrueSession) identity() auth.Identity {
	usr := s.gotrueUser
	if s.User != nil {
		usr = *s.User
	}
	ident := auth.Identity{
		UserID:       usr.ID,
		Email:        usr.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	if s.ExpiresIn > 0 {
		ident.ExpiresAt = core.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return ident
}

func (a *Auth) session(ctx context.Context, cl call) (auth.Identity, error) {
	var s gotrueSession
	if err := a.client.do(ctx, cl, &s); err != nil {
		return auth.Identity{}, err
	}
	return s.identity(), nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	return a.session(ctx, call{
		method: rest.Post,
		path:   authPath + "/token",
		query:  map[string]string{"grant_type": "password"},
		body:   map[string]string{"email": email, "password": password},
	})
}

func (a *Auth) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (auth.Identity, error) {
	return a.session(ctx, call{
		method: rest.Post,
		path:   authPath + "/signup",
		body: map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     metadata,
		},
	})
}

func (a *Auth) SendOneTimeCode(ctx context.Context, email string, metadata map[string]interface{}) error {
	body := map[string]interface{}{
		"email":       email,
		"create_user": true,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	return a.client.do(ctx, call{method: rest.Post, path: authPath + "/otp", body: body}, nil)
}

func (a *Auth) VerifyOneTimeCode(ctx context.Context, email, code string) (auth.Identity, error) {
	return a.session(ctx, call{
		method: rest.Post,
		path:   authPath + "/verify",
		body:   map[string]string{"type": "email", "email": email, "token": code},
	})
}

func (a *Auth) UpdatePassword(ctx context.Context, accessToken, password string) error {
	return a.client.do(ctx, call{
		method:      rest.Put,
		path:        authPath + "/user",
		accessToken: accessToken,
		body:        map[string]string{"password": password},
	}, nil)
}

func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	return a.client.do(ctx, call{
		method:      rest.Post,
		path:        authPath + "/logout",
		accessToken: accessToken,
	}, nil)
}

func (a *Auth) Session(ctx context.Context, accessToken string) (auth.Identity, error) {
	var usr gotrueUser
	err := a.client.do(ctx, call{
		method:      rest.Get,
		path:        authPath + "/user",
		accessToken: accessToken,
	}, &usr)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: usr.ID, Email: usr.Email, AccessToken: accessToken}, nil
}
