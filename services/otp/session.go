package otp

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
)

var errInvalidSession = errors.New("otp: invalid or expired session")

// Claims are the session token claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (p *Provider) issue(acc account) (auth.Identity, error) {
	now := core.Now()
	exp := now.Add(p.sessionTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        core.NewID(),
			Issuer:    p.issuer,
			Subject:   acc.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: acc.Email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return auth.Identity{}, errors.Wrap(err, "signing session")
	}
	return auth.Identity{
		UserID:      acc.ID,
		Email:       acc.Email,
		AccessToken: token,
		ExpiresAt:   exp,
	}, nil
}

// parse validates the signature, expiry and revocation of a session token.
func (p *Provider) parse(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(core.NowFunc),
		jwt.WithIssuer(p.issuer),
	)
	if err != nil {
		return nil, &auth.UnknownError{Message: errInvalidSession.Error(), Err: err}
	}

	p.mu.Lock()
	_, revoked := p.revoked[claims.ID]
	p.mu.Unlock()
	if revoked {
		return nil, &auth.UnknownError{Message: errInvalidSession.Error(), Err: errInvalidSession}
	}
	return claims, nil
}
