// Package otp is a self-hosted auth.Provider: accounts in a preference store,
// emailed one-time codes and JWT sessions.
package otp

import (
	"context"
	"encoding/json"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/auth"
)

// AccountsKey is the preference key of the account registry.
const AccountsKey = "LocalAuth_Accounts"

type (
	Options struct {
		Prefs  core.Preferences
		Email  core.EmailService
		Logger core.Logger
		// Secret signs codes and session tokens.
		Secret     string
		Issuer     string
		CodeTTL    time.Duration
		CodeLength int
		// MaxAttempts is the number of wrong guesses a code survives; 5 when zero.
		MaxAttempts int
		SessionTTL  time.Duration
		// Cost is the bcrypt cost; bcrypt.DefaultCost when zero.
		Cost int
	}

	account struct {
		ID           string                 `json:"id"`
		Email        string                 `json:"email"`
		PasswordHash []byte                 `json:"passwordHash,omitempty"`
		Confirmed    bool                   `json:"confirmed"`
		Metadata     map[string]interface{} `json:"metadata,omitempty"`
		CreatedAt    time.Time              `json:"createdAt"`
	}

	Provider struct {
		prefs      core.Preferences
		email      core.EmailService
		logger     core.Logger
		secret     []byte
		issuer     string
		codeTTL    time.Duration
		codeLength  int
		maxAttempts int
		sessionTTL  time.Duration
		cost        int

		mu       sync.Mutex
		accounts map[string]*account // by email
		codes    map[string]pendingCode
		revoked  map[string]time.Time // jti -> expiry
	}
)

var _ auth.Provider = (*Provider)(nil) // interface compliance check

// New loads the account registry from opts.Prefs.
func New(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Secret == "" {
		return nil, errors.New("otp: secret is required")
	}
	p := &Provider{
		prefs:      opts.Prefs,
		email:      opts.Email,
		logger:     opts.Logger,
		secret:     []byte(opts.Secret),
		issuer:     opts.Issuer,
		codeTTL:    opts.CodeTTL,
		codeLength:  opts.CodeLength,
		maxAttempts: opts.MaxAttempts,
		sessionTTL:  opts.SessionTTL,
		cost:        opts.Cost,
		accounts:    make(map[string]*account),
		codes:       make(map[string]pendingCode),
		revoked:     make(map[string]time.Time),
	}
	if p.logger == nil {
		p.logger = core.NopLogger()
	}
	if p.codeTTL <= 0 {
		p.codeTTL = 10 * time.Minute
	}
	if p.codeLength <= 0 {
		p.codeLength = 6
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = 5
	}
	if p.sessionTTL <= 0 {
		p.sessionTTL = 7 * 24 * time.Hour
	}
	if p.cost == 0 {
		p.cost = bcrypt.DefaultCost
	}

	data, err := p.prefs.Get(ctx, AccountsKey)
	if core.IsNotFound(err) {
		return p, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "loading accounts")
	}
	var accounts []*account
	if err = json.Unmarshal(data, &accounts); err != nil {
		return nil, errors.Wrap(err, "decoding accounts")
	}
	for _, acc := range accounts {
		p.accounts[acc.Email] = acc
	}
	return p, nil
}

func normalize(email string) string {
	return core.CleanString(email, true /* lower */)
}

// flushLocked persists the registry. Callers hold p.mu.
func (p *Provider) flushLocked(ctx context.Context) error {
	accounts := make([]*account, 0, len(p.accounts))
	for _, acc := range p.accounts {
		accounts = append(accounts, acc)
	}
	data, err := json.Marshal(accounts)
	if err != nil {
		return errors.Wrap(err, "encoding accounts")
	}
	return errors.Wrap(p.prefs.Set(ctx, AccountsKey, data), "saving accounts")
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Identity, error) {
	email = normalize(email)
	p.mu.Lock()
	acc, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok || len(acc.PasswordHash) == 0 {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	if !acc.Confirmed {
		return auth.Identity{}, &auth.UnknownError{Message: "Email not confirmed."}
	}
	return p.issue(*acc)
}

func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (auth.Identity, error) {
	email = normalize(email)
	if len(password) < core.MinimumPasswordLength {
		return auth.Identity{}, auth.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return auth.Identity{}, errors.Wrap(err, "hashing password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return auth.Identity{}, auth.ErrEmailAlreadyInUse
	}
	acc := &account{
		ID:           core.NewID(),
		Email:        email,
		PasswordHash: hash,
		Confirmed:    true,
		Metadata:     metadata,
		CreatedAt:    core.Now(),
	}
	p.accounts[email] = acc
	if err = p.flushLocked(ctx); err != nil {
		delete(p.accounts, email)
		return auth.Identity{}, err
	}
	return p.issue(*acc)
}

// SendOneTimeCode registers an unconfirmed account when email is new, then emails a fresh code.
// A new code replaces the previous one.
func (p *Provider) SendOneTimeCode(ctx context.Context, email string, metadata map[string]interface{}) error {
	email = normalize(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return auth.ErrUserNotFound
	}
	code, err := randomDigits(p.codeLength)
	if err != nil {
		return errors.Wrap(err, "generating code")
	}
	expiresAt := core.Now().Add(p.codeTTL)

	p.mu.Lock()
	if _, exists := p.accounts[email]; !exists {
		p.accounts[email] = &account{ID: core.NewID(), Email: email, Metadata: metadata, CreatedAt: core.Now()}
		if err = p.flushLocked(ctx); err != nil {
			delete(p.accounts, email)
			p.mu.Unlock()
			return err
		}
	}
	p.codes[email] = pendingCode{sig: p.sign(email, code, expiresAt), expiresAt: expiresAt}
	p.mu.Unlock()

	p.email.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "Your verification code",
		TemplateName: "verification_code",
		TemplateData: map[string]interface{}{
			"Code":      code,
			"ExpiresIn": p.codeTTL.String(),
		},
	})
	p.logger.Debug("otp: code sent", map[string]interface{}{"email": email})
	return nil
}

// VerifyOneTimeCode consumes a valid code and confirms the account.
// A wrong code leaves the pending one usable until it expires.
func (p *Provider) VerifyOneTimeCode(ctx context.Context, email, code string) (auth.Identity, error) {
	email = normalize(email)
	p.mu.Lock()
	defer p.mu.Unlock()

	pc, ok := p.codes[email]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidOneTimeCode
	}
	if core.Now().After(pc.expiresAt) {
		delete(p.codes, email)
		return auth.Identity{}, auth.ErrOneTimeCodeExpired
	}
	if !p.check(email, strings.TrimSpace(code), pc) {
		pc.failures++
		if pc.failures >= p.maxAttempts {
			// the code is burnt, a new one has to be requested
			delete(p.codes, email)
			p.logger.Warn("otp: too many wrong codes", map[string]interface{}{"email": email})
			return auth.Identity{}, auth.ErrOneTimeCodeExpired
		}
		p.codes[email] = pc
		return auth.Identity{}, auth.ErrInvalidOneTimeCode
	}
	delete(p.codes, email)

	acc := p.accounts[email]
	if !acc.Confirmed {
		acc.Confirmed = true
		if err := p.flushLocked(ctx); err != nil {
			acc.Confirmed = false
			return auth.Identity{}, err
		}
	}
	return p.issue(*acc)
}

func (p *Provider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return err
	}
	if len(password) < core.MinimumPasswordLength {
		return auth.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.accounts[claims.Email]
	if !ok || acc.ID != claims.Subject {
		return auth.ErrUserNotFound
	}
	old := acc.PasswordHash
	acc.PasswordHash = hash
	if err = p.flushLocked(ctx); err != nil {
		acc.PasswordHash = old
		return err
	}
	return nil
}

// SignOut revokes the token until it would have expired anyway.
func (p *Provider) SignOut(_ context.Context, accessToken string) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := core.NowFunc()
	for jti, exp := range p.revoked {
		if now.After(exp) {
			delete(p.revoked, jti)
		}
	}
	if claims.ExpiresAt != nil {
		p.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	return nil
}

func (p *Provider) Session(_ context.Context, accessToken string) (auth.Identity, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return auth.Identity{}, err
	}
	ident := auth.Identity{UserID: claims.Subject, Email: claims.Email, AccessToken: accessToken}
	if claims.ExpiresAt != nil {
		ident.ExpiresAt = claims.ExpiresAt.Time
	}
	return ident, nil
}
