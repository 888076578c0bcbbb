// Package auth orchestrates the session: sign-in, sign-up with email verification,
// sign-out and session restore, falling back to a local store for test identities
// and when the remote provider is unreachable or not configured.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// SessionTokenKey is the preference key holding the remote access token.
const SessionTokenKey = "auth_session_token"

type pendingSignUp struct {
	user.NewUser // holds the password until verification
	sentAt       time.Time
}

type Options struct {
	// Provider is the remote auth service; nil means unconfigured.
	Provider Provider
	Profiles Profiles
	Local    LocalStore
	Prefs    core.Preferences
	Logger   core.Logger
	// Validator checks sign-up input; a default one is built when nil.
	Validator *core.Validator
	// SignUpLatency is simulated for local sign-ups.
	SignUpLatency time.Duration
	// SkipVerification signs new remote accounts up directly instead of emailing a code.
	SkipVerification bool
}

// Service owns the session state. Operations are serialized; state reads never block on them.
type Service struct {
	provider         Provider
	profiles         Profiles
	local            LocalStore
	prefs            core.Preferences
	logger           core.Logger
	validator        *core.Validator
	signUpLatency    time.Duration
	skipVerification bool

	opMu sync.Mutex // one operation at a time

	mu          sync.RWMutex // guards the fields below
	state       State
	currentUser *user.User
	isLoading   bool
	token       string
	pending     *pendingSignUp
	subs        map[int]chan Snapshot
	nextSub     int
}

func NewService(opts Options) *Service {
	v := opts.Validator
	if v == nil {
		v = core.NewValidator()
	}
	user.RegisterValidators(v)
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger()
	}
	return &Service{
		provider:         opts.Provider,
		profiles:         opts.Profiles,
		local:            opts.Local,
		prefs:            opts.Prefs,
		logger:           logger,
		validator:        v,
		signUpLatency:    opts.SignUpLatency,
		skipVerification: opts.SkipVerification,
		subs:             make(map[int]chan Snapshot),
	}
}

// Configured reports whether a remote provider is available.
func (s *Service) Configured() bool { return s.provider != nil }

// begin starts a sign-in or sign-up attempt. A current session and a pending
// sign-up both end here, whatever the outcome of the attempt.
func (s *Service) begin(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.pending = nil
	s.setLocked(Authenticating, nil, true)
	s.mu.Unlock()

	s.remoteSignOut(ctx, token)
	s.forgetToken(ctx)
}

func (s *Service) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.setLocked(Unauthenticated, nil, false)
}

func (s *Service) succeed(ctx context.Context, usr user.User, token string) {
	if token != "" && s.prefs != nil {
		if err := s.prefs.Set(ctx, SessionTokenKey, []byte(token)); err != nil {
			s.logger.Warn("auth: persisting session token", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.setLocked(Authenticated, &usr, false)
}

// SignIn authenticates email/password.
// Test-domain emails are checked against the local store only. Other emails go to the
// remote provider first; when it fails, the local store gets one try before the remote error is returned.
func (s *Service) SignIn(ctx context.Context, email, password string) (user.User, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	email = core.CleanString(email, true /* lower */)
	s.begin(ctx)
	usr, token, err := s.signIn(ctx, email, password)
	if err != nil {
		s.fail()
		return user.User{}, err
	}
	s.succeed(ctx, usr, token)
	s.logger.Info("auth: signed in", usr)
	return usr, nil
}

func (s *Service) signIn(ctx context.Context, email, password string) (user.User, string, error) {
	if core.IsTestEmail(email) || s.provider == nil {
		usr, err := s.localSignIn(ctx, email, password)
		return usr, "", err
	}

	ident, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		remoteErr := Classify(err)
		s.logger.Warn("auth: remote sign-in failed, trying local store", map[string]interface{}{"email": email}, err)
		usr, localErr := s.localSignIn(ctx, email, password)
		switch {
		case localErr == nil:
			return usr, "", nil
		case errors.Is(localErr, ErrAccountDeactivated):
			return user.User{}, "", localErr
		}
		return user.User{}, "", remoteErr
	}

	usr, err := s.profiles.Fetch(ctx, ident.UserID)
	if err != nil {
		s.remoteSignOut(ctx, ident.AccessToken)
		if core.IsNotFound(err) {
			return user.User{}, "", ErrUserNotFound
		}
		return user.User{}, "", Classify(err)
	}
	if !usr.IsActive {
		s.remoteSignOut(ctx, ident.AccessToken)
		return user.User{}, "", ErrAccountDeactivated
	}
	if updated, err := s.profiles.TouchLastLogin(ctx, usr); err != nil {
		s.logger.Warn("auth: updating last login", usr, err)
	} else {
		usr = updated
	}
	return usr, ident.AccessToken, nil
}

// localSignIn checks the local store. A wrong password is reported before a deactivated account.
func (s *Service) localSignIn(ctx context.Context, email, password string) (user.User, error) {
	if s.local == nil {
		return user.User{}, ErrUserNotFound
	}
	usr, ok := s.local.GetUserByEmail(email)
	if !ok {
		return user.User{}, ErrUserNotFound
	}
	if !s.local.ValidateCredentials(email, password) {
		return user.User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return user.User{}, ErrAccountDeactivated
	}
	usr.LastLogin.SetValid(core.Now())
	if err := s.local.UpdateUser(ctx, usr); err != nil {
		s.logger.Warn("auth: updating local last login", usr, err)
	}
	return usr, nil
}

// SignUp registers a new account and returns the resulting state:
// Authenticated for test-domain, unconfigured or unverified sign-ups, PendingVerification
// once a code has been emailed.
func (s *Service) SignUp(ctx context.Context, nu user.NewUser) (State, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := nu.Validate(s.validator); err != nil {
		if core.HasField(err, "password") {
			return s.Snapshot().State, errors.Wrap(ErrWeakPassword, err.Error())
		}
		return s.Snapshot().State, err
	}

	s.begin(ctx)
	if core.IsTestEmail(nu.Email) || s.provider == nil {
		usr, err := s.localSignUp(ctx, nu)
		if err != nil {
			s.fail()
			return Unauthenticated, err
		}
		s.succeed(ctx, usr, "")
		return Authenticated, nil
	}

	if exists, err := s.profiles.EmailExists(ctx, nu.Email); err != nil {
		s.logger.Debug("auth: email lookup failed, continuing sign-up", err)
	} else if exists {
		s.fail()
		return Unauthenticated, ErrEmailAlreadyInUse
	}

	metadata := map[string]interface{}{
		"first_name": nu.FirstName,
		"last_name":  nu.LastName,
		"role":       string(nu.Role),
	}

	if s.skipVerification {
		ident, err := s.provider.SignUp(ctx, nu.Email, nu.Password, metadata)
		if err != nil {
			s.fail()
			return Unauthenticated, Classify(err)
		}
		usr, _ := s.persistProfile(ctx, nu.User(ident.UserID, core.Now()))
		s.succeed(ctx, usr, ident.AccessToken)
		return Authenticated, nil
	}

	if err := s.provider.SendOneTimeCode(ctx, nu.Email, metadata); err != nil {
		s.fail()
		return Unauthenticated, Classify(err)
	}

	s.mu.Lock()
	s.pending = &pendingSignUp{NewUser: nu, sentAt: core.Now()}
	s.setLocked(PendingVerification, nil, false)
	s.mu.Unlock()
	s.logger.Info("auth: verification code sent", map[string]interface{}{"email": nu.Email})
	return PendingVerification, nil
}

func (s *Service) localSignUp(ctx context.Context, nu user.NewUser) (user.User, error) {
	if s.local == nil {
		return user.User{}, ErrNotConfigured
	}
	if _, exists := s.local.GetUserByEmail(nu.Email); exists {
		return user.User{}, ErrEmailAlreadyInUse
	}
	if err := core.Sleep(ctx, s.signUpLatency); err != nil {
		return user.User{}, err
	}
	usr := nu.User(core.NewID(), core.Now())
	if err := s.local.AddUser(ctx, usr, nu.Password); errors.Is(err, user.ErrEmailExists) {
		return user.User{}, ErrEmailAlreadyInUse
	} else if err != nil {
		return user.User{}, errors.Wrap(err, "saving local user")
	}
	return usr, nil
}

// persistProfile writes a new profile; a failure is logged and returned, never fatal.
func (s *Service) persistProfile(ctx context.Context, usr user.User) (user.User, error) {
	created, err := s.profiles.Create(ctx, usr)
	if err != nil {
		s.logger.Warn("auth: profile not persisted", usr, err)
		return usr, err
	}
	return created, nil
}

// VerifyOneTimeCode completes a pending sign-up.
// A wrong code keeps the sign-up pending; any other failure abandons it.
func (s *Service) VerifyOneTimeCode(ctx context.Context, email, code string) (Verification, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.provider == nil {
		return Verification{}, ErrNotConfigured
	}
	email = core.CleanString(email, true /* lower */)

	s.mu.Lock()
	pending := s.pending
	if pending == nil || pending.Email != email || s.state != PendingVerification {
		s.mu.Unlock()
		return Verification{}, ErrNoPendingSignUp
	}
	s.setLocked(PendingVerification, nil, true)
	s.mu.Unlock()

	ident, err := s.provider.VerifyOneTimeCode(ctx, email, core.CleanString(code))
	if err != nil {
		kind := Classify(err)
		s.mu.Lock()
		if errors.Is(kind, ErrInvalidOneTimeCode) {
			s.setLocked(PendingVerification, nil, false)
		} else {
			s.pending = nil
			s.setLocked(Unauthenticated, nil, false)
		}
		s.mu.Unlock()
		return Verification{}, kind
	}

	if err := s.provider.UpdatePassword(ctx, ident.AccessToken, pending.Password); err != nil {
		s.logger.Warn("auth: setting password after verification", err)
	}

	usr := pending.NewUser.User(ident.UserID, core.Now())
	if ident.Email != "" {
		usr.Email = core.CleanString(ident.Email, true /* lower */)
	}
	usr, persistErr := s.persistProfile(ctx, usr)

	s.mu.Lock()
	s.pending = nil // drops the password
	s.mu.Unlock()
	s.succeed(ctx, usr, ident.AccessToken)

	v := Verification{User: usr, Outcome: OutcomeAuthenticated}
	if persistErr != nil {
		v.Outcome = OutcomeAuthenticatedWithUnpersistedProfile
		v.PersistErr = persistErr
	}
	return v, nil
}

// ResendOneTimeCode emails a fresh code for the pending sign-up.
func (s *Service) ResendOneTimeCode(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.provider == nil {
		return ErrNotConfigured
	}
	s.mu.RLock()
	pending := s.pending
	state := s.state
	s.mu.RUnlock()
	if pending == nil || state != PendingVerification {
		return ErrNoPendingSignUp
	}
	if err := s.provider.SendOneTimeCode(ctx, pending.Email, nil); err != nil {
		return Classify(err)
	}
	s.mu.Lock()
	if s.pending != nil {
		s.pending.sentAt = core.Now()
	}
	s.mu.Unlock()
	return nil
}

// CancelVerification abandons a pending sign-up.
func (s *Service) CancelVerification() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return
	}
	s.pending = nil
	s.setLocked(Unauthenticated, nil, false)
}

// SignOut ends the session. Invalidating the remote session is best-effort.
func (s *Service) SignOut(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()
	s.remoteSignOut(ctx, token)
	s.forgetToken(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.pending = nil
	s.setLocked(Unauthenticated, nil, false)
}

func (s *Service) remoteSignOut(ctx context.Context, token string) {
	if s.provider == nil || token == "" {
		return
	}
	if err := s.provider.SignOut(ctx, token); err != nil {
		s.logger.Warn("auth: remote sign-out failed", err)
	}
}

func (s *Service) forgetToken(ctx context.Context) {
	if s.prefs == nil {
		return
	}
	if err := s.prefs.Delete(ctx, SessionTokenKey); err != nil && !core.IsNotFound(err) {
		s.logger.Warn("auth: forgetting session token", err)
	}
}

// CheckSessionOnStartup restores a persisted remote session.
// It returns true when the session is authenticated again.
func (s *Service) CheckSessionOnStartup(ctx context.Context) (bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.provider == nil || s.prefs == nil {
		return false, nil
	}
	raw, err := s.prefs.Get(ctx, SessionTokenKey)
	if core.IsNotFound(err) || (err == nil && len(raw) == 0) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "loading session token")
	}
	token := string(raw)

	s.set(Authenticating, nil, true)
	ident, err := s.provider.Session(ctx, token)
	if err != nil {
		kind := Classify(err)
		if !errors.Is(kind, ErrNetwork) {
			s.forgetToken(ctx) // stale session
			kind = nil
		}
		s.fail()
		return false, kind
	}

	usr, err := s.profiles.Fetch(ctx, ident.UserID)
	if err != nil {
		s.fail()
		if core.IsNotFound(err) {
			s.forgetToken(ctx)
			return false, ErrUserNotFound
		}
		return false, Classify(err)
	}
	if !usr.IsActive {
		s.remoteSignOut(ctx, token)
		s.forgetToken(ctx)
		s.fail()
		return false, ErrAccountDeactivated
	}
	s.succeed(ctx, usr, token)
	return true, nil
}
