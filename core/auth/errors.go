package auth

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var (
	// errors
	ErrUserNotFound       = errors.New("User not found. Please check your credentials.")
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrEmailAlreadyInUse  = errors.New("This email is already registered.")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters and not resemble your name or email.")
	ErrNetwork            = errors.New("Network error. Please check your connection.")
	ErrAccountDeactivated = errors.New("This account has been deactivated. Please contact your administrator.")
	ErrNotConfigured      = errors.New("Authentication service is not configured.")
	ErrInvalidOneTimeCode = errors.New("Invalid verification code. Please try again.")
	ErrOneTimeCodeExpired = errors.New("Verification code has expired. Please request a new one.")
	ErrNoPendingSignUp    = errors.New("No sign-up is awaiting verification for this email. Please sign up again.")
)

var taxonomy = []error{
	ErrUserNotFound, ErrInvalidCredentials, ErrEmailAlreadyInUse, ErrWeakPassword, ErrNetwork,
	ErrAccountDeactivated, ErrNotConfigured, ErrInvalidOneTimeCode, ErrOneTimeCodeExpired, ErrNoPendingSignUp,
}

// UnknownError is a provider failure that matched no known kind.
type UnknownError struct {
	Message string
	Err     error
}

func (e *UnknownError) Error() string { return e.Message }
func (e *UnknownError) Unwrap() error { return e.Err }

// structured provider codes
var codeKinds = map[string]error{
	"invalid_credentials":     ErrInvalidCredentials,
	"invalid_grant":           ErrInvalidCredentials,
	"user_not_found":          ErrUserNotFound,
	"email_exists":            ErrEmailAlreadyInUse,
	"user_already_exists":     ErrEmailAlreadyInUse,
	"weak_password":           ErrWeakPassword,
	"user_banned":             ErrAccountDeactivated,
	"otp_invalid":             ErrInvalidOneTimeCode,
	"otp_expired":             ErrOneTimeCodeExpired,
	"session_not_found":       ErrUserNotFound,
	"request_timeout":         ErrNetwork,
	"over_request_rate_limit": ErrNetwork,
}

// Classify maps any provider or backend failure onto the authentication errors.
// Structured codes win; the message heuristics are a best-effort fallback.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range taxonomy {
		if errors.Is(err, known) {
			return known
		}
	}
	var unknown *UnknownError
	if errors.As(err, &unknown) {
		return unknown
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork
	}

	msg := err.Error()
	var re *core.RemoteError
	if errors.As(err, &re) {
		if re.Err != nil { // no answer from the remote
			return ErrNetwork
		}
		if kind, ok := codeKinds[re.Code]; ok {
			// one code covers both a wrong and an expired code upstream
			if kind == ErrOneTimeCodeExpired && strings.Contains(strings.ToLower(re.Message), "invalid") {
				return ErrInvalidOneTimeCode
			}
			return kind
		}
		if re.Message != "" {
			msg = re.Message
		}
	} else {
		var nerr net.Error
		if errors.As(err, &nerr) {
			return ErrNetwork
		}
	}
	if kind := classifyMessage(msg); kind != nil {
		return kind
	}
	return &UnknownError{Message: msg, Err: err}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func classifyMessage(msg string) error {
	m := strings.ToLower(msg)
	switch {
	case containsAny(m, "network", "connection", "timed out", "offline"):
		return ErrNetwork
	case containsAny(m, "user not found", "no user"):
		return ErrUserNotFound
	case containsAny(m, "invalid login", "invalid credentials", "invalid password"):
		return ErrInvalidCredentials
	case containsAny(m, "already registered", "already exists", "already in use"):
		return ErrEmailAlreadyInUse
	case containsAny(m, "weak", "password should be"):
		return ErrWeakPassword
	case strings.Contains(m, "expired") && !strings.Contains(m, "invalid"):
		return ErrOneTimeCodeExpired
	case containsAny(m, "otp", "token", "code"):
		return ErrInvalidOneTimeCode
	case containsAny(m, "banned", "deactivated", "disabled"):
		return ErrAccountDeactivated
	}
	return nil
}
