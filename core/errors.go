package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by backends when no record matches an id.
var ErrNotFound = errors.New("record not found")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// DecodeError reports a transport representation that cannot be turned into an entity.
type DecodeError struct {
	Entity string
	Field  string // empty when the whole payload is malformed
	Err    error
}

func (err *DecodeError) Error() string {
	if err.Field == "" {
		return fmt.Sprintf("decoding %s: %v", err.Entity, err.Err)
	}
	return fmt.Sprintf("decoding %s.%s: %v", err.Entity, err.Field, err.Err)
}

func (err *DecodeError) Unwrap() error { return err.Err }

// RemoteError is a failure reported by a remote backend or auth provider.
// Code carries the structured error code when the transport provides one.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Err     error // transport error, nil when the remote answered
}

func (err *RemoteError) Error() string {
	switch {
	case err.Err != nil:
		return fmt.Sprintf("remote: %v", err.Err)
	case err.Code != "":
		return fmt.Sprintf("remote %d (%s): %s", err.Status, err.Code, err.Message)
	default:
		return fmt.Sprintf("remote %d: %s", err.Status, err.Message)
	}
}

func (err *RemoteError) Unwrap() error { return err.Err }

// IsNotFound is true for ErrNotFound and for remote 404 answers.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var re *RemoteError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}
