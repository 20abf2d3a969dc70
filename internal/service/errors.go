package service

import (
	"errors"
	"fmt"
	"strings"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/security"
	"go-admin-console/pkg/validator"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateName     = errors.New("role name already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrInvalidPermission = errors.New("invalid permission")
	ErrInvalidRole       = errors.New("role does not exist")
	ErrProtectedResource = errors.New("resource is protected")
	ErrResourceInUse     = errors.New("resource is in use")
	ErrWeakPassword      = errors.New("password does not satisfy the security policy")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid account status transition")
	ErrConflict          = errors.New("resource was modified concurrently, retry with fresh data")
	ErrAccountNotActive  = errors.New("account is not active")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrChallengeExpired  = errors.New("second factor challenge expired")
)

// ValidationError reports malformed input. Err, when set, names the specific
// cause (ErrDuplicateEmail, ErrWeakPassword) so errors.Is matches both.
type ValidationError struct {
	Message    string
	Fields     []*validator.ErrorResponse
	Violations []security.Violation
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		f := e.Fields[0]
		return fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", f.FailedField, f.Tag)
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func newValidationError(fields []*validator.ErrorResponse) error {
	return &ValidationError{Fields: fields}
}

// PasswordPolicyError lists every rule a password failed.
type PasswordPolicyError struct {
	Violations []security.Violation
}

func (e *PasswordPolicyError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "password " + strings.Join(msgs, ", ")
}

func (e *PasswordPolicyError) Unwrap() error {
	return ErrWeakPassword
}

// InvalidPermissionError lists the tokens rejected by the permission catalog.
type InvalidPermissionError struct {
	Tokens []string
}

func (e *InvalidPermissionError) Error() string {
	return fmt.Sprintf("invalid permission: %s", strings.Join(e.Tokens, ", "))
}

func (e *InvalidPermissionError) Unwrap() error {
	return ErrInvalidPermission
}

// IsRetryable reports whether the caller should retry once with fresh data.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// mapNotFound turns repository.ErrNotFound into the service error for what.
func mapNotFound(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return err
}

func checkPermissions(tokens []string) error {
	if bad := model.InvalidPermissions(tokens); len(bad) > 0 {
		return &InvalidPermissionError{Tokens: bad}
	}
	return nil
}
