package service

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

var (
	ErrValidation                  = errors.New("validation failed")
	ErrInvalidTransition           = errors.New("invalid state transition")
	ErrDuplicateApplication        = errors.New("an application for this job already exists")
	ErrCapacityExceeded            = errors.New("slot capacity exceeded")
	ErrJobNotAcceptingApplications = errors.New("job is not accepting applications")
	ErrSlotSelectionRequired       = errors.New("slot selection required to accept this application")
	ErrInvalidOrExpiredCode        = errors.New("invalid or expired verification code")
	ErrAttemptsExceeded            = errors.New("verification attempts exceeded")
	ErrInvalidState                = errors.New("inconsistent capacity bookkeeping")

	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrForbidden           = errors.New("not allowed to manage this resource")

	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

// ValidationError reports every violated field of a request, not just the
// first one, so the caller can render a complete form response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, ports.ErrNotFound)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isConflict(err error) bool {
	return errors.Is(err, ports.ErrConflict)
}
