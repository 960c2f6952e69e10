package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigboard/gigboard-api/internal/service"
	"github.com/gigboard/gigboard-api/internal/util"
)

// serviceError maps service sentinels onto HTTP responses. Handlers call it
// as their default arm after handling any endpoint-specific cases.
func serviceError(c echo.Context, err error) error {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, util.FieldErrors("validation failed", vErr.Fields))
	}

	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrDuplicateApplication):
		return c.JSON(http.StatusConflict, util.Error("you already applied to this job"))
	case errors.Is(err, service.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, util.Error("the selected slot is no longer available"))
	case errors.Is(err, service.ErrJobNotAcceptingApplications):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrSlotSelectionRequired):
		return c.JSON(http.StatusBadRequest, util.Error("select at least one time slot to accept this application"))
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		return c.JSON(http.StatusBadRequest, util.Error("invalid or expired verification code"))
	case errors.Is(err, service.ErrAttemptsExceeded):
		return c.JSON(http.StatusTooManyRequests, util.Error("too many verification attempts, request a new code"))
	case errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrApplicationNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, util.Error("not allowed"))
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return c.JSON(http.StatusConflict, util.Error("email already registered"))
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusInternalServerError, util.Error("internal bookkeeping error"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error("internal server error"))
	}
}
