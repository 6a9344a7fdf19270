// Package handler holds the Echo HTTP handlers.  Every tenant handler
// reads the owner id from the authenticated context, never from the
// request, and passes it to the store.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/service"
)

const (
	requestTimeout = 5 * time.Second
	defaultLimit   = 100
	maxLimit       = 500
)

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	v *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", service.ErrValidation, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return nil
}

// bind decodes the body into req and validates it.  When ok is false the
// error response has been written and err is what the handler returns.
func bind(c echo.Context, req interface{}) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, respondError(c, err)
	}
	return true, nil
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// paging reads skip and limit query parameters.  limit defaults to 100 and
// is capped at 500.
func paging(c echo.Context) (skip, limit int, err error) {
	skip, limit = 0, defaultLimit
	if v := c.QueryParam("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			return 0, 0, fmt.Errorf("%w: skip must be a non-negative integer", service.ErrValidation)
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			return 0, 0, fmt.Errorf("%w: limit must be a positive integer", service.ErrValidation)
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit, nil
}

// respondError writes the status and {"error": msg} body for err.
func respondError(c echo.Context, err error) error {
	var fe *model.FieldError
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrOpenCheckout):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	case errors.Is(err, service.ErrSignatureInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	case errors.Is(err, gateway.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment gateway not configured"})
	case errors.Is(err, service.ErrGateway):
		log.Warn().Err(err).Msg("payment gateway call failed")
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway error"})
	case errors.As(err, &fe):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": fe.Error()})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Str("path", c.Path()).Msg("request timed out")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "timeout"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", service.ErrValidation)
	}
	return d, nil
}
