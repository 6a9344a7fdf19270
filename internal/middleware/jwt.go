package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/service"
)

// TokenValidator is implemented by service.Tokens.
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*service.Principal, error)
}

// JWTAuth rejects requests without a valid, unrevoked bearer token and
// stores the resolved owner in the context.  Handlers read it back with
// Owner and OwnerID and never take an owner id from the request itself.
func JWTAuth(tokens TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			p, err := tokens.Validate(c.Request().Context(), raw)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthorized) {
					log.Error().Err(err).Msg("token validation failed")
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(ctxOwner, p.Owner)
			c.Set(ctxOwnerID, p.Owner.ID)
			return next(c)
		}
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	raw := strings.TrimSpace(auth[len(prefix):])
	return raw, raw != ""
}
