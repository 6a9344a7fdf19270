package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/model"
)

// Context keys set by JWTAuth.
const (
	ctxOwner   = "owner"
	ctxOwnerID = "owner_id"
)

// OwnerID returns the authenticated owner's id, or "" on public routes.
func OwnerID(c echo.Context) string {
	if v, ok := c.Get(ctxOwnerID).(string); ok {
		return v
	}
	return ""
}

// Owner returns the authenticated owner, or nil on public routes.
func Owner(c echo.Context) *model.Owner {
	o, _ := c.Get(ctxOwner).(*model.Owner)
	return o
}
