package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
)

// StatsSource is implemented by repository.DashboardRepo.
type StatsSource interface {
	Stats(ctx context.Context, ownerID string, now time.Time) (*model.DashboardStats, error)
}

type DashboardHandler struct {
	Stats StatsSource
	Now   func() time.Time
}

func NewDashboardHandler(stats StatsSource) *DashboardHandler {
	return &DashboardHandler{Stats: stats, Now: time.Now}
}

func (h *DashboardHandler) GetStats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Stats.Stats(ctx, middleware.OwnerID(c), h.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Pricing returns the fixed tier price table.
func Pricing(c echo.Context) error {
	return c.JSON(http.StatusOK, model.MembershipPrice)
}
