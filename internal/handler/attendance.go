package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

// AttendanceStore is implemented by repository.AttendanceRepo.
type AttendanceStore interface {
	CheckIn(ctx context.Context, a *model.Attendance) error
	CheckOut(ctx context.Context, ownerID, memberID string, day, at time.Time) error
	List(ctx context.Context, ownerID string, f repository.AttendanceFilter) ([]*model.Attendance, error)
}

type AttendanceHandler struct {
	Visits AttendanceStore
	Now    func() time.Time
}

func NewAttendanceHandler(visits AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{Visits: visits, Now: time.Now}
}

type checkInReq struct {
	MemberID string `json:"member_id" validate:"required"`
}

// CheckIn opens today's visit.  A second check-in while one is open is 409.
func (h *AttendanceHandler) CheckIn(c echo.Context) error {
	var req checkInReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	now := h.Now().UTC()
	a := &model.Attendance{
		ID:          uuid.NewString(),
		OwnerID:     middleware.OwnerID(c),
		MemberID:    req.MemberID,
		CheckInTime: now,
		Date:        model.DayStart(now),
		CreatedAt:   now,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Visits.CheckIn(ctx, a); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

// CheckOut closes today's open visit for the member, 404 when there is none.
func (h *AttendanceHandler) CheckOut(c echo.Context) error {
	now := h.Now().UTC()
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Visits.CheckOut(ctx, middleware.OwnerID(c), c.Param("member_id"), model.DayStart(now), now); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "checked out", "check_out_time": now})
}

// List returns visits newest first, optionally for one ?date=YYYY-MM-DD.
func (h *AttendanceHandler) List(c echo.Context) error {
	skip, limit, err := paging(c)
	if err != nil {
		return respondError(c, err)
	}
	f := repository.AttendanceFilter{Skip: skip, Limit: limit}
	if v := c.QueryParam("date"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return respondError(c, err)
		}
		f.Date = &d
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	visits, err := h.Visits.List(ctx, middleware.OwnerID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, visits)
}
