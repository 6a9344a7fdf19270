package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	EnsureDefault(ctx context.Context, ownerID, gymName string, now time.Time) error
	Get(ctx context.Context, ownerID string) (*model.Profile, error)
	Update(ctx context.Context, ownerID string, patch model.ProfilePatch, now time.Time) (*model.Profile, error)
}

type ProfileHandler struct {
	Profiles ProfileStore
	Now      func() time.Time
}

func NewProfileHandler(profiles ProfileStore) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Now: time.Now}
}

// Get returns the gym profile, provisioning it if registration could not.
func (h *ProfileHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.ensure(ctx, c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	var patch model.ProfilePatch
	if ok, err := bind(c, &patch); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.ensure(ctx, c); err != nil {
		return respondError(c, err)
	}
	p, err := h.Profiles.Update(ctx, middleware.OwnerID(c), patch, h.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) ensure(ctx context.Context, c echo.Context) (*model.Profile, error) {
	ownerID := middleware.OwnerID(c)
	p, err := h.Profiles.Get(ctx, ownerID)
	if !errors.Is(err, repository.ErrNotFound) {
		return p, err
	}
	var gym string
	if o := middleware.Owner(c); o != nil {
		gym = o.GymName
	}
	if err := h.Profiles.EnsureDefault(ctx, ownerID, gym, h.Now()); err != nil {
		return nil, err
	}
	return h.Profiles.Get(ctx, ownerID)
}
