package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
	"github.com/fitforxe/gym-backend/internal/service"
)

// MemberStore is implemented by repository.MemberRepo.
type MemberStore interface {
	Create(ctx context.Context, m *model.Member) error
	Get(ctx context.Context, ownerID, id string) (*model.Member, error)
	List(ctx context.Context, ownerID string, f repository.MemberFilter) ([]*model.Member, error)
	Update(ctx context.Context, ownerID, id string, patch model.MemberPatch, now time.Time) (*model.Member, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// MemberHandler serves /api/members.
type MemberHandler struct {
	Members MemberStore
	Now     func() time.Time
}

func NewMemberHandler(members MemberStore) *MemberHandler {
	return &MemberHandler{Members: members, Now: time.Now}
}

type memberCreateReq struct {
	FirstName             string               `json:"first_name" validate:"required,max=100"`
	LastName              string               `json:"last_name" validate:"required,max=100"`
	Email                 string               `json:"email" validate:"required,email"`
	Phone                 string               `json:"phone" validate:"max=40"`
	DateOfBirth           string               `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	MembershipType        model.MembershipType `json:"membership_type" validate:"required"`
	EmergencyContactName  *string              `json:"emergency_contact_name" validate:"omitempty,max=120"`
	EmergencyContactPhone *string              `json:"emergency_contact_phone" validate:"omitempty,max=40"`
	MedicalConditions     *string              `json:"medical_conditions"`
	AutoBillingEnabled    bool                 `json:"auto_billing_enabled"`
}

// memberPatchReq mirrors model.MemberPatch with the date as text.
type memberPatchReq struct {
	FirstName             *string               `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName              *string               `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email                 *string               `json:"email" validate:"omitempty,email"`
	Phone                 *string               `json:"phone" validate:"omitempty,max=40"`
	DateOfBirth           *string               `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	MembershipType        *model.MembershipType `json:"membership_type"`
	Status                *model.MemberStatus   `json:"status"`
	EmergencyContactName  *string               `json:"emergency_contact_name" validate:"omitempty,max=120"`
	EmergencyContactPhone *string               `json:"emergency_contact_phone" validate:"omitempty,max=40"`
	MedicalConditions     *string               `json:"medical_conditions"`
	AutoBillingEnabled    *bool                 `json:"auto_billing_enabled"`
}

func (r memberPatchReq) patch() (model.MemberPatch, error) {
	p := model.MemberPatch{
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		Email:                 r.Email,
		Phone:                 r.Phone,
		MembershipType:        r.MembershipType,
		Status:                r.Status,
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		MedicalConditions:     r.MedicalConditions,
		AutoBillingEnabled:    r.AutoBillingEnabled,
	}
	if r.DateOfBirth != nil {
		dob, err := parseDate(*r.DateOfBirth)
		if err != nil {
			return p, err
		}
		p.DateOfBirth = &dob
	}
	return p, p.Validate()
}

// Create adds a member with a fresh 30 day active membership.
func (h *MemberHandler) Create(c echo.Context) error {
	var req memberCreateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !req.MembershipType.Valid() {
		return respondError(c, &model.FieldError{Field: "membership_type", Reason: "must be one of basic, premium, vip"})
	}

	now := h.Now().UTC()
	m := &model.Member{
		ID:                    uuid.NewString(),
		OwnerID:               middleware.OwnerID(c),
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		Email:                 model.NormalizeEmail(req.Email),
		Phone:                 req.Phone,
		MembershipType:        req.MembershipType,
		MembershipStartDate:   now,
		MembershipEndDate:     model.CoverageEnd(now),
		Status:                model.MemberActive,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		MedicalConditions:     req.MedicalConditions,
		AutoBillingEnabled:    req.AutoBillingEnabled,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return respondError(c, err)
		}
		m.DateOfBirth = &dob
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Members.Create(ctx, m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// List returns the gym's members, optionally filtered by ?status=.
func (h *MemberHandler) List(c echo.Context) error {
	skip, limit, err := paging(c)
	if err != nil {
		return respondError(c, err)
	}
	f := repository.MemberFilter{Skip: skip, Limit: limit}
	if s := c.QueryParam("status"); s != "" {
		f.Status = model.MemberStatus(s)
		if !f.Status.Valid() {
			return respondError(c, fmt.Errorf("%w: unknown status %q", service.ErrValidation, s))
		}
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	members, err := h.Members.List(ctx, middleware.OwnerID(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.Get(ctx, middleware.OwnerID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Update applies only the fields present in the body.  It serves both PUT
// and PATCH.
func (h *MemberHandler) Update(c echo.Context) error {
	var req memberPatchReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	patch, err := req.patch()
	if err != nil {
		return respondError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Members.Update(ctx, middleware.OwnerID(c), c.Param("id"), patch, h.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Members.Delete(ctx, middleware.OwnerID(c), c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
