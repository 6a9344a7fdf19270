package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

// PaymentStore is implemented by repository.PaymentRepo.
type PaymentStore interface {
	CreateManual(ctx context.Context, p *model.Payment) error
	List(ctx context.Context, ownerID string, f repository.PaymentFilter) ([]*model.Payment, error)
}

// PaymentHandler serves the manual ledger endpoints.
type PaymentHandler struct {
	Payments PaymentStore
	Now      func() time.Time
}

func NewPaymentHandler(payments PaymentStore) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Now: time.Now}
}

type paymentCreateReq struct {
	MemberID       string               `json:"member_id" validate:"required"`
	Amount         decimal.Decimal      `json:"amount"`
	PaymentMethod  model.PaymentMethod  `json:"payment_method" validate:"required"`
	MembershipType model.MembershipType `json:"membership_type" validate:"required"`
	Notes          *string              `json:"notes" validate:"omitempty,max=500"`
}

func (r paymentCreateReq) check() error {
	if !r.Amount.IsPositive() {
		return &model.FieldError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !r.PaymentMethod.Manual() {
		return &model.FieldError{Field: "payment_method", Reason: "must be one of cash, card, bank_transfer, upi, other"}
	}
	if !r.MembershipType.Valid() {
		return &model.FieldError{Field: "membership_type", Reason: "must be one of basic, premium, vip"}
	}
	return nil
}

// Create records a front-desk payment and extends the member by one period.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req paymentCreateReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if err := req.check(); err != nil {
		return respondError(c, err)
	}

	now := h.Now().UTC()
	p := &model.Payment{
		ID:             uuid.NewString(),
		OwnerID:        middleware.OwnerID(c),
		MemberID:       req.MemberID,
		Amount:         req.Amount.Round(2),
		PaymentDate:    now,
		PaymentMethod:  req.PaymentMethod,
		Status:         model.PaymentPaid,
		MembershipType: req.MembershipType,
		PeriodStart:    now,
		PeriodEnd:      model.CoverageEnd(now),
		Notes:          req.Notes,
		CreatedAt:      now,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Payments.CreateManual(ctx, p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// List returns the ledger newest first, optionally for one ?member_id=.
func (h *PaymentHandler) List(c echo.Context) error {
	return h.list(c, c.QueryParam("member_id"))
}

func (h *PaymentHandler) ListByMember(c echo.Context) error {
	return h.list(c, c.Param("member_id"))
}

func (h *PaymentHandler) list(c echo.Context, memberID string) error {
	skip, limit, err := paging(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	payments, err := h.Payments.List(ctx, middleware.OwnerID(c),
		repository.PaymentFilter{MemberID: memberID, Skip: skip, Limit: limit})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, payments)
}
