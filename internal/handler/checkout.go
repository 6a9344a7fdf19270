package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fitforxe/gym-backend/internal/middleware"
	"github.com/fitforxe/gym-backend/internal/service"
)

// CheckoutService is implemented by service.Checkout.
type CheckoutService interface {
	StartCard(ctx context.Context, ownerID, memberID string) (*service.CardSession, error)
	CardStatus(ctx context.Context, ownerID, sessionID string) (*service.CardStatus, error)
	StartOrder(ctx context.Context, ownerID, memberID string) (*service.OrderSession, error)
	VerifyOrder(ctx context.Context, ownerID, orderID, paymentID, signature string) (service.SettleOutcome, error)
}

// CheckoutHandler serves the authenticated gateway endpoints.
type CheckoutHandler struct {
	Checkout CheckoutService
}

func NewCheckoutHandler(checkout CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{Checkout: checkout}
}

type startCheckoutReq struct {
	MemberID string `json:"member_id" validate:"required"`
}

type verifyOrderReq struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

func (h *CheckoutHandler) StartCard(c echo.Context) error {
	var req startCheckoutReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	sess, err := h.Checkout.StartCard(ctx, middleware.OwnerID(c), req.MemberID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *CheckoutHandler) CardStatus(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Checkout.CardStatus(ctx, middleware.OwnerID(c), c.Param("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CheckoutHandler) StartOrder(c echo.Context) error {
	var req startCheckoutReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.Checkout.StartOrder(ctx, middleware.OwnerID(c), req.MemberID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// VerifyOrder settles an order once the widget's signature checks out.
// Repeating the call after success reports already_settled.
func (h *CheckoutHandler) VerifyOrder(c echo.Context) error {
	var req verifyOrderReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	outcome, err := h.Checkout.VerifyOrder(ctx, middleware.OwnerID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":   outcome.String(),
		"order_id": req.OrderID,
	})
}
