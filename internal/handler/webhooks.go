package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// maxWebhookBody bounds what is read before the signature is checked.
// Larger deliveries are refused with 413.
const maxWebhookBody = 1 << 16

// WebhookService is implemented by service.Webhooks.
type WebhookService interface {
	HandleStripe(ctx context.Context, payload []byte, signature string) error
	HandleRazorpay(ctx context.Context, body []byte, signature string) error
}

// WebhookHandler receives unauthenticated gateway deliveries.  The raw body
// is passed through untouched because the signatures cover its exact bytes.
type WebhookHandler struct {
	Hooks WebhookService
}

func NewWebhookHandler(hooks WebhookService) *WebhookHandler {
	return &WebhookHandler{Hooks: hooks}
}

func (h *WebhookHandler) Stripe(c echo.Context) error {
	return h.receive(c, "Stripe-Signature", h.Hooks.HandleStripe)
}

func (h *WebhookHandler) Razorpay(c echo.Context) error {
	return h.receive(c, "X-Razorpay-Signature", h.Hooks.HandleRazorpay)
}

func (h *WebhookHandler) receive(c echo.Context, header string, handle func(context.Context, []byte, string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "body too large"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sig := c.Request().Header.Get(header)
	if sig == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := handle(ctx, body, sig); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
