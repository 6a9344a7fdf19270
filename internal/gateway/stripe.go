package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/fitforxe/gym-backend/internal/config"
)

// Stripe creates hosted checkout sessions.  A zero-value key leaves the
// client unconfigured; every call then returns ErrNotConfigured, except
// ParseWebhook which only needs the webhook secret.
type Stripe struct {
	api *client.API
	cfg config.StripeConfig
}

func NewStripe(cfg config.StripeConfig) *Stripe {
	s := &Stripe{cfg: cfg}
	if cfg.Enabled() {
		s.api = &client.API{}
		s.api.Init(cfg.SecretKey, nil)
	}
	return s
}

// CreateCheckout opens a one-off payment session for req.
func (s *Stripe) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.ProductName),
				},
				UnitAmount: stripe.Int64(MinorUnits(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create session: %w", err)
	}
	return toCheckoutSession(sess), nil
}

// GetCheckout fetches the current state of session id.
func (s *Stripe) GetCheckout(ctx context.Context, id string) (*CheckoutSession, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get session: %w", err)
	}
	return toCheckoutSession(sess), nil
}

// ParseWebhook authenticates a delivery with the Stripe-Signature header and
// classifies it.  Unknown event types come back as EventIgnored.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (Event, error) {
	if s.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	out := Event{Type: string(ev.Type)}
	switch out.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		out.Kind = EventPaid
	case "checkout.session.expired":
		out.Kind = EventExpired
	case "checkout.session.async_payment_failed":
		out.Kind = EventFailed
	default:
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
		return Event{}, fmt.Errorf("stripe: decode session: %w", err)
	}
	out.Ref = sess.ID
	if sess.PaymentIntent != nil {
		out.PaymentID = sess.PaymentIntent.ID
	}
	// completed fires for delayed methods before funds arrive
	if out.Kind == EventPaid && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		out.Kind = EventIgnored
	}
	return out, nil
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:       sess.ID,
		URL:      sess.URL,
		Currency: string(sess.Currency),
		Paid:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired:  sess.Status == stripe.CheckoutSessionStatusExpired,
	}
	if sess.PaymentIntent != nil {
		out.PaymentID = sess.PaymentIntent.ID
	}
	return out
}
