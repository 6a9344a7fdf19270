package gateway

import (
	"encoding/json"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"

	"github.com/fitforxe/gym-backend/internal/config"
)

// Razorpay creates orders that the browser widget pays, and verifies the
// signatures it hands back.
type Razorpay struct {
	client *razorpay.Client
	cfg    config.RazorpayConfig
}

func NewRazorpay(cfg config.RazorpayConfig) *Razorpay {
	r := &Razorpay{cfg: cfg}
	if cfg.Enabled() {
		r.client = razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	}
	return r
}

// CreateOrder registers an order for req.Amount.
func (r *Razorpay) CreateOrder(req OrderRequest) (*Order, error) {
	if r.client == nil {
		return nil, ErrNotConfigured
	}
	currency := req.Currency
	if currency == "" {
		currency = r.cfg.Currency
	}
	notes := map[string]interface{}{}
	for k, v := range req.Notes {
		notes[k] = v
	}
	amount := MinorUnits(req.Amount)
	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay: create order: response has no id")
	}
	return &Order{ID: id, Amount: amount, Currency: currency, KeyID: r.cfg.KeyID}, nil
}

// VerifyPayment checks the signature the checkout widget returns after a
// successful payment.
func (r *Razorpay) VerifyPayment(orderID, paymentID, signature string) error {
	if r.cfg.KeySecret == "" {
		return ErrNotConfigured
	}
	attrs := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !utils.VerifyPaymentSignature(attrs, signature, r.cfg.KeySecret) {
		return ErrBadSignature
	}
	return nil
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseWebhook authenticates a delivery with the X-Razorpay-Signature header
// and classifies it.
func (r *Razorpay) ParseWebhook(body []byte, signature string) (Event, error) {
	if r.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}
	if signature == "" || !utils.VerifyWebhookSignature(string(body), signature, r.cfg.WebhookSecret) {
		return Event{}, ErrBadSignature
	}

	var w razorpayWebhook
	if err := json.Unmarshal(body, &w); err != nil {
		return Event{}, fmt.Errorf("razorpay: decode webhook: %w", err)
	}
	out := Event{Type: w.Event, PaymentID: w.Payload.Payment.Entity.ID}
	out.Ref = w.Payload.Payment.Entity.OrderID
	if out.Ref == "" {
		out.Ref = w.Payload.Order.Entity.ID
	}
	switch w.Event {
	case "payment.captured", "order.paid":
		out.Kind = EventPaid
	case "payment.failed":
		out.Kind = EventFailed
	}
	return out, nil
}
