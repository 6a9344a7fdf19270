// Package gateway adapts the remote payment providers to the small surface
// the settlement code needs: start a checkout, read its state back and
// authenticate webhook deliveries.
package gateway

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured is returned when the provider keys are missing.
	ErrNotConfigured = errors.New("gateway: not configured")
	// ErrBadSignature means a webhook or client callback failed HMAC
	// verification.
	ErrBadSignature = errors.New("gateway: signature verification failed")
)

// CheckoutRequest describes a hosted card checkout for one membership period.
type CheckoutRequest struct {
	Amount        decimal.Decimal
	Currency      string
	ProductName   string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the provider's view of a hosted checkout.
type CheckoutSession struct {
	ID        string
	URL       string
	Currency  string
	Paid      bool
	Expired   bool
	PaymentID string
}

// OrderRequest describes an order to be paid through the provider's
// client-side widget.
type OrderRequest struct {
	Amount   decimal.Decimal
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is a created provider order.  Amount is in minor units.
type Order struct {
	ID       string
	Amount   int64
	Currency string
	KeyID    string
}

// EventKind classifies an authenticated webhook delivery.
type EventKind int

const (
	EventIgnored EventKind = iota
	EventPaid
	EventExpired
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPaid:
		return "paid"
	case EventExpired:
		return "expired"
	case EventFailed:
		return "failed"
	}
	return "ignored"
}

// Event is a verified webhook reduced to what settlement needs.  Ref is the
// session or order id the local transaction was created with.
type Event struct {
	Type      string
	Kind      EventKind
	Ref       string
	PaymentID string
}

// MinorUnits converts a decimal amount to the integer minor-unit amount both
// providers expect, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
