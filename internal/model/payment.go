package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoverageDays is the length of every paid period regardless of tier.
const CoverageDays = 30

// CoverageEnd returns the end of a coverage period starting at start.
func CoverageEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, CoverageDays)
}

// MembershipPrice is the fixed monthly price table.
var MembershipPrice = map[MembershipType]decimal.Decimal{
	MembershipBasic:   decimal.RequireFromString("29.99"),
	MembershipPremium: decimal.RequireFromString("49.99"),
	MembershipVIP:     decimal.RequireFromString("79.99"),
}

// PriceFor returns the price of tier t and false when t is unknown.
func PriceFor(t MembershipType) (decimal.Decimal, bool) {
	p, ok := MembershipPrice[t]
	return p, ok
}

// PaymentStatus is the state of a ledger entry.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentFailed  PaymentStatus = "failed"
)

// PaymentMethod names how money was collected.
type PaymentMethod string

const (
	MethodStripe       PaymentMethod = "stripe"
	MethodRazorpay     PaymentMethod = "razorpay"
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodUPI          PaymentMethod = "upi"
	MethodOther        PaymentMethod = "other"
)

// Manual reports whether m can be recorded by hand at the front desk.
// Gateway methods are only ever written by settlement.
func (m PaymentMethod) Manual() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodUPI, MethodOther:
		return true
	}
	return false
}

// Payment is an immutable ledger entry.
type Payment struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"-"`
	MemberID       string          `json:"member_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentDate    time.Time       `json:"payment_date"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	Status         PaymentStatus   `json:"status"`
	MembershipType MembershipType  `json:"membership_type"`
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	Notes          *string         `json:"notes,omitempty"`
	TransactionID  *string         `json:"transaction_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Gateway identifies a remote payment provider.
type Gateway string

const (
	GatewayStripe   Gateway = "stripe"
	GatewayRazorpay Gateway = "razorpay"
)

// Valid reports whether g is a supported provider.
func (g Gateway) Valid() bool {
	return g == GatewayStripe || g == GatewayRazorpay
}

// Method is the ledger payment method recorded for settlements through g.
func (g Gateway) Method() PaymentMethod {
	return PaymentMethod(g)
}

// TransactionStatus tracks an in-flight gateway checkout.
type TransactionStatus string

const (
	TxInitiated TransactionStatus = "initiated"
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxExpired   TransactionStatus = "expired"
)

// PaymentTransaction mirrors one checkout session or order at a gateway.
// (Gateway, GatewayRef) is unique.  Status reaches completed at most once.
type PaymentTransaction struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"-"`
	MemberID         string            `json:"member_id"`
	Gateway          Gateway           `json:"gateway"`
	GatewayRef       string            `json:"gateway_ref"`
	GatewayPaymentID *string           `json:"gateway_payment_id,omitempty"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         string            `json:"currency"`
	Method           PaymentMethod     `json:"payment_method"`
	Status           TransactionStatus `json:"status"`
	MembershipType   MembershipType    `json:"membership_type"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// Settlement is everything written when a transaction completes.
type Settlement struct {
	TransactionID    string
	OwnerID          string
	MemberID         string
	GatewayPaymentID string
	Payment          Payment
	CoverageEnd      time.Time
}

// NewSettlement builds the ledger entry and membership extension for tx at now.
func NewSettlement(tx PaymentTransaction, gatewayPaymentID, paymentID string, now time.Time) Settlement {
	end := CoverageEnd(now)
	txID := tx.ID
	return Settlement{
		TransactionID:    tx.ID,
		OwnerID:          tx.OwnerID,
		MemberID:         tx.MemberID,
		GatewayPaymentID: gatewayPaymentID,
		CoverageEnd:      end,
		Payment: Payment{
			ID:             paymentID,
			OwnerID:        tx.OwnerID,
			MemberID:       tx.MemberID,
			Amount:         tx.Amount,
			PaymentDate:    now,
			PaymentMethod:  tx.Method,
			Status:         PaymentPaid,
			MembershipType: tx.MembershipType,
			PeriodStart:    now,
			PeriodEnd:      end,
			TransactionID:  &txID,
			CreatedAt:      now,
		},
	}
}
