package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
)

// Checkout starts gateway payments for a member's current tier and brings
// their results back through the Settler.
type Checkout struct {
	members MemberLookup
	txs     TransactionStore
	card    CardGateway
	orders  OrderGateway
	settler *Settler
	now     func() time.Time
}

func NewCheckout(members MemberLookup, txs TransactionStore, card CardGateway, orders OrderGateway, settler *Settler) *Checkout {
	return &Checkout{members: members, txs: txs, card: card, orders: orders, settler: settler, now: time.Now}
}

// CardSession is what the browser needs to redirect to hosted checkout.
type CardSession struct {
	SessionID string          `json:"session_id"`
	URL       string          `json:"url"`
	Amount    decimal.Decimal `json:"amount"`
}

// CardStatus is the result of polling a hosted checkout.
type CardStatus struct {
	SessionID string                  `json:"session_id"`
	Status    model.TransactionStatus `json:"status"`
	Paid      bool                    `json:"paid"`
}

// OrderSession is what the browser widget needs to collect a payment.
type OrderSession struct {
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	KeyID    string          `json:"key_id"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Checkout) priced(ctx context.Context, ownerID, memberID string) (*model.Member, decimal.Decimal, error) {
	m, err := s.members.Get(ctx, ownerID, memberID)
	if err != nil {
		return nil, decimal.Zero, storeErr(err)
	}
	price, ok := model.PriceFor(m.MembershipType)
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("%w: unknown membership type %q", ErrValidation, m.MembershipType)
	}
	return m, price, nil
}

func (s *Checkout) record(ctx context.Context, ownerID string, m *model.Member, gw model.Gateway, ref, currency string, amount decimal.Decimal) error {
	now := s.now().UTC()
	tx := &model.PaymentTransaction{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		MemberID:       m.ID,
		Gateway:        gw,
		GatewayRef:     ref,
		Amount:         amount,
		Currency:       currency,
		Method:         gw.Method(),
		Status:         model.TxInitiated,
		MembershipType: m.MembershipType,
		Metadata: map[string]string{
			"member_id":       m.ID,
			"owner_id":        ownerID,
			"membership_type": string(m.MembershipType),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return storeErr(s.txs.Create(ctx, tx))
}

// StartCard opens a hosted card checkout for the member's tier price.  When
// the gateway call fails nothing is stored.
func (s *Checkout) StartCard(ctx context.Context, ownerID, memberID string) (*CardSession, error) {
	m, price, err := s.priced(ctx, ownerID, memberID)
	if err != nil {
		return nil, err
	}
	sess, err := s.card.CreateCheckout(ctx, gateway.CheckoutRequest{
		Amount:        price,
		ProductName:   fmt.Sprintf("%s membership", m.MembershipType),
		CustomerEmail: m.Email,
		Metadata: map[string]string{
			"member_id":       m.ID,
			"owner_id":        ownerID,
			"membership_type": string(m.MembershipType),
		},
	})
	if err != nil {
		return nil, gatewayErr("create checkout", err)
	}
	if err := s.record(ctx, ownerID, m, model.GatewayStripe, sess.ID, sess.Currency, price); err != nil {
		return nil, err
	}
	return &CardSession{SessionID: sess.ID, URL: sess.URL, Amount: price}, nil
}

// CardStatus polls the gateway for session id and settles or expires the
// local transaction to match.  Sessions of other gyms are ErrNotFound.
func (s *Checkout) CardStatus(ctx context.Context, ownerID, sessionID string) (*CardStatus, error) {
	tx, err := s.txs.GetByGatewayRefForOwner(ctx, ownerID, model.GatewayStripe, sessionID)
	if err != nil {
		return nil, storeErr(err)
	}
	sess, err := s.card.GetCheckout(ctx, sessionID)
	if err != nil {
		return nil, gatewayErr("get checkout", err)
	}

	out := &CardStatus{SessionID: sessionID, Status: tx.Status, Paid: sess.Paid}
	switch {
	case sess.Paid:
		if _, err := s.settler.Settle(ctx, SettleRequest{
			Gateway:          model.GatewayStripe,
			GatewayRef:       sessionID,
			GatewayPaymentID: sess.PaymentID,
			OwnerID:          ownerID,
		}); err != nil {
			return nil, err
		}
		out.Status = model.TxCompleted
	case sess.Expired && tx.Status != model.TxCompleted:
		if _, err := s.txs.MarkStatus(ctx, tx.ID, model.TxExpired, s.now()); err != nil {
			return nil, err
		}
		out.Status = model.TxExpired
	}
	return out, nil
}

// StartOrder creates a regional gateway order for the member's tier price.
func (s *Checkout) StartOrder(ctx context.Context, ownerID, memberID string) (*OrderSession, error) {
	m, price, err := s.priced(ctx, ownerID, memberID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateOrder(gateway.OrderRequest{
		Amount:  price,
		Receipt: "rcpt_" + uuid.NewString()[:8],
		Notes: map[string]string{
			"member_id":       m.ID,
			"owner_id":        ownerID,
			"membership_type": string(m.MembershipType),
		},
	})
	if err != nil {
		return nil, gatewayErr("create order", err)
	}
	if err := s.record(ctx, ownerID, m, model.GatewayRazorpay, order.ID, order.Currency, price); err != nil {
		return nil, err
	}
	return &OrderSession{OrderID: order.ID, Amount: order.Amount, Currency: order.Currency, KeyID: order.KeyID, Price: price}, nil
}

// VerifyOrder checks the widget's signature before touching any state and
// then settles the order.
func (s *Checkout) VerifyOrder(ctx context.Context, ownerID, orderID, paymentID, signature string) (SettleOutcome, error) {
	if err := s.orders.VerifyPayment(orderID, paymentID, signature); err != nil {
		return SettleUnknown, gatewayErr("verify payment", err)
	}
	return s.settler.Settle(ctx, SettleRequest{
		Gateway:          model.GatewayRazorpay,
		GatewayRef:       orderID,
		GatewayPaymentID: paymentID,
		OwnerID:          ownerID,
	})
}
