package service

import (
	"context"
	"time"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
)

// OwnerStore is implemented by repository.OwnerRepo.
type OwnerStore interface {
	Create(ctx context.Context, o *model.Owner) error
	GetByEmail(ctx context.Context, email string) (*model.Owner, error)
	GetByEmailAndGym(ctx context.Context, email, gymName string) (*model.Owner, error)
	GetByID(ctx context.Context, id string) (*model.Owner, error)
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
}

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	EnsureDefault(ctx context.Context, ownerID, gymName string, now time.Time) error
}

// RevocationStore records revoked session jtis.  Implemented by
// repository.RevokedTokenRepo and repository.RedisRevocations.
type RevocationStore interface {
	Revoke(ctx context.Context, jti, ownerID string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ResetStore is implemented by repository.ResetRepo.
type ResetStore interface {
	Create(ctx context.Context, rec *model.PasswordReset) error
	GetByJTI(ctx context.Context, jti string) (*model.PasswordReset, error)
	MarkUsed(ctx context.Context, jti string, at time.Time) (bool, error)
}

// TransactionStore is implemented by repository.TransactionRepo.  Complete
// must be atomic: it reports true for exactly one caller per transaction.
type TransactionStore interface {
	Create(ctx context.Context, t *model.PaymentTransaction) error
	GetByGatewayRef(ctx context.Context, gw model.Gateway, ref string) (*model.PaymentTransaction, error)
	GetByGatewayRefForOwner(ctx context.Context, ownerID string, gw model.Gateway, ref string) (*model.PaymentTransaction, error)
	Complete(ctx context.Context, s model.Settlement) (bool, error)
	MarkStatus(ctx context.Context, id string, status model.TransactionStatus, at time.Time) (bool, error)
}

// MemberLookup is the read side of repository.MemberRepo.
type MemberLookup interface {
	Get(ctx context.Context, ownerID, id string) (*model.Member, error)
}

// CardGateway is implemented by gateway.Stripe.
type CardGateway interface {
	CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error)
	GetCheckout(ctx context.Context, id string) (*gateway.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (gateway.Event, error)
}

// OrderGateway is implemented by gateway.Razorpay.
type OrderGateway interface {
	CreateOrder(req gateway.OrderRequest) (*gateway.Order, error)
	VerifyPayment(orderID, paymentID, signature string) error
	ParseWebhook(body []byte, signature string) (gateway.Event, error)
}

// SettlementDispatcher hands a settlement request to whoever runs it: the
// settler directly, or a queue consumer.
type SettlementDispatcher interface {
	Dispatch(ctx context.Context, req SettleRequest) error
}
