package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

// SettleRequest asks for the transaction identified by (Gateway,
// GatewayRef) to be settled.  OwnerID is set on authenticated paths and
// restricts the lookup to that gym; webhooks leave it empty.
type SettleRequest struct {
	Gateway          model.Gateway
	GatewayRef       string
	GatewayPaymentID string
	OwnerID          string
}

// SettleOutcome reports what Settle did.
type SettleOutcome int

const (
	// SettleUnknown means no transaction matched an unauthenticated request.
	SettleUnknown SettleOutcome = iota
	Settled
	AlreadySettled
)

func (o SettleOutcome) String() string {
	switch o {
	case Settled:
		return "settled"
	case AlreadySettled:
		return "already_settled"
	}
	return "unknown"
}

// Settler turns a confirmed gateway payment into a ledger entry and a
// membership extension, exactly once per transaction.
type Settler struct {
	txs   TransactionStore
	now   func() time.Time
	newID func() string
}

func NewSettler(txs TransactionStore) *Settler {
	return &Settler{txs: txs, now: time.Now, newID: uuid.NewString}
}

// Settle is safe to call any number of times, concurrently, from the poll,
// verify and webhook paths.  Only the first call for a transaction writes.
func (s *Settler) Settle(ctx context.Context, req SettleRequest) (SettleOutcome, error) {
	var (
		tx  *model.PaymentTransaction
		err error
	)
	if req.OwnerID != "" {
		tx, err = s.txs.GetByGatewayRefForOwner(ctx, req.OwnerID, req.Gateway, req.GatewayRef)
	} else {
		tx, err = s.txs.GetByGatewayRef(ctx, req.Gateway, req.GatewayRef)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if req.OwnerID != "" {
				return SettleUnknown, ErrNotFound
			}
			log.Warn().Str("gateway", string(req.Gateway)).Str("ref", req.GatewayRef).
				Msg("settlement for unknown transaction ignored")
			return SettleUnknown, nil
		}
		return SettleUnknown, err
	}
	if tx.Status == model.TxCompleted {
		return AlreadySettled, nil
	}

	settlement := model.NewSettlement(*tx, req.GatewayPaymentID, s.newID(), s.now().UTC())
	won, err := s.txs.Complete(ctx, settlement)
	if err != nil {
		return SettleUnknown, err
	}
	if !won {
		return AlreadySettled, nil
	}
	log.Info().
		Str("owner_id", tx.OwnerID).
		Str("member_id", tx.MemberID).
		Str("transaction_id", tx.ID).
		Str("gateway", string(tx.Gateway)).
		Str("amount", tx.Amount.String()).
		Time("coverage_end", settlement.CoverageEnd).
		Msg("payment settled")
	return Settled, nil
}

// InlineDispatcher runs settlements in the calling goroutine.  It is used
// when no message broker is configured.
type InlineDispatcher struct {
	Settler *Settler
}

func (d InlineDispatcher) Dispatch(ctx context.Context, req SettleRequest) error {
	_, err := d.Settler.Settle(ctx, req)
	return err
}
