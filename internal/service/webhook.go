package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/gateway"
	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/repository"
)

// Webhooks authenticates gateway deliveries and acts on them.  Nothing is
// read or written before the signature checks out.
type Webhooks struct {
	card     CardGateway
	orders   OrderGateway
	txs      TransactionStore
	dispatch SettlementDispatcher
	now      func() time.Time
}

func NewWebhooks(card CardGateway, orders OrderGateway, txs TransactionStore, dispatch SettlementDispatcher) *Webhooks {
	return &Webhooks{card: card, orders: orders, txs: txs, dispatch: dispatch, now: time.Now}
}

// HandleStripe processes a card gateway delivery.
func (w *Webhooks) HandleStripe(ctx context.Context, payload []byte, signature string) error {
	ev, err := w.card.ParseWebhook(payload, signature)
	if err != nil {
		return webhookErr(err)
	}
	return w.handle(ctx, model.GatewayStripe, ev)
}

// HandleRazorpay processes a regional gateway delivery.
func (w *Webhooks) HandleRazorpay(ctx context.Context, body []byte, signature string) error {
	ev, err := w.orders.ParseWebhook(body, signature)
	if err != nil {
		return webhookErr(err)
	}
	return w.handle(ctx, model.GatewayRazorpay, ev)
}

func (w *Webhooks) handle(ctx context.Context, gw model.Gateway, ev gateway.Event) error {
	logger := log.With().Str("gateway", string(gw)).Str("event", ev.Type).Str("ref", ev.Ref).Logger()
	if ev.Ref == "" && ev.Kind != gateway.EventIgnored {
		logger.Warn().Msg("webhook without a reference ignored")
		return nil
	}

	switch ev.Kind {
	case gateway.EventPaid:
		return w.dispatch.Dispatch(ctx, SettleRequest{Gateway: gw, GatewayRef: ev.Ref, GatewayPaymentID: ev.PaymentID})
	case gateway.EventExpired, gateway.EventFailed:
		status := model.TxExpired
		if ev.Kind == gateway.EventFailed {
			status = model.TxFailed
		}
		tx, err := w.txs.GetByGatewayRef(ctx, gw, ev.Ref)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		changed, err := w.txs.MarkStatus(ctx, tx.ID, status, w.now())
		if err != nil {
			return err
		}
		logger.Info().Bool("changed", changed).Str("status", string(status)).Msg("transaction closed by webhook")
		return nil
	}
	logger.Debug().Msg("webhook ignored")
	return nil
}

func webhookErr(err error) error {
	if errors.Is(err, gateway.ErrBadSignature) {
		return ErrSignatureInvalid
	}
	if errors.Is(err, gateway.ErrNotConfigured) {
		return gatewayErr("webhook", err)
	}
	return errors.Join(ErrValidation, err)
}
