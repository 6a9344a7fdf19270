// Package queue carries settlement requests over RabbitMQ so webhook
// deliveries can be acknowledged quickly and settled by a consumer.
package queue

import (
	"time"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/service"
)

// SettlementQueue is the durable queue both sides declare.
const SettlementQueue = "payments.settlement"

// SettlementRetryQueue holds requests whose settlement failed.  It has no
// consumer: each message expires after RetryDelay and is dead-lettered
// back onto SettlementQueue.
const SettlementRetryQueue = "payments.settlement.retry"

// RetryDelay is how long a failed request waits before its next attempt.
const RetryDelay = 30 * time.Second

// SettlementRequested is published when a gateway reports a payment as
// captured.  It carries no owner id: the consumer resolves the transaction
// from the gateway reference alone, as the webhook would have.
type SettlementRequested struct {
	Gateway          model.Gateway `json:"gateway"`
	GatewayRef       string        `json:"gateway_ref"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	RequestedAt      string        `json:"requested_at"`
}

func newSettlementRequested(req service.SettleRequest, at time.Time) SettlementRequested {
	return SettlementRequested{
		Gateway:          req.Gateway,
		GatewayRef:       req.GatewayRef,
		GatewayPaymentID: req.GatewayPaymentID,
		RequestedAt:      at.UTC().Format(time.RFC3339),
	}
}

func (e SettlementRequested) request() service.SettleRequest {
	return service.SettleRequest{
		Gateway:          e.Gateway,
		GatewayRef:       e.GatewayRef,
		GatewayPaymentID: e.GatewayPaymentID,
	}
}
