package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/service"
)

// Settler is the part of service.Settler the consumer needs.
type Settler interface {
	Settle(ctx context.Context, req service.SettleRequest) (service.SettleOutcome, error)
}

// StartSettlementConsumer connects to the broker, declares SettlementQueue
// and settles every request it receives.  It reconnects with backoff until
// ctx is cancelled and then returns ctx.Err().
func StartSettlementConsumer(ctx context.Context, url string, settler Settler) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("settlement-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, settler)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("settlement-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, settler Settler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn().Err(err).Msg("settlement-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(SettlementQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if _, err := ch.QueueDeclare(SettlementRetryQueue, true, false, false, false, retryQueueArgs()); err != nil {
		return fmt.Errorf("retry queue declare: %w", err)
	}
	msgs, err := ch.Consume(SettlementQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			settleDelivery(ctx, ch, d, d.Body, d.Headers, handleMessage(ctx, d.Body, settler))
		}
	}
}

func retryQueueArgs() amqp.Table {
	return amqp.Table{
		"x-message-ttl":             int32(RetryDelay / time.Millisecond),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": SettlementQueue,
	}
}

// errMalformed marks a message that can never be settled.
var errMalformed = errors.New("malformed settlement request")

// acker is the part of amqp.Delivery used to settle a message.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// retryPublisher is the part of amqp.Channel used to park a failed request.
type retryPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// settleDelivery acknowledges d according to the outcome of handling it.
// Only malformed bodies are discarded.  A failed settlement is copied onto
// SettlementRetryQueue before the original is acked; if that publish fails
// too the original is requeued, so a valid request is never lost.
func settleDelivery(ctx context.Context, pub retryPublisher, d acker, body []byte, headers amqp.Table, err error) {
	if err == nil {
		_ = d.Ack(false)
		return
	}
	if errors.Is(err, errMalformed) {
		log.Error().Err(err).Msg("settlement-consumer: discarding malformed message")
		_ = d.Nack(false, false)
		return
	}

	attempt := attempts(headers) + 1
	log.Warn().Err(err).Int32("attempt", attempt).Dur("retry_in", RetryDelay).
		Msg("settlement-consumer: settle failed; scheduling retry")
	retry := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{attemptHeader: attempt},
		Body:         body,
	}
	if perr := pub.PublishWithContext(ctx, "", SettlementRetryQueue, false, false, retry); perr != nil {
		log.Error().Err(perr).Msg("settlement-consumer: retry publish failed; requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

const attemptHeader = "x-settle-attempts"

func attempts(h amqp.Table) int32 {
	switch v := h[attemptHeader].(type) {
	case int32:
		return v
	case int64:
		return int32(v)
	case int:
		return int32(v)
	}
	return 0
}

func handleMessage(ctx context.Context, body []byte, settler Settler) error {
	var ev SettlementRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if ev.GatewayRef == "" || !ev.Gateway.Valid() {
		return fmt.Errorf("%w: gateway=%q ref=%q", errMalformed, ev.Gateway, ev.GatewayRef)
	}
	out, err := settler.Settle(ctx, ev.request())
	if err != nil {
		return err
	}
	log.Info().Str("gateway", string(ev.Gateway)).Str("ref", ev.GatewayRef).Stringer("outcome", out).
		Msg("settlement-consumer: processed")
	return nil
}
