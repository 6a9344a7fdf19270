package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/fitforxe/gym-backend/internal/service"
)

// Publisher implements service.SettlementDispatcher by publishing to
// SettlementQueue.  Each call dials the broker; settlement requests are
// rare enough that a pooled connection is not worth its reconnect logic.
type Publisher struct {
	url string
	now func() time.Time
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, now: time.Now}
}

// Dispatch publishes req as a persistent message.  Any broker error is
// returned so the webhook answers with a failure and the gateway retries.
func (p *Publisher) Dispatch(ctx context.Context, req service.SettleRequest) error {
	if p.url == "" {
		return errors.New("rabbitmq: no broker url")
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		SettlementQueue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	); err != nil {
		log.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	now := p.now()
	body, err := json.Marshal(newSettlementRequested(req, now))
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now.UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",              // default exchange
		SettlementQueue, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		pub,
	); err != nil {
		log.Error().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	log.Debug().Str("gateway", string(req.Gateway)).Str("ref", req.GatewayRef).Msg("settlement request queued")
	return nil
}
