package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fitforxe/gym-backend/internal/model"
	"github.com/fitforxe/gym-backend/internal/service"
)

type stubSettler struct {
	got []service.SettleRequest
	out service.SettleOutcome
	err error
}

func (s *stubSettler) Settle(_ context.Context, req service.SettleRequest) (service.SettleOutcome, error) {
	s.got = append(s.got, req)
	return s.out, s.err
}

func TestHandleMessage(t *testing.T) {
	req := service.SettleRequest{Gateway: model.GatewayStripe, GatewayRef: "cs_1", GatewayPaymentID: "pi_1", OwnerID: "dropped"}
	body, err := json.Marshal(newSettlementRequested(req, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}

	s := &stubSettler{out: service.Settled}
	if err := handleMessage(context.Background(), body, s); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if len(s.got) != 1 {
		t.Fatalf("settle calls = %d", len(s.got))
	}
	want := service.SettleRequest{Gateway: model.GatewayStripe, GatewayRef: "cs_1", GatewayPaymentID: "pi_1"}
	if s.got[0] != want {
		t.Errorf("request = %+v, want %+v", s.got[0], want)
	}
}

func TestHandleMessage_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"missing ref", `{"gateway":"stripe"}`},
		{"unknown gateway", `{"gateway":"paypal","gateway_ref":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSettler{}
			if err := handleMessage(context.Background(), []byte(tt.body), s); err == nil {
				t.Error("expected error")
			}
			if len(s.got) != 0 {
				t.Error("settler called for a malformed message")
			}
		})
	}
}

func TestHandleMessage_SettleError(t *testing.T) {
	s := &stubSettler{err: errors.New("db down")}
	body := []byte(`{"gateway":"razorpay","gateway_ref":"order_1"}`)
	if err := handleMessage(context.Background(), body, s); err == nil {
		t.Fatal("settle error must propagate")
	}
}

type recordingAcker struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAcker) Ack(bool) error { a.acked = true; return nil }

func (a *recordingAcker) Nack(_, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

type recordingPublisher struct {
	key  string
	msg  *amqp.Publishing
	fail error
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if p.fail != nil {
		return p.fail
	}
	p.key = key
	p.msg = &msg
	return nil
}

func TestSettleDelivery(t *testing.T) {
	body := []byte(`{"gateway":"stripe","gateway_ref":"cs_1"}`)
	tests := []struct {
		name        string
		headers     amqp.Table
		err         error
		pubErr      error
		wantAck     bool
		wantNack    bool
		wantRequeue bool
		wantAttempt int32
	}{
		{name: "success", wantAck: true},
		{name: "failure goes to retry queue", err: errors.New("db down"), wantAck: true, wantAttempt: 1},
		{name: "repeated failure keeps retrying", headers: amqp.Table{attemptHeader: int32(7)}, err: errors.New("db down"), wantAck: true, wantAttempt: 8},
		{name: "retry publish failure requeues", err: errors.New("db down"), pubErr: errors.New("channel closed"), wantNack: true, wantRequeue: true},
		{name: "malformed is discarded", err: fmt.Errorf("%w: bad json", errMalformed), wantNack: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &recordingAcker{}
			p := &recordingPublisher{fail: tt.pubErr}
			settleDelivery(context.Background(), p, a, body, tt.headers, tt.err)

			if a.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", a.acked, tt.wantAck)
			}
			if a.nacked != tt.wantNack || a.requeue != tt.wantRequeue {
				t.Errorf("nack = %v requeue = %v, want %v %v", a.nacked, a.requeue, tt.wantNack, tt.wantRequeue)
			}
			if tt.wantAttempt == 0 {
				if p.msg != nil {
					t.Error("unexpected retry publish")
				}
				return
			}
			if p.msg == nil || p.key != SettlementRetryQueue {
				t.Fatalf("retry publish = %q %v", p.key, p.msg)
			}
			if string(p.msg.Body) != string(body) || p.msg.DeliveryMode != amqp.Persistent {
				t.Errorf("retry message = %+v", p.msg)
			}
			if got := attempts(p.msg.Headers); got != tt.wantAttempt {
				t.Errorf("attempt = %d, want %d", got, tt.wantAttempt)
			}
		})
	}
}

func TestRetryQueueArgs(t *testing.T) {
	args := retryQueueArgs()
	if args["x-dead-letter-routing-key"] != SettlementQueue || args["x-dead-letter-exchange"] != "" {
		t.Errorf("dead letter target = %v", args)
	}
	if args["x-message-ttl"] != int32(30000) {
		t.Errorf("ttl = %v", args["x-message-ttl"])
	}
}

func TestHandleMessage_MalformedIsMarked(t *testing.T) {
	err := handleMessage(context.Background(), []byte("nope"), &stubSettler{})
	if !errors.Is(err, errMalformed) {
		t.Fatalf("err = %v, want errMalformed", err)
	}
	err = handleMessage(context.Background(), []byte(`{"gateway":"stripe","gateway_ref":"x"}`), &stubSettler{err: errors.New("db down")})
	if errors.Is(err, errMalformed) {
		t.Fatal("a settle failure must stay retryable")
	}
}

func TestPublisher_NoURL(t *testing.T) {
	if err := NewPublisher("").Dispatch(context.Background(), service.SettleRequest{}); err == nil {
		t.Fatal("expected error without broker url")
	}
}
