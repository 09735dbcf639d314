package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/kehillah/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
// Consumers are ephemeral so every API replica sees every message.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeScheduleTicks(ctx context.Context, handler func(ctx context.Context, tick *ports.ScheduleTick) error) error {
	return s.subscribe(SubjectScheduleNext, nats.DeliverLastPerSubject(), func(data []byte) error {
		var tick ports.ScheduleTick
		if err := json.Unmarshal(data, &tick); err != nil {
			return err
		}
		return handler(ctx, &tick)
	})
}

func (s *Subscriber) SubscribeMinyanChanges(ctx context.Context, handler func(ctx context.Context, change *ports.MinyanChange) error) error {
	return s.subscribe(SubjectMinyanChanged, nats.DeliverNew(), func(data []byte) error {
		var change ports.MinyanChange
		if err := json.Unmarshal(data, &change); err != nil {
			return err
		}
		return handler(ctx, &change)
	})
}

func (s *Subscriber) subscribe(subject string, deliver nats.SubOpt, handle func([]byte) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handle(msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		deliver,
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
