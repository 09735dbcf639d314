package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/kehillah/internal/core/ports"
)

// Subjects carried by the broker.
const (
	SubjectScheduleNext  = "kehillah.schedule.next"
	SubjectMinyanChanged = "kehillah.minyan.changed"
)

// Streams backing the subjects. Ticks are short-lived; changes are kept
// long enough for a restarted API to catch up.
var streams = []nats.StreamConfig{
	{
		Name:              "KEHILLAH_SCHEDULE",
		Subjects:          []string{"kehillah.schedule.>"},
		Retention:         nats.LimitsPolicy,
		MaxAge:            1 * time.Hour,
		MaxMsgsPerSubject: 10,
		Storage:           nats.MemoryStorage,
	},
	{
		Name:      "KEHILLAH_MINYANIM",
		Subjects:  []string{"kehillah.minyan.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}

	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) PublishScheduleTick(ctx context.Context, tick *ports.ScheduleTick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectScheduleNext, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishMinyanChanged(ctx context.Context, change *ports.MinyanChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectMinyanChanged, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("kehillah"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
