package daemon

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// RenderedEvent announces one finished render batch on the bus.
type RenderedEvent struct {
	BuildID  string        `json:"build_id"`
	Trigger  string        `json:"trigger"`
	Pages    int           `json:"pages"`
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration_ns"`
	At       time.Time     `json:"at"`
}

// Publisher emits render events for downstream consumers (cache
// purgers, notification bots).
type Publisher interface {
	PublishRendered(event RenderedEvent) error
	Close()
}

// NATSPublisher publishes render events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) PublishRendered(event RenderedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal render event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish render event: %w", err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
