package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Entity kinds synchronised with the CRM.
const (
	EntityUser    = "user"
	EntityOfferer = "offerer"
)

// Event notifies the CRM that an account or an offerer changed.
type Event struct {
	Entity     string    `json:"entity"`
	ID         uint      `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Conn is the subset of *nats.Conn used to publish events.
type Conn interface {
	Publish(subject string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// Publisher sends sync events to <subject>.<entity>.
type Publisher struct {
	conn    Conn
	subject string
	logger  zerolog.Logger
}

// Connect dials NATS. An empty URL disables publishing.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	conn, err := nats.Connect(url, nats.Name("backoffice-api"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// NewPublisher builds a publisher; a nil conn makes Publish a no-op.
func NewPublisher(conn Conn, subject string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "crm_publisher").Logger(),
	}
}

// Publish emits the event. Callers treat failures as non fatal.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.conn == nil || p.subject == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode crm event: %w", err)
	}

	subject := p.subject + "." + event.Entity
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish crm event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Uint("id", event.ID).Str("action", event.Action).Msg("crm event published")
	return nil
}
