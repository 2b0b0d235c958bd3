// Package eventbus publishes game events to NATS.
package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tinytelemetry/concentration/internal/model"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "memory"

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Batch is the message body published for every event batch.
type Batch struct {
	GameID string        `json:"game_id"`
	Events []model.Event `json:"events"`
}

// Publisher implements model.EventPublisher over a NATS connection.
type Publisher struct {
	conn   publisher
	nc     *nats.Conn
	prefix string
}

// Connect dials url and returns a publisher on subjects under prefix.
func Connect(url, prefix string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("memoryd"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	p := newPublisher(nc, prefix)
	p.nc = nc
	return p, nil
}

func newPublisher(conn publisher, prefix string) *Publisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject returns the subject events of gameID are published on.
func (p *Publisher) Subject(gameID string) string {
	return p.prefix + ".games." + gameID + ".events"
}

// Publish sends one message holding the whole batch.
func (p *Publisher) Publish(gameID string, events []model.Event) error {
	data, err := json.Marshal(Batch{GameID: gameID, Events: events})
	if err != nil {
		return err
	}
	return p.conn.Publish(p.Subject(gameID), data)
}

// Close drains and closes the underlying connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
