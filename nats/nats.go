package nats

import (
	"encoding/json"
	"time"

	"rso-client/circuitbreaker"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	SubjectJoined = "client.joined"
	SubjectLeft   = "client.left"
)

type SessionEvent struct {
	ClientID  string    `json:"clientId"`
	SessionID int       `json:"sessionId"`
	Name      string    `json:"name"`
	Ticks     uint64    `json:"ticks,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Time      time.Time `json:"time"`
}

// Publisher announces session lifecycle events. A Publisher without a
// connection drops everything.
type Publisher struct {
	conn *nats.Conn
}

func Connect(natsUrl string) *Publisher {
	if natsUrl == "" {
		// No NATS server configured, do nothing.
		log.Info("No nats server configured")
		return &Publisher{}
	}

	c, err := nats.Connect(natsUrl, nats.Name("rso-client"))
	if err != nil {
		log.WithError(err).Error("Failed to connect to nats")
		return &Publisher{}
	}

	log.Info("Connected to nats at ", natsUrl)
	return &Publisher{conn: c}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.conn != nil
}

func (p *Publisher) Publish(subject string, data []byte) {
	if !p.Enabled() {
		return
	}

	_, err := circuitbreaker.NatsBreaker.Execute(func() (interface{}, error) {
		return nil, p.conn.Publish(subject, data)
	})
	if err != nil {
		log.WithError(err).Error("Failed to publish message")
	}
}

func (p *Publisher) PublishEvent(subject string, event SessionEvent) {
	if !p.Enabled() {
		return
	}

	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal session event")
		return
	}

	p.Publish(subject, data)
}

func (p *Publisher) Close() {
	if !p.Enabled() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain nats connection")
	}
}
