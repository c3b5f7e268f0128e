package broker

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/loyclub/loyalty-services/internal/comm"
)

// Publisher pushes wallet events onto NATS. A nil connection is allowed
// and turns publishes into logged no-ops, so walletsvc can run without
// the bus (passes still generate, devices just refresh on their own poll
// schedule).
type Publisher struct {
	Conn *nats.Conn
}

func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{Conn: nc}
}

func (p *Publisher) PublishCustomerUpdated(ev comm.CustomerUpdated) error {
	if p.Conn == nil {
		log.Warnf("event bus unavailable, dropping customer updated event for %s", ev.CustomerID)
		return nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal customer updated event: %w", err)
	}

	return p.Conn.Publish(comm.SubjectCustomerUpdated, data)
}
