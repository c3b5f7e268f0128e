package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loyclub/loyalty-services/internal/apns"
	"github.com/loyclub/loyalty-services/internal/comm"
	"github.com/loyclub/loyalty-services/internal/walletsvc/service"
)

// Broker consumes customer-updated events: bump the registration ledger
// so polling devices see the change, then push silently so they poll now.
type Broker struct {
	Conn          *nats.Conn
	Registrations *service.RegistrationService
	Dispatcher    *apns.Dispatcher
}

func NewBroker(nc *nats.Conn, registrations *service.RegistrationService, dispatcher *apns.Dispatcher) *Broker {
	return &Broker{
		Conn:          nc,
		Registrations: registrations,
		Dispatcher:    dispatcher,
	}
}

func (b *Broker) SubscribeCustomerUpdated() (*nats.Subscription, error) {
	return b.Conn.QueueSubscribe(comm.SubjectCustomerUpdated, "notifysvc", b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	ev := &comm.CustomerUpdated{}
	err := json.Unmarshal(msgNat.Data, ev)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	customerID, err := primitive.ObjectIDFromHex(ev.CustomerID)
	if err != nil {
		log.Errorf("Error invalid customer id in event %q: %s", ev.CustomerID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := b.Registrations.MarkUpdated(ctx, customerID); err != nil {
		log.Errorf("Error [Registrations.MarkUpdated] %s", err)
		return
	}

	tokens, err := b.Registrations.PushTokens(ctx, customerID)
	if err != nil {
		log.Errorf("Error [Registrations.PushTokens] %s", err)
		return
	}
	if len(tokens) == 0 {
		log.Infof("no registered devices for customer %s, nothing to push", ev.CustomerID)
		return
	}

	res := b.Dispatcher.Notify(ctx, tokens)
	log.Infof("customer %s updated (%s): %d pushes sent, %d failed",
		ev.CustomerID, ev.Reason, res.Successful, res.Failed)
}
