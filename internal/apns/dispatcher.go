package apns

import (
	"context"
	"sync/atomic"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxInFlight = 8

// Dispatcher sends silent pass-update pushes through APNs. Without
// configured credentials it degrades to a logged no-op; notification
// delivery is best-effort and never fails the caller.
type Dispatcher struct {
	client *apns2.Client
	topic  string
}

// Result aggregates one Notify call.
type Result struct {
	Successful int
	Failed     int
}

// New builds a dispatcher from a .p12 certificate. An empty certPath
// yields a disabled dispatcher rather than an error.
func New(certPath, certPassword, passTypeID string) (*Dispatcher, error) {
	if certPath == "" {
		log.Warn("APNs certificate not configured, push notifications disabled")
		return &Dispatcher{topic: passTypeID}, nil
	}

	cert, err := certificate.FromP12File(certPath, certPassword)
	if err != nil {
		return nil, err
	}

	client := apns2.NewClient(cert).Production()
	log.Info("APNs client initialized in production mode")

	return &Dispatcher{client: client, topic: passTypeID}, nil
}

// Available reports whether pushes can actually be delivered.
func (d *Dispatcher) Available() bool {
	return d.client != nil
}

// Notify sends one silent push per token. Attempts are independent; a bad
// token never aborts delivery to the rest.
func (d *Dispatcher) Notify(ctx context.Context, tokens []string) Result {
	if len(tokens) == 0 {
		return Result{}
	}
	if !d.Available() {
		log.Warnf("APNs unavailable, skipping %d notifications", len(tokens))
		return Result{}
	}

	var successful, failed int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)
	for _, token := range tokens {
		token := token
		g.Go(func() error {
			if d.send(ctx, token) {
				atomic.AddInt64(&successful, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Infof("push dispatch done: %d sent, %d failed of %d", successful, failed, len(tokens))
	return Result{Successful: int(successful), Failed: int(failed)}
}

func (d *Dispatcher) send(ctx context.Context, token string) bool {
	// content-available with no alert, badge or sound: the device fetches
	// the fresh pass, the user sees nothing.
	n := &apns2.Notification{
		DeviceToken: token,
		Topic:       d.topic,
		Priority:    apns2.PriorityLow,
		Payload:     payload.NewPayload().ContentAvailable(),
	}

	res, err := d.client.PushWithContext(ctx, n)
	if err != nil {
		log.Errorf("push to %.8s... failed: %v", token, err)
		return false
	}
	if !res.Sent() {
		log.Errorf("push to %.8s... rejected: %d %s", token, res.StatusCode, res.Reason)
		return false
	}
	return true
}
