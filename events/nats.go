package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// envelope wraps an event for the wire
type envelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source_service"`
	Payload   json.RawMessage `json:"payload"`
}

// NATSForwarder republishes committed wallet events to NATS so other
// services (session fan-out, admin, analytics) can observe settlements
// without touching the ledger. Forwarding is fire-and-forget; a publish
// failure is logged and never affects the originating operation.
type NATSForwarder struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewNATSForwarder connects to NATS and returns a forwarder
func NewNATSForwarder(servers, subjectPrefix string) (*NATSForwarder, error) {
	opts := []nats.Option{
		nats.Name("tavla-wallet"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSForwarder{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// SubscribeAll registers the forwarder for every wallet event type
func (f *NATSForwarder) SubscribeAll(bus *Bus) {
	types := []EventType{
		EventTypeBalanceChange,
		EventTypeAccountCreated,
		EventTypeEscrowHeld,
		EventTypeEscrowRefunded,
		EventTypeContestSettled,
		EventTypeOasisMinted,
		EventTypeBackingSettled,
	}
	for _, t := range types {
		bus.Subscribe(t, f.forward)
	}
}

func (f *NATSForwarder) forward(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to marshal event payload")
		return
	}

	env := envelope{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		Timestamp: time.Now().UTC(),
		Source:    "wallet-core",
		Payload:   payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.WithError(err).Error("Failed to marshal event envelope")
		return
	}

	subject := fmt.Sprintf("%s.%s", f.subjectPrefix, event.Type())
	if err := f.nc.Publish(subject, data); err != nil {
		log.WithFields(log.Fields{
			"subject": subject,
			"error":   err,
		}).Error("Failed to publish event to NATS")
	}
}

// Close drains and closes the underlying connection
func (f *NATSForwarder) Close() {
	if err := f.nc.Drain(); err != nil {
		log.WithError(err).Warn("NATS drain failed")
	}
}
