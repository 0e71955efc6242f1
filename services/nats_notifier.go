package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salonbot-backend/utils"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectReservationCreated   = "reservation.created"
	SubjectReservationCancelled = "reservation.cancelled"
)

// Envelope wraps every published payload.
type Envelope struct {
	ID         string      `json:"id"`
	Subject    string      `json:"subject"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher is the part of a NATS connection the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes reservation events for other systems (CRM, analytics).
type NATSNotifier struct {
	pub  Publisher
	conn *nats.Conn
}

func NewNATSNotifier(url string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("salonbot"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSNotifier{pub: conn, conn: conn}, nil
}

func NewNATSNotifierWithPublisher(pub Publisher) *NATSNotifier {
	return &NATSNotifier{pub: pub}
}

func (n *NATSNotifier) ReservationCreated(ctx context.Context, e ReservationCreatedEvent) error {
	return n.publish(ctx, SubjectReservationCreated, e)
}

func (n *NATSNotifier) ReservationCancelled(ctx context.Context, e ReservationCancelledEvent) error {
	return n.publish(ctx, SubjectReservationCancelled, e)
}

func (n *NATSNotifier) publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	utils.GetLogger().Debug("publishing event", zap.String("subject", subject), zap.ByteString("data", payload))
	return n.pub.Publish(subject, payload)
}

func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Drain()
	}
}
