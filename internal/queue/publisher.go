package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/booking"
)

// Publisher sends reservation confirmations to RabbitMQ. It satisfies the
// booking layer's Notifier and never fails the request flow: every error
// is logged and swallowed, since the reservation is already committed by
// the time a confirmation is published.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns a Publisher for the given AMQP URL. An empty URL
// yields a no-op publisher so the API can run without a broker.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

// ReservationBooked publishes a ReservationConfirmedEvent to the
// reserva.confirmada queue. The connection is opened per publish; the
// volume here is one message per booking, not a throughput concern.
// Messages are marked persistent so they survive broker restarts.
func (p *Publisher) ReservationBooked(ctx context.Context, data booking.ConfirmationData) {
	if p == nil || p.url == "" {
		return
	}
	ev := ReservationConfirmedEvent{
		ReservationID: data.ReservationID,
		Code:          data.Code,
		CustomerName:  data.CustomerName,
		CustomerEmail: data.CustomerEmail,
		DateTime:      data.DateTime,
		ServiceType:   data.ServiceType,
		TotalPrice:    data.TotalPrice,
		Notes:         data.Notes,
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq channel open failed", zap.Error(err))
		return
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(QueueReservationConfirmed, true, false, false, false, nil); err != nil {
		p.log.Warn("rabbitmq queue declare failed", zap.Error(err))
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("marshal confirmation event failed", zap.Error(err))
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueReservationConfirmed, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.Error(err))
		return
	}
	p.log.Info("confirmation published",
		zap.Uint64("reservation_id", ev.ReservationID),
		zap.String("code", ev.Code),
	)
}
