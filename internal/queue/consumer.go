package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ConfirmationSender handles a confirmed reservation pulled off the
// queue. The SMTP mailer implements it.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, ev ReservationConfirmedEvent) error
}

// StartConsumer connects to RabbitMQ, declares the reserva.confirmada
// queue and consumes it, handing each event to the sender. It runs a
// reconnect loop with exponential backoff and returns only when ctx is
// cancelled. Messages the sender rejects are nacked without requeue to
// avoid tight redelivery loops.
func StartConsumer(ctx context.Context, url string, sender ConfirmationSender, log *zap.Logger) {
	if url == "" {
		log.Info("amqp url not set, confirmation consumer disabled")
		return
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("consumer dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(ctx, conn, sender, log); err != nil {
			log.Warn("consume loop ended", zap.Error(err))
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sender ConfirmationSender, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Warn("set qos failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(QueueReservationConfirmed, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(QueueReservationConfirmed, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleDelivery(ctx, d.Body, sender); err != nil {
				log.Warn("handle confirmation failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleDelivery(ctx context.Context, body []byte, sender ConfirmationSender) error {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := sender.SendConfirmation(ctx, ev); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}
