// Package notify delivers reservation confirmation emails over SMTP.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/vaporlimpio/reservas-api/internal/queue"
)

// Mailer sends plain-text confirmation emails. An empty SMTP host
// disables sending, which keeps local development broker-complete
// without a mail server.
type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
	log  *zap.Logger
}

func NewMailer(host string, port int, user, pass, from string, log *zap.Logger) *Mailer {
	return &Mailer{host: host, port: port, user: user, pass: pass, from: from, log: log}
}

// SendConfirmation emails the customer the reservation details. It
// implements queue.ConfirmationSender.
func (m *Mailer) SendConfirmation(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	if m.host == "" {
		m.log.Info("smtp not configured, skipping confirmation email",
			zap.Uint64("reservation_id", ev.ReservationID))
		return nil
	}
	if ev.CustomerEmail == "" {
		return fmt.Errorf("event %d has no customer email", ev.ReservationID)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", ev.CustomerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Reserva confirmada: %s", ev.Code))
	msg.SetBody("text/plain", ConfirmationBody(ev))

	d := gomail.NewDialer(m.host, m.port, m.user, m.pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	m.log.Info("confirmation email sent",
		zap.Uint64("reservation_id", ev.ReservationID),
		zap.String("to", ev.CustomerEmail),
	)
	return nil
}

// ConfirmationBody renders the plain-text email for a confirmed
// reservation.
func ConfirmationBody(ev queue.ReservationConfirmedEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,\n\n", ev.CustomerName)
	b.WriteString("Tu reserva ha sido registrada con éxito.\n\n")
	fmt.Fprintf(&b, "Código:   %s\n", ev.Code)
	fmt.Fprintf(&b, "Servicio: %s\n", ev.ServiceType)
	fmt.Fprintf(&b, "Fecha:    %s\n", ev.DateTime)
	fmt.Fprintf(&b, "Total:    $%.2f\n", ev.TotalPrice)
	if ev.Notes != "" {
		fmt.Fprintf(&b, "Notas:    %s\n", ev.Notes)
	}
	b.WriteString("\nGracias por reservar con nosotros.\n")
	return b.String()
}
