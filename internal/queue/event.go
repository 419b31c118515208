package queue

// QueueReservationConfirmed is the durable queue that carries booking
// confirmations from the API to the mail worker.
const QueueReservationConfirmed = "reserva.confirmada"

// ReservationConfirmedEvent is the message published after a reservation
// commits. The worker only needs enough to render the confirmation email;
// it never goes back to the database.
type ReservationConfirmedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	Code          string  `json:"code"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	DateTime      string  `json:"date_time"`
	ServiceType   string  `json:"service_type"`
	TotalPrice    float64 `json:"total_price"`
	Notes         string  `json:"notes,omitempty"`
}
