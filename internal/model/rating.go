package model

import "time"

// Rating is a row in `calificaciones`: one score a customer leaves for a
// reservation, 1 to 5. A reservation can be rated at most once.
type Rating struct {
	ID            uint64    // calificaciones.id
	ReservationID uint64    // calificaciones.reserva_id
	Score         uint8     // calificaciones.puntaje
	Comment       *string   // calificaciones.comentario (nullable)
	CreatedAt     time.Time // calificaciones.created_at
}
