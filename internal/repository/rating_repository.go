package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrRatingNotFound is returned when a rating lookup matches no row.
var ErrRatingNotFound = errors.New("rating not found")

// RatingRepo encapsulates queries against calificaciones. One rating per
// reservation, enforced by the unique index on reserva_id.
type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Create inserts a rating for a reservation. ErrAlreadyRated is returned
// when the reservation was rated before.
func (r *RatingRepo) Create(ctx context.Context, rt *model.Rating) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO calificaciones (reserva_id, puntaje, comentario) VALUES (?,?,?)",
		rt.ReservationID, rt.Score, rt.Comment)
	if err != nil {
		if isDuplicate(err) {
			return ErrAlreadyRated
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return nil
}

// TechnicianRating is one rating row joined with its reservation context,
// returned by ListByTechnician for the public technician profile.
type TechnicianRating struct {
	ID            uint64  `json:"id"`
	ReservationID uint64  `json:"reservation_id"`
	Score         uint8   `json:"score"`
	Comment       *string `json:"comment,omitempty"`
	ServiceType   string  `json:"service_type"`
	CreatedAt     string  `json:"created_at"`
}

// ListByTechnician returns the ratings left on a technician's
// reservations, newest first.
func (r *RatingRepo) ListByTechnician(ctx context.Context, technicianID uint64) ([]TechnicianRating, error) {
	const q = `SELECT c.id, c.reserva_id, c.puntaje, c.comentario, t.nombre, c.created_at
	           FROM calificaciones c
	           JOIN reservas res ON res.id = c.reserva_id
	           JOIN tipos_servicio t ON t.id = res.tipo_servicio_id
	           WHERE res.tecnico_id = ?
	           ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TechnicianRating, 0)
	for rows.Next() {
		var tr TechnicianRating
		var comment sql.NullString
		var createdAt time.Time
		if err := rows.Scan(&tr.ID, &tr.ReservationID, &tr.Score, &comment, &tr.ServiceType, &createdAt); err != nil {
			return nil, err
		}
		if comment.Valid {
			tr.Comment = &comment.String
		}
		tr.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, tr)
	}
	return out, rows.Err()
}
