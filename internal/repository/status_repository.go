// Package repository contains data access logic separated from HTTP handlers.
// This file manages the estados_reserva catalog. Statuses are mutable
// catalog rows a reservation references for its lifecycle stage; the four
// names the booking flow depends on are protected from deletion.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrStatusNotFound is returned when a status cannot be found.
var ErrStatusNotFound = errors.New("status not found")

type StatusRepo struct {
	db *sql.DB
}

func NewStatusRepo(db *sql.DB) *StatusRepo { return &StatusRepo{db: db} }

func scanStatus(scan func(...interface{}) error) (model.Status, error) {
	var s model.Status
	var desc, color sql.NullString
	if err := scan(&s.ID, &s.Name, &desc, &color); err != nil {
		return s, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	if color.Valid {
		s.Color = &color.String
	}
	return s, nil
}

// GetByID fetches a status by id, returning ErrStatusNotFound when absent.
func (r *StatusRepo) GetByID(ctx context.Context, id uint64) (*model.Status, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, nombre, descripcion, color FROM estados_reserva WHERE id=?", id)
	s, err := scanStatus(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *StatusRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Status, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT id, nombre, descripcion, color FROM estados_reserva WHERE id=?", id)
	s, err := scanStatus(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByNameTx fetches a status by its lowercase name inside a transaction.
// Used by the reservation writer to resolve the default "pendiente" state.
func (r *StatusRepo) GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (*model.Status, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT id, nombre, descripcion, color FROM estados_reserva WHERE LOWER(nombre)=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(name)))
	s, err := scanStatus(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all statuses ordered by id.
func (r *StatusRepo) List(ctx context.Context) ([]model.Status, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, nombre, descripcion, color FROM estados_reserva ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Status, 0)
	for rows.Next() {
		s, err := scanStatus(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a status and populates its generated ID.
func (r *StatusRepo) Create(ctx context.Context, s *model.Status) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO estados_reserva (nombre, descripcion, color) VALUES (?,?,?)",
		s.Name, s.Description, s.Color)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update replaces the mutable columns of a status.
func (r *StatusRepo) Update(ctx context.Context, s *model.Status) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE estados_reserva SET nombre=?, descripcion=?, color=? WHERE id=?",
		s.Name, s.Description, s.Color, s.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM estados_reserva WHERE id=?", s.ID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrStatusNotFound
		}
	}
	return nil
}

// Delete removes a status unless its name is one of the protected
// lifecycle states. ErrStatusProtected maps to HTTP 409.
func (r *StatusRepo) Delete(ctx context.Context, id uint64) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	name := strings.ToLower(s.Name)
	for _, p := range model.ProtectedStatuses {
		if name == p {
			return ErrStatusProtected
		}
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM estados_reserva WHERE id=?", id)
	return err
}
