package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrLocationNotFound is returned when a location cannot be found or has
// been deactivated.
var ErrLocationNotFound = errors.New("location not found")

// LocationRepo encapsulates queries against ubicaciones.
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{db: db} }

const locationCols = "id, nombre, direccion, barrio, is_active"

func scanLocation(scan func(...interface{}) error) (model.Location, error) {
	var l model.Location
	var district sql.NullString
	if err := scan(&l.ID, &l.Name, &l.Address, &district, &l.IsActive); err != nil {
		return l, err
	}
	if district.Valid {
		l.District = &district.String
	}
	return l, nil
}

// GetActive fetches an active location by id.
func (r *LocationRepo) GetActive(ctx context.Context, id uint64) (*model.Location, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+locationCols+" FROM ubicaciones WHERE id=? AND is_active=1", id)
	l, err := scanLocation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetActiveTx is GetActive inside an existing transaction.
func (r *LocationRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Location, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+locationCols+" FROM ubicaciones WHERE id=? AND is_active=1", id)
	l, err := scanLocation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns locations ordered by name; activeOnly filters the public view.
func (r *LocationRepo) List(ctx context.Context, activeOnly bool) ([]model.Location, error) {
	q := "SELECT " + locationCols + " FROM ubicaciones"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY nombre"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Location, 0)
	for rows.Next() {
		l, err := scanLocation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create inserts a location and populates its generated ID.
func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ubicaciones (nombre, direccion, barrio, is_active) VALUES (?,?,?,1)",
		l.Name, l.Address, l.District)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.IsActive = true
	return nil
}

// Update replaces the mutable columns of a location.
func (r *LocationRepo) Update(ctx context.Context, l *model.Location) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE ubicaciones SET nombre=?, direccion=?, barrio=? WHERE id=?",
		l.Name, l.Address, l.District, l.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM ubicaciones WHERE id=?", l.ID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrLocationNotFound
		}
	}
	return nil
}

// Deactivate soft-deletes a location.
func (r *LocationRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE ubicaciones SET is_active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrLocationNotFound
	}
	return nil
}
