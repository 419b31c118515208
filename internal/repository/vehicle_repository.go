package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrVehicleNotFound is returned when a vehicle cannot be found or has
// been deactivated.
var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleRepo encapsulates queries against vehiculos. Vehicles belong to
// a customer; plates are unique and normalized to upper case.
type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleCols = "id, usuario_id, placa, marca, modelo, tipo, is_active, created_at"

func scanVehicle(scan func(...interface{}) error) (model.Vehicle, error) {
	var v model.Vehicle
	var brand, mdl, kind sql.NullString
	if err := scan(&v.ID, &v.UserID, &v.Plate, &brand, &mdl, &kind, &v.IsActive, &v.CreatedAt); err != nil {
		return v, err
	}
	if brand.Valid {
		v.Brand = &brand.String
	}
	if mdl.Valid {
		v.Model = &mdl.String
	}
	if kind.Valid {
		v.Kind = &kind.String
	}
	return v, nil
}

// GetActive fetches an active vehicle by id.
func (r *VehicleRepo) GetActive(ctx context.Context, id uint64) (*model.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+vehicleCols+" FROM vehiculos WHERE id=? AND is_active=1", id)
	v, err := scanVehicle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetActiveTx is GetActive inside an existing transaction.
func (r *VehicleRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Vehicle, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+vehicleCols+" FROM vehiculos WHERE id=? AND is_active=1", id)
	v, err := scanVehicle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByUser returns a customer's vehicles, newest first.
func (r *VehicleRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Vehicle, error) {
	return r.list(ctx, "WHERE usuario_id=?", userID)
}

// ListAll returns every vehicle; admin view.
func (r *VehicleRepo) ListAll(ctx context.Context) ([]model.Vehicle, error) {
	return r.list(ctx, "")
}

func (r *VehicleRepo) list(ctx context.Context, where string, args ...interface{}) ([]model.Vehicle, error) {
	q := "SELECT " + vehicleCols + " FROM vehiculos " + where + " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Create inserts a vehicle for a user. Plates collide on the unique index.
func (r *VehicleRepo) Create(ctx context.Context, v *model.Vehicle) error {
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO vehiculos (usuario_id, placa, marca, modelo, tipo, is_active) VALUES (?,?,?,?,?,1)",
		v.UserID, v.Plate, v.Brand, v.Model, v.Kind)
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
	v.ID = uint64(id)
	v.IsActive = true
	return nil
}

// UpdateOwned replaces the mutable columns of a vehicle, enforcing
// ownership in the WHERE clause like the reservation lookups do. The
// plate is normalized the same way Create normalizes it, and a collision
// on the unique placa index maps to ErrNameExists.
func (r *VehicleRepo) UpdateOwned(ctx context.Context, v *model.Vehicle) error {
	v.Plate = strings.ToUpper(strings.TrimSpace(v.Plate))
	res, err := r.db.ExecContext(ctx,
		"UPDATE vehiculos SET placa=?, marca=?, modelo=?, tipo=? WHERE id=? AND usuario_id=?",
		v.Plate, v.Brand, v.Model, v.Kind, v.ID, v.UserID)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx,
			"SELECT 1 FROM vehiculos WHERE id=? AND usuario_id=?", v.ID, v.UserID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrVehicleNotFound
		}
	}
	return nil
}

// DeactivateOwned soft-deletes a vehicle owned by userID.
func (r *VehicleRepo) DeactivateOwned(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE vehiculos SET is_active=0 WHERE id=? AND usuario_id=?", id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
