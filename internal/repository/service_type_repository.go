package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrServiceTypeNotFound is returned when a service type cannot be found
// or has been deactivated.
var ErrServiceTypeNotFound = errors.New("service type not found")

// ServiceTypeRepo encapsulates queries against tipos_servicio. Service
// types carry a base price and a multiplier; deletion is a soft
// deactivation because historical reservations keep referencing the row.
type ServiceTypeRepo struct {
	db *sql.DB
}

func NewServiceTypeRepo(db *sql.DB) *ServiceTypeRepo { return &ServiceTypeRepo{db: db} }

const serviceTypeCols = "id, nombre, descripcion, precio_base, multiplicador, is_active"

func scanServiceType(scan func(...interface{}) error) (model.ServiceType, error) {
	var s model.ServiceType
	var desc sql.NullString
	if err := scan(&s.ID, &s.Name, &desc, &s.BasePrice, &s.Multiplier, &s.IsActive); err != nil {
		return s, err
	}
	if desc.Valid {
		s.Description = &desc.String
	}
	return s, nil
}

// GetActive fetches an active service type by id.
func (r *ServiceTypeRepo) GetActive(ctx context.Context, id uint64) (*model.ServiceType, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+serviceTypeCols+" FROM tipos_servicio WHERE id=? AND is_active=1", id)
	s, err := scanServiceType(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetActiveTx is GetActive inside an existing transaction.
func (r *ServiceTypeRepo) GetActiveTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.ServiceType, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+serviceTypeCols+" FROM tipos_servicio WHERE id=? AND is_active=1", id)
	s, err := scanServiceType(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns service types ordered by name. When activeOnly is true,
// deactivated entries are filtered out (the public catalog view).
func (r *ServiceTypeRepo) List(ctx context.Context, activeOnly bool) ([]model.ServiceType, error) {
	q := "SELECT " + serviceTypeCols + " FROM tipos_servicio"
	if activeOnly {
		q += " WHERE is_active=1"
	}
	q += " ORDER BY nombre"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ServiceType, 0)
	for rows.Next() {
		s, err := scanServiceType(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a service type and populates its generated ID.
func (r *ServiceTypeRepo) Create(ctx context.Context, s *model.ServiceType) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO tipos_servicio (nombre, descripcion, precio_base, multiplicador, is_active) VALUES (?,?,?,?,1)",
		s.Name, s.Description, s.BasePrice, s.Multiplier)
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
	s.IsActive = true
	return nil
}

// Update replaces the mutable columns of a service type.
func (r *ServiceTypeRepo) Update(ctx context.Context, s *model.ServiceType) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tipos_servicio SET nombre=?, descripcion=?, precio_base=?, multiplicador=? WHERE id=?",
		s.Name, s.Description, s.BasePrice, s.Multiplier, s.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrNameExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM tipos_servicio WHERE id=?", s.ID).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrServiceTypeNotFound
		}
	}
	return nil
}

// Deactivate soft-deletes a service type.
func (r *ServiceTypeRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE tipos_servicio SET is_active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrServiceTypeNotFound
	}
	return nil
}
