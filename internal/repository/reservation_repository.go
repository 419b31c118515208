package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup matches no row.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides persistence for reservas. A reservation is
// written inside a caller-owned transaction so that reference validation,
// the conflict re-check and the insert commit or roll back together. All
// timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so the booking writer can open its
// transaction on the same pool.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// ReservationRecord mirrors the schema of the reservas table. It is used
// by the repository when constructing or scanning rows; business logic
// should use the model.Reservation type instead.
type ReservationRecord struct {
	ID            uint64
	Code          string
	CustomerID    uint64
	TechnicianID  *uint64
	VehicleID     *uint64
	ServiceTypeID uint64
	LocationID    uint64
	StatusID      uint64
	ScheduledAt   time.Time
	TotalPrice    float64
	Notes         *string
	Active        bool
	CreatedAt     time.Time
}

// CreateTx inserts a new reservation within the scope of an existing
// transaction. It populates the generated ID and CreatedAt on the record.
// The filtered unique index on (tecnico_id, fecha_hora, activa) turns a
// racing duplicate into ErrSlotTaken. The caller must commit or rollback.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *ReservationRecord) error {
	activa := sql.NullInt64{}
	if rec.Active {
		activa = sql.NullInt64{Int64: 1, Valid: true}
	}
	const q = `INSERT INTO reservas
	           (codigo, cliente_id, tecnico_id, vehiculo_id, tipo_servicio_id, ubicacion_id, estado_id, fecha_hora, precio_total, notas, activa)
	           VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	result, err := tx.ExecContext(ctx, q,
		rec.Code, rec.CustomerID, rec.TechnicianID, rec.VehicleID,
		rec.ServiceTypeID, rec.LocationID, rec.StatusID,
		rec.ScheduledAt.UTC(), rec.TotalPrice, rec.Notes, activa)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	// Query back the row to populate timestamps set by the database.
	return tx.QueryRowContext(ctx,
		"SELECT created_at FROM reservas WHERE id = ?", rec.ID).Scan(&rec.CreatedAt)
}

// CountActiveByCustomerAt counts active reservations held by a customer at
// the exact date-time. Conflict detection is exact-timestamp only.
func (r *ReservationRepo) CountActiveByCustomerAt(ctx context.Context, customerID uint64, at time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservas WHERE cliente_id=? AND fecha_hora=? AND activa=1",
		customerID, at.UTC()).Scan(&n)
	return n, err
}

// CountActiveByTechnicianAt counts active reservations assigned to a
// technician at the exact date-time.
func (r *ReservationRepo) CountActiveByTechnicianAt(ctx context.Context, technicianID uint64, at time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservas WHERE tecnico_id=? AND fecha_hora=? AND activa=1",
		technicianID, at.UTC()).Scan(&n)
	return n, err
}

// CountActiveAt counts active reservations system-wide at the exact
// date-time, for the capacity ceiling.
func (r *ReservationRepo) CountActiveAt(ctx context.Context, at time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservas WHERE fecha_hora=? AND activa=1",
		at.UTC()).Scan(&n)
	return n, err
}

// CountActiveByTechnicianAtTx re-checks the technician slot inside the
// write transaction. FOR UPDATE locks the matching index range so two
// concurrent writers serialize on it; combined with the unique index this
// closes the check-then-act window.
func (r *ReservationRepo) CountActiveByTechnicianAtTx(ctx context.Context, tx *sql.Tx, technicianID uint64, at time.Time) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservas WHERE tecnico_id=? AND fecha_hora=? AND activa=1 FOR UPDATE",
		technicianID, at.UTC()).Scan(&n)
	return n, err
}

// ReservationDetail is a reservation joined with the display names of
// every referenced entity, as returned by list and get endpoints.
type ReservationDetail struct {
	ID              uint64  `json:"id"`
	Code            string  `json:"codigo"`
	CustomerID      uint64  `json:"customer_id"`
	CustomerName    string  `json:"customer_name"`
	TechnicianID    *uint64 `json:"technician_id,omitempty"`
	TechnicianName  *string `json:"technician_name,omitempty"`
	VehicleID       *uint64 `json:"vehicle_id,omitempty"`
	VehiclePlate    *string `json:"vehicle_plate,omitempty"`
	ServiceTypeID   uint64  `json:"service_type_id"`
	ServiceTypeName string  `json:"service_type_name"`
	LocationID      uint64  `json:"location_id"`
	LocationName    string  `json:"location_name"`
	StatusID        uint64  `json:"status_id"`
	StatusName      string  `json:"status_name"`
	DateTime        string  `json:"date_time"`
	TotalPrice      float64 `json:"total_price"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

const detailQuery = `SELECT r.id, r.codigo,
	       r.cliente_id, cli.nombre,
	       r.tecnico_id, tec.nombre,
	       r.vehiculo_id, v.placa,
	       r.tipo_servicio_id, ts.nombre,
	       r.ubicacion_id, u.nombre,
	       r.estado_id, e.nombre,
	       r.fecha_hora, r.precio_total, r.notas, r.created_at
	FROM reservas r
	JOIN usuarios cli ON cli.id = r.cliente_id
	LEFT JOIN usuarios tec ON tec.id = r.tecnico_id
	LEFT JOIN vehiculos v ON v.id = r.vehiculo_id
	JOIN tipos_servicio ts ON ts.id = r.tipo_servicio_id
	JOIN ubicaciones u ON u.id = r.ubicacion_id
	JOIN estados_reserva e ON e.id = r.estado_id`

func scanDetail(scan func(...interface{}) error) (ReservationDetail, error) {
	var d ReservationDetail
	var tecID, vehID sql.NullInt64
	var tecName, plate, notes sql.NullString
	var scheduledAt, createdAt time.Time
	err := scan(
		&d.ID, &d.Code,
		&d.CustomerID, &d.CustomerName,
		&tecID, &tecName,
		&vehID, &plate,
		&d.ServiceTypeID, &d.ServiceTypeName,
		&d.LocationID, &d.LocationName,
		&d.StatusID, &d.StatusName,
		&scheduledAt, &d.TotalPrice, &notes, &createdAt,
	)
	if err != nil {
		return d, err
	}
	if tecID.Valid {
		id := uint64(tecID.Int64)
		d.TechnicianID = &id
	}
	if tecName.Valid {
		d.TechnicianName = &tecName.String
	}
	if vehID.Valid {
		id := uint64(vehID.Int64)
		d.VehicleID = &id
	}
	if plate.Valid {
		d.VehiclePlate = &plate.String
	}
	if notes.Valid {
		d.Notes = &notes.String
	}
	d.DateTime = scheduledAt.UTC().Format(time.RFC3339)
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return d, nil
}

// GetDetail returns one reservation with joined display names, or
// ErrReservationNotFound.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	row := r.db.QueryRowContext(ctx, detailQuery+" WHERE r.id = ?", id)
	d, err := scanDetail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListFilter scopes List to a customer's own reservations or a
// technician's assignments. Zero values mean "all" (admin view).
type ListFilter struct {
	CustomerID   uint64
	TechnicianID uint64
}

// List returns reservations newest-first, optionally scoped by filter.
func (r *ReservationRepo) List(ctx context.Context, f ListFilter) ([]ReservationDetail, error) {
	q := detailQuery
	args := []interface{}{}
	conds := []string{}
	if f.CustomerID != 0 {
		conds = append(conds, "r.cliente_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.TechnicianID != 0 {
		conds = append(conds, "r.tecnico_id = ?")
		args = append(args, f.TechnicianID)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY r.fecha_hora DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ReservationUpdate carries the optional fields of a partial reservation
// update. Only non-nil fields enter the SET list; no business-rule
// revalidation happens here.
type ReservationUpdate struct {
	TechnicianID  *uint64
	VehicleID     *uint64
	ServiceTypeID *uint64
	LocationID    *uint64
	StatusID      *uint64
	ScheduledAt   *time.Time
	TotalPrice    *float64
	Notes         *string
}

// UpdatePartial applies the present fields of upd to the reservation.
// When the status changes, the activa marker is recomputed from the new
// status name so the filtered unique index stays truthful.
func (r *ReservationRepo) UpdatePartial(ctx context.Context, id uint64, upd ReservationUpdate) error {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 10)
	if upd.TechnicianID != nil {
		sets = append(sets, "tecnico_id=?")
		args = append(args, *upd.TechnicianID)
	}
	if upd.VehicleID != nil {
		sets = append(sets, "vehiculo_id=?")
		args = append(args, *upd.VehicleID)
	}
	if upd.ServiceTypeID != nil {
		sets = append(sets, "tipo_servicio_id=?")
		args = append(args, *upd.ServiceTypeID)
	}
	if upd.LocationID != nil {
		sets = append(sets, "ubicacion_id=?")
		args = append(args, *upd.LocationID)
	}
	if upd.StatusID != nil {
		sets = append(sets, "estado_id=?")
		args = append(args, *upd.StatusID)
		sets = append(sets,
			"activa=IF((SELECT LOWER(nombre) FROM estados_reserva WHERE id=?) IN ('"+
				strings.Join(model.TerminalStatuses, "','")+"'), NULL, 1)")
		args = append(args, *upd.StatusID)
	}
	if upd.ScheduledAt != nil {
		sets = append(sets, "fecha_hora=?")
		args = append(args, upd.ScheduledAt.UTC())
	}
	if upd.TotalPrice != nil {
		sets = append(sets, "precio_total=?")
		args = append(args, *upd.TotalPrice)
	}
	if upd.Notes != nil {
		sets = append(sets, "notas=?")
		args = append(args, *upd.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE reservas SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrSlotTaken
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM reservas WHERE id=?", id).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
	}
	return nil
}

// Get returns the raw reservation row, used by ownership checks.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, codigo, cliente_id, tecnico_id, vehiculo_id, tipo_servicio_id,
	                  ubicacion_id, estado_id, fecha_hora, precio_total, notas, created_at, updated_at
	           FROM reservas WHERE id=?`
	var res model.Reservation
	var tecID, vehID sql.NullInt64
	var notes sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.Code, &res.CustomerID, &tecID, &vehID, &res.ServiceTypeID,
		&res.LocationID, &res.StatusID, &res.ScheduledAt, &res.TotalPrice, &notes,
		&res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	if tecID.Valid {
		id := uint64(tecID.Int64)
		res.TechnicianID = &id
	}
	if vehID.Valid {
		id := uint64(vehID.Int64)
		res.VehicleID = &id
	}
	if notes.Valid {
		res.Notes = &notes.String
	}
	return &res, nil
}

// Delete hard-deletes a reservation. Admin-only; dependent calificaciones
// rows cascade.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservas WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
