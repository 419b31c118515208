package model

import "time"

// Reservation records one scheduled steam-cleaning visit as stored in the
// `reservas` table.  A reservation always references a customer, a service
// type, a location and a status; the technician and the vehicle of record
// are optional and may be assigned later.
//
// Fields:
//  ID            – primary key identifier.
//  Code          – external confirmation code (UUID, reservas.codigo).
//  CustomerID    – customer who booked the visit (reservas.cliente_id).
//  TechnicianID  – assigned technician, if any (reservas.tecnico_id).
//  VehicleID     – vehicle of record, if any (reservas.vehiculo_id).
//  ServiceTypeID – booked service type (reservas.tipo_servicio_id).
//  LocationID    – service location (reservas.ubicacion_id).
//  StatusID      – current lifecycle status (reservas.estado_id).
//  ScheduledAt   – scheduled date and time of the visit (reservas.fecha_hora).
//  TotalPrice    – agreed total price in COP (reservas.precio_total).
//  Notes         – free-text notes from the customer (reservas.notas).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64    // reservas.id
	Code          string    // reservas.codigo
	CustomerID    uint64    // reservas.cliente_id
	TechnicianID  *uint64   // reservas.tecnico_id (nullable)
	VehicleID     *uint64   // reservas.vehiculo_id (nullable)
	ServiceTypeID uint64    // reservas.tipo_servicio_id
	LocationID    uint64    // reservas.ubicacion_id
	StatusID      uint64    // reservas.estado_id
	ScheduledAt   time.Time // reservas.fecha_hora
	TotalPrice    float64   // reservas.precio_total
	Notes         *string   // reservas.notas (nullable)
	CreatedAt     time.Time // reservas.created_at
	UpdatedAt     time.Time // reservas.updated_at
}

// Status names that terminate a reservation's life.  A reservation whose
// status name (lowercased) is in this set no longer occupies its slot.
const (
	StatusPending   = "pendiente"
	StatusConfirmed = "confirmada"
	StatusCompleted = "completada"
	StatusCancelled = "cancelada"
)

// TerminalStatuses lists the status names excluded by the "active
// reservation" filter used in availability and conflict queries.
var TerminalStatuses = []string{StatusCompleted, StatusCancelled}

// ProtectedStatuses lists the catalog entries that must not be deleted
// because core flows depend on them existing.
var ProtectedStatuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
