package model

import "time"

// ServiceType is a row in `tipos_servicio`.  FinalPrice applies the
// catalog multiplier to the base price; the total on a reservation is
// still caller-supplied and may differ after negotiation.
type ServiceType struct {
	ID          uint64  // tipos_servicio.id
	Name        string  // tipos_servicio.nombre
	Description *string // tipos_servicio.descripcion (nullable)
	BasePrice   float64 // tipos_servicio.precio_base
	Multiplier  float64 // tipos_servicio.multiplicador
	IsActive    bool    // tipos_servicio.is_active
}

// FinalPrice returns the catalog price: base price times multiplier.
func (s ServiceType) FinalPrice() float64 {
	return s.BasePrice * s.Multiplier
}

// Location is a row in `ubicaciones`: a service point in the city.
type Location struct {
	ID       uint64  // ubicaciones.id
	Name     string  // ubicaciones.nombre
	Address  string  // ubicaciones.direccion
	District *string // ubicaciones.barrio (nullable)
	IsActive bool    // ubicaciones.is_active
}

// Status is a row in `estados_reserva`: a mutable catalog entry a
// reservation references for its lifecycle stage.
type Status struct {
	ID          uint64  // estados_reserva.id
	Name        string  // estados_reserva.nombre
	Description *string // estados_reserva.descripcion (nullable)
	Color       *string // estados_reserva.color (nullable)
}

// Vehicle is a row in `vehiculos`, owned by a customer.
type Vehicle struct {
	ID        uint64    // vehiculos.id
	UserID    uint64    // vehiculos.usuario_id
	Plate     string    // vehiculos.placa
	Brand     *string   // vehiculos.marca (nullable)
	Model     *string   // vehiculos.modelo (nullable)
	Kind      *string   // vehiculos.tipo (nullable)
	IsActive  bool      // vehiculos.is_active
	CreatedAt time.Time // vehiculos.created_at
}
