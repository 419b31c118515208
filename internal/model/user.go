package model

import "time"

// Role names stored in usuarios.role.  Customers book services,
// technicians perform them and admins manage the catalogs.  A user is
// customer-eligible or technician-eligible only through this value.
const (
	RoleAdmin      = "ADMIN"
	RoleCustomer   = "CUSTOMER"
	RoleTechnician = "TECHNICIAN"
)

// User represents an application user record as stored in the
// `usuarios` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name (usuarios.nombre).
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Phone        – optional contact phone (usuarios.telefono).
//  Role         – role name (ADMIN, CUSTOMER or TECHNICIAN).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // usuarios.id
	Name         string    // usuarios.nombre
	Email        string    // usuarios.email
	PasswordHash string    // usuarios.password_hash
	Phone        *string   // usuarios.telefono (nullable)
	Role         string    // usuarios.role
	IsActive     bool      // usuarios.is_active
	CreatedAt    time.Time // usuarios.created_at
	UpdatedAt    time.Time // usuarios.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
