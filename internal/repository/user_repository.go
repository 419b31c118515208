package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup matches no row, or when a
// role-constrained lookup matches a user holding a different role.
var ErrUserNotFound = errors.New("user not found")

const userCols = "id,nombre,email,password_hash,telefono,role,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var phone sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	return u, nil
}

// Create inserts a user and returns its ID. The password is hashed here so
// callers never handle the digest directly.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, phone *string, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO usuarios (nombre, email, password_hash, telefono, role) VALUES (?,?,?,?,?)",
		name, email, hash, phone, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetActiveWithRole fetches an active user by id only when they hold the
// given role. ErrUserNotFound covers both the missing row and the
// role-mismatch case so callers cannot probe which one occurred.
func (r *UserRepo) GetActiveWithRole(ctx context.Context, id uint64, role string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE id=? AND role=? AND is_active=1 LIMIT 1", id, role))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetActiveWithRoleTx is GetActiveWithRole inside an existing transaction.
func (r *UserRepo) GetActiveWithRoleTx(ctx context.Context, tx *sql.Tx, id uint64, role string) (model.User, error) {
	u, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE id=? AND role=? AND is_active=1 LIMIT 1", id, role))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// List returns users ordered by id, optionally filtered by role.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := "SELECT " + userCols + " FROM usuarios"
	args := []interface{}{}
	if role != "" {
		q += " WHERE role=?"
		args = append(args, role)
	}
	q += " ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if phone.Valid {
			u.Phone = &phone.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserUpdate carries the optional fields of a partial user update. Only
// non-nil fields enter the UPDATE statement.
type UserUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Role     *string
	IsActive *bool
}

// UpdatePartial applies the present fields of upd to the user row. It
// returns ErrUserNotFound when the row does not exist and ErrEmailExists
// when the new email collides.
func (r *UserRepo) UpdatePartial(ctx context.Context, id uint64, upd UserUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	if upd.Name != nil {
		sets = append(sets, "nombre=?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Phone != nil {
		sets = append(sets, "telefono=?")
		args = append(args, *upd.Phone)
	}
	if upd.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *upd.Role)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active=?")
		args = append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE usuarios SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Distinguish "no such row" from "no change": re-check existence.
		var one int
		if err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM usuarios WHERE id=?", id).Scan(&one); errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
	}
	return nil
}

// Deactivate soft-deletes a user account.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE usuarios SET is_active=0 WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
