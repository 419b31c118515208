package booking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/repository"
)

const (
	userQuery            = "SELECT id,nombre,email,password_hash,telefono,role,is_active,created_at,updated_at FROM usuarios WHERE id=? AND role=? AND is_active=1 LIMIT 1"
	countByCustomerQuery = "SELECT COUNT(*) FROM reservas WHERE cliente_id=? AND fecha_hora=? AND activa=1"
	countByTechQuery     = "SELECT COUNT(*) FROM reservas WHERE tecnico_id=? AND fecha_hora=? AND activa=1"
	countTotalQuery      = "SELECT COUNT(*) FROM reservas WHERE fecha_hora=? AND activa=1"
)

func newChecker(t *testing.T, capacity int) (*Checker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repository.NewUserRepo(db)
	reservations := repository.NewReservationRepo(db)
	return NewChecker(users, reservations, capacity, zap.NewNop()), mock
}

func userRows(id uint64, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "nombre", "email", "password_hash", "telefono", "role", "is_active", "created_at", "updated_at"}).
		AddRow(id, "Ana Torres", "ana@example.com", "$2a$10$hash", nil, role, true, now, now)
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n)
}

func TestParseDateTime(t *testing.T) {
	at, err := ParseDateTime("2026-09-15T10:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC), at)

	at, err = ParseDateTime("2026-09-15T10:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 15, 0, 0, 0, time.UTC), at)

	_, err = ParseDateTime("15/09/2026 10:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseDateTime("")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckAvailable(t *testing.T) {
	c, mock := newChecker(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).
		WithArgs(7, "CUSTOMER").WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(countTotalQuery)).WillReturnRows(countRows(3))

	res, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, nil)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Reason)
	assert.Equal(t, 3, res.ScheduledCount)
	assert.Equal(t, 7, res.RemainingCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCustomerAlreadyBooked(t *testing.T) {
	c, mock := newChecker(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(countTotalQuery)).WillReturnRows(countRows(4))

	res, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, nil)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, ReasonCustomerBooked, res.Reason)
	assert.Equal(t, 4, res.ScheduledCount)
	assert.Equal(t, 6, res.RemainingCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckTechnicianAlreadyBooked(t *testing.T) {
	c, mock := newChecker(t, 10)
	techID := uint64(12)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).
		WithArgs(12, "TECHNICIAN").WillReturnRows(userRows(12, "TECHNICIAN"))
	mock.ExpectQuery(regexp.QuoteMeta(countByTechQuery)).WillReturnRows(countRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(countTotalQuery)).WillReturnRows(countRows(2))

	res, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, &techID)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, ReasonTechnicianBooked, res.Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckCapacityReached(t *testing.T) {
	c, mock := newChecker(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(countTotalQuery)).WillReturnRows(countRows(10))

	res, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, nil)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, ReasonCapacityReached, res.Reason)
	assert.Equal(t, 10, res.ScheduledCount)
	assert.Equal(t, 0, res.RemainingCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckOneBelowCapacity(t *testing.T) {
	c, mock := newChecker(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(countTotalQuery)).WillReturnRows(countRows(9))

	res, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, nil)
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 1, res.RemainingCapacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckUnknownCustomer(t *testing.T) {
	c, mock := newChecker(t, 10)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).
		WillReturnError(errorsNoRows())

	_, err := c.Check(context.Background(), "2026-09-15T10:00:00", 99, nil)
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "customer", nf.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckUnknownTechnician(t *testing.T) {
	c, mock := newChecker(t, 10)
	techID := uint64(55)

	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(countByCustomerQuery)).WillReturnRows(countRows(0))
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnError(errorsNoRows())

	_, err := c.Check(context.Background(), "2026-09-15T10:00:00", 7, &techID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "technician", nf.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckValidationShortCircuit(t *testing.T) {
	// No SQL expectations registered: malformed input must never reach
	// the database.
	c, mock := newChecker(t, 10)

	_, err := c.Check(context.Background(), "not-a-date", 7, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = c.Check(context.Background(), "2026-09-15T10:00:00", 0, nil)
	assert.ErrorIs(t, err, ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func errorsNoRows() error { return sql.ErrNoRows }
