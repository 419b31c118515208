package booking

import (
	"context"
	"database/sql"
	"errors"
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
	statusByNameQuery = "SELECT id, nombre, descripcion, color FROM estados_reserva WHERE LOWER(nombre)=? LIMIT 1"
	serviceTypeQuery  = "SELECT id, nombre, descripcion, precio_base, multiplicador, is_active FROM tipos_servicio WHERE id=? AND is_active=1"
	locationQuery     = "SELECT id, nombre, direccion, barrio, is_active FROM ubicaciones WHERE id=? AND is_active=1"
	techSlotLockQuery = "SELECT COUNT(*) FROM reservas WHERE tecnico_id=? AND fecha_hora=? AND activa=1 FOR UPDATE"
)

type chanNotifier struct {
	ch chan ConfirmationData
}

func (n *chanNotifier) ReservationBooked(_ context.Context, data ConfirmationData) {
	n.ch <- data
}

func newWriter(t *testing.T) (*Writer, sqlmock.Sqlmock, *chanNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	notifier := &chanNotifier{ch: make(chan ConfirmationData, 1)}
	w := NewWriter(
		repository.NewUserRepo(db),
		repository.NewStatusRepo(db),
		repository.NewServiceTypeRepo(db),
		repository.NewLocationRepo(db),
		repository.NewVehicleRepo(db),
		repository.NewReservationRepo(db),
		notifier,
		zap.NewNop(),
	)
	return w, mock, notifier
}

func validInput() CreateInput {
	return CreateInput{
		CustomerID:    7,
		ServiceTypeID: 2,
		LocationID:    3,
		DateTime:      "2026-09-15T10:00:00",
		TotalPrice:    95000,
	}
}

func statusRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "descripcion", "color"}).
		AddRow(1, "pendiente", nil, nil)
}

func serviceTypeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "descripcion", "precio_base", "multiplicador", "is_active"}).
		AddRow(2, "Lavado de tapicería", nil, 95000.0, 1.0, true)
}

func locationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "direccion", "barrio", "is_active"}).
		AddRow(3, "Sede Chapinero", "Cl 60 # 9-15", nil, true)
}

func TestCreateValidationShortCircuit(t *testing.T) {
	// No SQL expectations: bad input must fail before any query runs.
	w, mock, _ := newWriter(t)
	ctx := context.Background()

	in := validInput()
	in.CustomerID = 0
	_, err := w.Create(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = validInput()
	in.ServiceTypeID = 0
	_, err = w.Create(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = validInput()
	in.DateTime = "next tuesday"
	_, err = w.Create(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	in = validInput()
	in.TotalPrice = -1
	_, err = w.Create(ctx, in)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownCustomerRollsBack(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).
		WithArgs(7, "CUSTOMER").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), validInput())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "customer", nf.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownServiceTypeRollsBack(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).WillReturnRows(statusRows())
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), validInput())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "service type", nf.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUnknownLocationRollsBack(t *testing.T) {
	w, mock, _ := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).WillReturnRows(statusRows())
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).WillReturnRows(serviceTypeRows())
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), validInput())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "location", nf.Entity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTechnicianSlotConflict(t *testing.T) {
	w, mock, _ := newWriter(t)
	techID := uint64(12)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(12, "TECHNICIAN"))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).WillReturnRows(statusRows())
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).WillReturnRows(serviceTypeRows())
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).WillReturnRows(locationRows())
	mock.ExpectQuery(regexp.QuoteMeta(techSlotLockQuery)).WillReturnRows(countRows(1))
	mock.ExpectRollback()

	in := validInput()
	in.TechnicianID = &techID
	_, err := w.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrSlotConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateKeyMapsToConflict(t *testing.T) {
	w, mock, _ := newWriter(t)
	techID := uint64(12)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(12, "TECHNICIAN"))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).WillReturnRows(statusRows())
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).WillReturnRows(serviceTypeRows())
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).WillReturnRows(locationRows())
	mock.ExpectQuery(regexp.QuoteMeta(techSlotLockQuery)).WillReturnRows(countRows(0))
	mock.ExpectExec("INSERT INTO reservas").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '12-2026-09-15 10:00:00-1' for key 'uq_reservas_tecnico_slot'"))
	mock.ExpectRollback()

	in := validInput()
	in.TechnicianID = &techID
	_, err := w.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrSlotConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSuccess(t *testing.T) {
	w, mock, notifier := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnRows(userRows(7, "CUSTOMER"))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).WillReturnRows(statusRows())
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).WillReturnRows(serviceTypeRows())
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).WillReturnRows(locationRows())
	mock.ExpectExec("INSERT INTO reservas").WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	created, err := w.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, uint64(41), created.ID)
	assert.NotEmpty(t, created.Code)
	assert.Equal(t, "Ana Torres", created.CustomerName)
	assert.Equal(t, "Lavado de tapicería", created.ServiceTypeName)
	assert.Equal(t, 95000.0, created.TotalPrice)
	assert.Equal(t, "2026-09-15T10:00:00Z", created.DateTime)

	select {
	case data := <-notifier.ch:
		assert.Equal(t, created.ID, data.ReservationID)
		assert.Equal(t, created.Code, data.Code)
		assert.Equal(t, "ana@example.com", data.CustomerEmail)
		assert.Equal(t, "2026-09-15 10:00", data.DateTime)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was not dispatched after commit")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNoNotificationOnFailure(t *testing.T) {
	w, mock, notifier := newWriter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(userQuery)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := w.Create(context.Background(), validInput())
	require.Error(t, err)

	select {
	case <-notifier.ch:
		t.Fatal("notification dispatched for a failed booking")
	case <-time.After(100 * time.Millisecond):
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
