package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlimpio/reservas-api/internal/model"
)

const vehicleUpdateQuery = "UPDATE vehiculos SET placa=?, marca=?, modelo=?, tipo=? WHERE id=? AND usuario_id=?"

func newVehicleRepo(t *testing.T) (*VehicleRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewVehicleRepo(db), mock
}

func TestVehicleUpdateOwnedWritesPlate(t *testing.T) {
	r, mock := newVehicleRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(vehicleUpdateQuery)).
		WithArgs("XYZ789", "Mazda", "3", "sedan", 7, 21).
		WillReturnResult(sqlmock.NewResult(0, 1))

	v := model.Vehicle{
		ID:     7,
		UserID: 21,
		Plate:  " xyz789 ",
		Brand:  str("Mazda"),
		Model:  str("3"),
		Kind:   str("sedan"),
	}
	err := r.UpdateOwned(context.Background(), &v)
	require.NoError(t, err)
	assert.Equal(t, "XYZ789", v.Plate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleUpdateOwnedDuplicatePlate(t *testing.T) {
	r, mock := newVehicleRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(vehicleUpdateQuery)).
		WillReturnError(errDuplicate())

	v := model.Vehicle{ID: 7, UserID: 21, Plate: "ABC123"}
	err := r.UpdateOwned(context.Background(), &v)
	assert.ErrorIs(t, err, ErrNameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleUpdateOwnedWrongOwner(t *testing.T) {
	r, mock := newVehicleRepo(t)
	mock.ExpectExec(regexp.QuoteMeta(vehicleUpdateQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM vehiculos WHERE id=? AND usuario_id=?")).
		WithArgs(7, 99).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	v := model.Vehicle{ID: 7, UserID: 99, Plate: "ABC123"}
	err := r.UpdateOwned(context.Background(), &v)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
