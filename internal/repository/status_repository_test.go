package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusByIDQuery = "SELECT id, nombre, descripcion, color FROM estados_reserva WHERE id=?"

func newStatusRepo(t *testing.T) (*StatusRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStatusRepo(db), mock
}

func statusRow(id uint64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "nombre", "descripcion", "color"}).
		AddRow(id, name, nil, nil)
}

func TestStatusDeleteProtected(t *testing.T) {
	for _, name := range []string{"pendiente", "confirmada", "completada", "cancelada"} {
		t.Run(name, func(t *testing.T) {
			r, mock := newStatusRepo(t)
			mock.ExpectQuery(regexp.QuoteMeta(statusByIDQuery)).
				WithArgs(4).WillReturnRows(statusRow(4, name))
			// No DELETE expectation: the protected check must stop first.

			err := r.Delete(context.Background(), 4)
			assert.ErrorIs(t, err, ErrStatusProtected)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStatusDeleteUnprotected(t *testing.T) {
	r, mock := newStatusRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(statusByIDQuery)).
		WithArgs(9).WillReturnRows(statusRow(9, "reprogramada"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM estados_reserva WHERE id=?")).
		WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Delete(context.Background(), 9)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusDeleteUnknown(t *testing.T) {
	r, mock := newStatusRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(statusByIDQuery)).
		WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "descripcion", "color"}))

	err := r.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrStatusNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusCreateDuplicateName(t *testing.T) {
	r, mock := newStatusRepo(t)
	mock.ExpectExec("INSERT INTO estados_reserva").
		WillReturnError(errDuplicate())

	s := statusFixture("pendiente")
	err := r.Create(context.Background(), &s)
	assert.ErrorIs(t, err, ErrNameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusUpdateRenameCollision(t *testing.T) {
	r, mock := newStatusRepo(t)
	mock.ExpectExec("UPDATE estados_reserva SET").
		WillReturnError(errDuplicate())

	s := statusFixture("confirmada")
	s.ID = 9
	err := r.Update(context.Background(), &s)
	assert.ErrorIs(t, err, ErrNameExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
