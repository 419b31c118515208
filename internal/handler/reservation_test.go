package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaporlimpio/reservas-api/internal/booking"
	"github.com/vaporlimpio/reservas-api/internal/model"
	"github.com/vaporlimpio/reservas-api/internal/repository"
)

const (
	roleUserQuery     = "SELECT id,nombre,email,password_hash,telefono,role,is_active,created_at,updated_at FROM usuarios WHERE id=? AND role=? AND is_active=1 LIMIT 1"
	statusByNameQuery = "SELECT id, nombre, descripcion, color FROM estados_reserva WHERE LOWER(nombre)=? LIMIT 1"
	serviceTypeQuery  = "SELECT id, nombre, descripcion, precio_base, multiplicador, is_active FROM tipos_servicio WHERE id=? AND is_active=1"
	locationQuery     = "SELECT id, nombre, direccion, barrio, is_active FROM ubicaciones WHERE id=? AND is_active=1"
)

func newReservationHandler(t *testing.T) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reservations := repository.NewReservationRepo(db)
	w := booking.NewWriter(
		repository.NewUserRepo(db),
		repository.NewStatusRepo(db),
		repository.NewServiceTypeRepo(db),
		repository.NewLocationRepo(db),
		repository.NewVehicleRepo(db),
		reservations,
		nil,
		zap.NewNop(),
	)
	return NewReservationHandler(w, reservations, zap.NewNop()), mock
}

// postReservation invokes the create handler as the given actor, the way
// the JWT middleware would have prepared the context.
func postReservation(h *ReservationHandler, body string, userID uint64, role string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("role", role)
	_ = h.Create(c)
	return rec
}

func customerRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "nombre", "email", "password_hash", "telefono", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "Ana Torres", "ana@example.com", "$2a$10$hash", nil, "CUSTOMER", true, now, now)
}

func TestCreateReservationValidationIs400(t *testing.T) {
	h, mock := newReservationHandler(t)

	rec := postReservation(h, `{"service_type_id":2,"location_id":3,"date_time":"bad","total_price":1}`, 7, model.RoleCustomer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationUnknownCustomerIs404(t *testing.T) {
	h, mock := newReservationHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(roleUserQuery)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	rec := postReservation(h, `{"service_type_id":2,"location_id":3,"date_time":"2026-09-15T10:00:00","total_price":95000}`, 7, model.RoleCustomer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationConflictIs409(t *testing.T) {
	h, mock := newReservationHandler(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(roleUserQuery)).WillReturnRows(customerRows())
	mock.ExpectQuery(regexp.QuoteMeta(roleUserQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "email", "password_hash", "telefono", "role", "is_active", "created_at", "updated_at"}).
			AddRow(12, "Luis Prada", "luis@example.com", "$2a$10$hash", nil, "TECHNICIAN", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "descripcion", "color"}).AddRow(1, "pendiente", nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "descripcion", "precio_base", "multiplicador", "is_active"}).
			AddRow(2, "Lavado premium", nil, 95000.0, 1.2, true))
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "direccion", "barrio", "is_active"}).
			AddRow(3, "Sede Chapinero", "Cl 60 # 9-15", nil, true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservas WHERE tecnico_id=? AND fecha_hora=? AND activa=1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectRollback()

	body := `{"technician_id":12,"service_type_id":2,"location_id":3,"date_time":"2026-09-15T10:00:00","total_price":95000}`
	rec := postReservation(h, body, 7, model.RoleCustomer)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationSuccessIs201(t *testing.T) {
	h, mock := newReservationHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(roleUserQuery)).WillReturnRows(customerRows())
	mock.ExpectQuery(regexp.QuoteMeta(statusByNameQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "descripcion", "color"}).AddRow(1, "pendiente", nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(serviceTypeQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "descripcion", "precio_base", "multiplicador", "is_active"}).
			AddRow(2, "Lavado premium", nil, 95000.0, 1.2, true))
	mock.ExpectQuery(regexp.QuoteMeta(locationQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "direccion", "barrio", "is_active"}).
			AddRow(3, "Sede Chapinero", "Cl 60 # 9-15", nil, true))
	mock.ExpectExec("INSERT INTO reservas").WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM reservas WHERE id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	body := `{"service_type_id":2,"location_id":3,"date_time":"2026-09-15T10:00:00","total_price":95000}`
	rec := postReservation(h, body, 7, model.RoleCustomer)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"codigo"`)
	assert.Contains(t, rec.Body.String(), "Ana Torres")
	require.NoError(t, mock.ExpectationsWereMet())
}

// A customer cannot book on behalf of someone else: the JWT identity wins
// over the request body.
func TestCreateReservationCustomerIDFromToken(t *testing.T) {
	h, mock := newReservationHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(roleUserQuery)).
		WithArgs(7, "CUSTOMER").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	body := `{"customer_id":999,"service_type_id":2,"location_id":3,"date_time":"2026-09-15T10:00:00","total_price":95000}`
	rec := postReservation(h, body, 7, model.RoleCustomer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
