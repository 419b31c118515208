package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaporlimpio/reservas-api/internal/utils"
)

const testSecret = "test-secret"

func protectedApp(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/v1/private", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	}, mw...)
	return e
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	e := protectedApp(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/v1/private", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	e := protectedApp(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/v1/private", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, "CUSTOMER", 15)
	require.NoError(t, err)

	e := protectedApp(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/v1/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 15)
	require.NoError(t, err)

	e := protectedApp(JWTAuth(testSecret))
	req := httptest.NewRequest(http.MethodGet, "/v1/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
}

func TestRequireRole(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 15)
	require.NoError(t, err)

	e := protectedApp(JWTAuth(testSecret), RequireRole("ADMIN"))
	req := httptest.NewRequest(http.MethodGet, "/v1/private", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	e = protectedApp(JWTAuth(testSecret), RequireRole("ADMIN", "CUSTOMER"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
