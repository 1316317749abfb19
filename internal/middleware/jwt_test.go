package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expohub/expo-reservation/internal/model"
	"github.com/expohub/expo-reservation/internal/utils"
)

const testSecret = "gate-test-secret"

func doRequest(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get(CtxUserID),
			"role":    c.Get(CtxRole),
		})
	}
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	e.GET("/protected", handler)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userID uint64, role string, ttlMin int) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, ttlMin)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMalformedToken(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthExpiredToken(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, bearer(t, 7, model.RoleExhibitor, -1))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 7, model.RoleExhibitor, 15)
	require.NoError(t, err)
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, "Bearer "+tok.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidTokenPassesPrincipal(t *testing.T) {
	rec := doRequest(t, []echo.MiddlewareFunc{JWTAuth(testSecret)}, bearer(t, 7, model.RoleExhibitor, 15))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"EXHIBITOR"}`, rec.Body.String())
}

func TestRequireRoleAllowsPermittedSet(t *testing.T) {
	mw := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole(model.RoleOrganizer, model.RoleAdmin)}

	rec := doRequest(t, mw, bearer(t, 1, model.RoleOrganizer, 15))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, mw, bearer(t, 2, model.RoleAdmin, 15))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	mw := []echo.MiddlewareFunc{JWTAuth(testSecret), RequireRole(model.RoleExhibitor)}

	// Valid identity, wrong role: forbidden rather than unauthenticated.
	rec := doRequest(t, mw, bearer(t, 3, model.RoleAttendee, 15))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, mw, bearer(t, 4, "UNKNOWN", 15))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
	// Role gate without the identity gate: nothing in context, 403.
	rec := doRequest(t, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
