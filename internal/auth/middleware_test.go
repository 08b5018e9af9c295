package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	grp := r.Group("/", Bearer(testKey, testIssuer), RequireRole(role))
	grp.GET("/ping", func(c *gin.Context) {
		claims, _ := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	return r
}

func TestBearerRejectsMissingToken(t *testing.T) {
	r := newProtectedRouter(RoleTeacher)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerRejectsGarbageToken(t *testing.T) {
	r := newProtectedRouter(RoleTeacher)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleBlocksOtherRole(t *testing.T) {
	token, _, err := Issue("u1", RoleStudent, testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	r := newProtectedRouter(RoleTeacher)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBearerPassesValidToken(t *testing.T) {
	token, _, err := Issue("u1", RoleTeacher, testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	r := newProtectedRouter(RoleTeacher)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sub":"u1"`)
}
