package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fulfillment-service/internal/auth"
	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(jwtService *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.Use(Trace())
	r.DELETE("/products/:id",
		AuthMiddleware(jwtService),
		PermissionMiddleware(ResourceProducts, ActionDelete),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserID)})
		})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService("secret", time.Hour)
	router := newProtectedRouter(jwtService)

	adminToken, err := jwtService.GenerateToken("u1", "admin@example.com", entities.RoleAdmin)
	require.NoError(t, err)
	salesToken, err := jwtService.GenerateToken("u2", "sales@example.com", entities.RoleSales)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"sales forbidden", "Bearer " + salesToken, http.StatusForbidden},
		{"admin allowed", "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{entities.RoleAdmin, ResourceUsers, ActionCreate, true},
		{entities.RoleAdmin, ResourceProducts, ActionDelete, true},
		{entities.RoleSales, ResourceProducts, ActionList, true},
		{entities.RoleSales, ResourceProducts, ActionCreate, false},
		{entities.RoleSales, ResourceTasks, ActionCreate, true},
		{entities.RoleSales, ResourceTasks, ActionShip, false},
		{entities.RoleSales, ResourceTasks, ActionArchive, false},
		{entities.RoleSales, ResourceHistory, ActionExport, false},
		{entities.RoleWarehouse, ResourceProducts, ActionUpdate, true},
		{entities.RoleWarehouse, ResourceProducts, ActionDelete, false},
		{entities.RoleWarehouse, ResourceTasks, ActionCreate, false},
		{entities.RoleWarehouse, ResourceTasks, ActionShip, true},
		{entities.RoleWarehouse, ResourceTasks, ActionArchive, true},
		{entities.RoleWarehouse, ResourceHistory, ActionExport, true},
		{entities.RoleWarehouse, ResourceUsers, ActionList, false},
		{"unknown", ResourceProducts, ActionList, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HasPermission(tt.role, tt.resource, tt.action), "%s %s:%s", tt.role, tt.resource, tt.action)
	}
}

func TestTracePropagatesHeader(t *testing.T) {
	r := gin.New()
	r.Use(Trace())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetTraceID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get(TraceIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(TraceIDHeader))
	assert.Equal(t, w.Header().Get(TraceIDHeader), w.Body.String())
}

func TestRequestLoggerWritesTraceID(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewLogger(logger.Config{Level: logger.LevelInfo, JSONFormat: true, Output: &buf})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Trace(), RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(TraceIDHeader, "trace-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"trace_id":"trace-42"`)
	assert.Contains(t, buf.String(), `"status":404`)
	assert.Contains(t, buf.String(), `"level":"warning"`)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
