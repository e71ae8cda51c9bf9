package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fulfillment-service/internal/auth"
	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"
	"fulfillment-service/internal/messaging"
	"fulfillment-service/internal/services"
	"fulfillment-service/internal/storage/filestore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  repositories.Store
	users  *services.UserService
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := filestore.Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	log := logger.NewNop()
	publisher := messaging.NopPublisher{}
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	users := services.NewUserService(store.Users(), log)

	router := NewRouter(Services{
		Products:   services.NewProductService(store.Products(), log),
		Tasks:      services.NewTaskService(store.Tasks(), publisher, log),
		History:    services.NewHistoryService(store.History(), log),
		Activities: services.NewActivityService(store.Activities(), publisher, log),
		Users:      users,
	}, jwtService, log)

	return &testServer{t: t, router: router, store: store, users: users, jwt: jwtService}
}

func (s *testServer) token(role string) string {
	s.t.Helper()
	token, err := s.jwt.GenerateToken("user-"+role, role+"@example.com", role)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAdminerIsNotServed(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/adminer", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodDelete, "/api/products/any", s.token(entities.RoleSales), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/users", s.token(entities.RoleWarehouse), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/products", s.token(entities.RoleSales), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(entities.RoleAdmin)

	w := s.do(http.MethodPost, "/api/products", admin, map[string]interface{}{
		"product_code":     "PRD010",
		"product_name":     "测试商品",
		"product_supplier": "供应商A",
		"quantity":         12,
		"purchase_price":   8.5,
		"sale_price":       19.9,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created entities.Product
	decode(t, w, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "PRD010", created.ProductCode)
	assert.Equal(t, "测试商品", created.ProductName)
	assert.Equal(t, "供应商A", created.ProductSupplier)
	assert.Equal(t, 12, created.Quantity)
	assert.Equal(t, "8.5", created.PurchasePrice.String())
	assert.Equal(t, "19.9", created.SalePrice.String())

	w = s.do(http.MethodGet, "/api/products", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []entities.Product
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	// 空更新不修改任何字段
	w = s.do(http.MethodPut, "/api/products/"+created.ID, admin, map[string]interface{}{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var unchanged entities.Product
	decode(t, w, &unchanged)
	assert.Equal(t, 12, unchanged.Quantity)
	assert.Equal(t, "测试商品", unchanged.ProductName)

	w = s.do(http.MethodPut, "/api/products/"+created.ID, admin, map[string]interface{}{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated entities.Product
	decode(t, w, &updated)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, "测试商品", updated.ProductName)
	assert.Equal(t, "供应商A", updated.ProductSupplier)
	assert.True(t, updated.SalePrice.Equal(created.SalePrice))

	w = s.do(http.MethodPut, "/api/products/missing", admin, map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/products/"+created.ID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message")

	w = s.do(http.MethodDelete, "/api/products/"+created.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(entities.RoleAdmin)

	w := s.do(http.MethodPost, "/api/products", admin, `{"product_code":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/tasks", admin, `{"task_number":"T1","items":{"not":"an array"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskItemsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := s.token(entities.RoleSales)

	items := `[{"product_code":"PRD001","quantity":2,"note":"易碎"},{"product_id":"p-2","quantity":1}]`
	w := s.do(http.MethodPost, "/api/tasks", token, `{"task_number":"T-100","items":`+items+`,"label_image":"label.png"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var created entities.Task
	decode(t, w, &created)
	assert.Equal(t, entities.TaskStatusPending, created.Status)
	assert.Equal(t, "sales@example.com", created.CreatorName)

	w = s.do(http.MethodGet, "/api/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items json.RawMessage `json:"items"`
	}
	decode(t, w, &body)
	assert.JSONEq(t, items, string(body.Items))

	w = s.do(http.MethodGet, "/api/tasks/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestArchiveTask(t *testing.T) {
	s := newTestServer(t)
	token := s.token(entities.RoleWarehouse)

	w := s.do(http.MethodDelete, "/api/tasks/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	items := `[{"product_code":"PRD001","quantity":3}]`
	w = s.do(http.MethodPost, "/api/tasks", s.token(entities.RoleAdmin),
		`{"task_number":"T-200","items":`+items+`,"body_code_image":"body.png","manual_image":"manual.pdf"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var task entities.Task
	decode(t, w, &task)

	w = s.do(http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var archived struct {
		Message string           `json:"message"`
		History entities.History `json:"history"`
	}
	decode(t, w, &archived)
	assert.NotEmpty(t, archived.Message)
	assert.Equal(t, task.ID, archived.History.ID)
	assert.Equal(t, "body.png", archived.History.BodyCodeImage)
	assert.Equal(t, "manual.pdf", archived.History.ManualImage)
	assert.JSONEq(t, items, string(archived.History.Items))

	w = s.do(http.MethodGet, "/api/tasks", token, nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/history", token, nil)
	var history []entities.History
	decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "T-200", history[0].TaskNumber)
}

func TestShipTask(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(entities.RoleAdmin)
	warehouse := s.token(entities.RoleWarehouse)

	w := s.do(http.MethodPost, "/api/products", admin, map[string]interface{}{"product_code": "PRD001", "quantity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var product entities.Product
	decode(t, w, &product)

	createTask := func(quantity int) entities.Task {
		items, err := json.Marshal([]map[string]interface{}{{"product_code": "PRD001", "quantity": quantity}})
		require.NoError(t, err)
		w := s.do(http.MethodPost, "/api/tasks", admin, `{"task_number":"T-ship","items":`+string(items)+`}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var task entities.Task
		decode(t, w, &task)
		return task
	}

	quantity := func() int {
		p, err := s.store.Products().FindByID(t.Context(), product.ID)
		require.NoError(t, err)
		return p.Quantity
	}

	shipped := createTask(2)
	w = s.do(http.MethodPost, "/api/tasks/"+shipped.ID+"/ship", warehouse, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var task entities.Task
	decode(t, w, &task)
	assert.Equal(t, entities.TaskStatusShipped, task.Status)
	assert.Equal(t, 3, quantity())

	tooLarge := createTask(10)
	w = s.do(http.MethodPost, "/api/tasks/"+tooLarge.ID+"/ship", warehouse, `{"status":"部分发货"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 3, quantity())

	unchanged, err := s.store.Tasks().FindByID(t.Context(), tooLarge.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, unchanged.Status)

	w = s.do(http.MethodPost, "/api/tasks/"+shipped.ID+"/ship", s.token(entities.RoleSales), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginAndProfile(t *testing.T) {
	s := newTestServer(t)

	_, err := s.users.Create(t.Context(), entities.CreateUserDTO{
		Email:    "Warehouse@Example.com",
		Password: "secret123",
		Name:     "仓库",
		Role:     entities.RoleWarehouse,
	})
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "warehouse@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "warehouse@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "warehouse@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var login struct {
		Token string        `json:"token"`
		User  entities.User `json:"user"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, entities.RoleWarehouse, login.User.Role)
	assert.NotNil(t, login.User.LastLogin)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me entities.User
	decode(t, w, &me)
	assert.Equal(t, "warehouse@example.com", me.Email)

	w = s.do(http.MethodPut, "/api/auth/me", login.Token, map[string]string{"company_name": "示例公司"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &me)
	assert.Equal(t, "示例公司", me.CompanyName)
	assert.Equal(t, "仓库", me.Name)
}

func TestUsersAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(entities.RoleAdmin)

	dto := map[string]string{"email": "sales@example.com", "password": "secret123", "name": "销售", "role": entities.RoleSales}
	w := s.do(http.MethodPost, "/api/users", admin, dto)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/users", admin, dto)
	assert.Equal(t, http.StatusConflict, w.Code)

	dto["email"] = "other@example.com"
	dto["role"] = "superuser"
	w = s.do(http.MethodPost, "/api/users", admin, dto)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []entities.User
	decode(t, w, &users)
	assert.Len(t, users, 1)
}

func TestHistoryCreateAndExport(t *testing.T) {
	s := newTestServer(t)
	token := s.token(entities.RoleWarehouse)

	w := s.do(http.MethodPost, "/api/history", token, `{"task_number":"H-1","items":[{"product_code":"PRD001","quantity":1}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var history entities.History
	decode(t, w, &history)
	assert.False(t, history.CompletedAt.IsZero())

	w = s.do(http.MethodGet, "/api/history/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, w.Body.Len())

	w = s.do(http.MethodGet, "/api/history/export", s.token(entities.RoleSales), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActivityUsesTokenActor(t *testing.T) {
	s := newTestServer(t)
	token := s.token(entities.RoleSales)

	w := s.do(http.MethodPost, "/api/activities", token, map[string]string{"type": "login", "details": "登录系统"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var activity entities.Activity
	decode(t, w, &activity)
	assert.Equal(t, "sales@example.com", activity.Actor)

	w = s.do(http.MethodGet, "/api/activities", token, nil)
	var activities []entities.Activity
	decode(t, w, &activities)
	require.Len(t, activities, 1)
	assert.Equal(t, activity.ID, activities[0].ID)
}
