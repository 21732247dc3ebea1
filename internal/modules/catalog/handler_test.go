package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studiobooking/internal/database"
	"studiobooking/internal/domain"
	"studiobooking/internal/middleware"
	"studiobooking/internal/repository"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	users  *repository.UserRepository
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	users := repository.NewUserRepository(db)
	svc := NewService(
		repository.NewStudioRepository(db),
		repository.NewRoomRepository(db),
		repository.NewEquipmentRepository(db),
		repository.NewStaffRepository(db),
		users,
		nil,
	)
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User-ID"); id != "" {
			v, _ := strconv.ParseInt(id, 10, 64)
			c.Set(middleware.ContextUserID, v)
			c.Set(middleware.ContextRole, c.GetHeader("X-Test-Role"))
		}
		c.Next()
	})
	v1 := r.Group("/api/v1")
	h.RegisterRoutes(v1)
	h.RegisterProtectedRoutes(v1, middleware.NewOwnershipChecker(repository.NewDirectory(db)))
	return &testEnv{router: r, db: db, users: users}
}

func (e *testEnv) user(t *testing.T, email string, role domain.UserRole) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: email, Role: role, PasswordHash: "x"}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) do(method, path string, as *domain.User, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("X-Test-User-ID", strconv.FormatInt(as.ID, 10))
		req.Header.Set("X-Test-Role", string(as.Role))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Success bool                       `json:"success"`
	Data    map[string]json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func field[T any](t *testing.T, env envelope, key string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data[key], &v))
	return v
}

func TestCatalogFlow(t *testing.T) {
	e := setupTestRouter(t)
	owner := e.user(t, "owner@studio.io", domain.RoleStudioOwner)
	engineer := e.user(t, "eng@studio.io", domain.RoleStaff)

	rr := e.do(http.MethodPost, "/api/v1/studios", owner, gin.H{
		"name": "Basement", "address": "1 Loud St", "city": "Almaty",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	studio := field[domain.Studio](t, decode(t, rr), "studio")
	assert.Equal(t, owner.ID, studio.OwnerID)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/rooms", studio.ID), owner, gin.H{
		"name": "Room A", "capacity": 5, "hourly_rate": "50.00",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	room := field[domain.Room](t, decode(t, rr), "room")
	assert.True(t, room.IsActive)
	assert.Equal(t, "50", room.HourlyRate.String())

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/rooms/%d/equipment", room.ID), owner, gin.H{
		"name": "SM58", "category": "mic", "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	item := field[domain.Equipment](t, decode(t, rr), "equipment")
	assert.Equal(t, studio.ID, item.StudioID)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", studio.ID), owner, gin.H{
		"email": "eng@studio.io", "position": "engineer",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	member := field[domain.StaffMember](t, decode(t, rr), "staff")
	assert.Equal(t, engineer.ID, member.UserID)

	rr = e.do(http.MethodGet, fmt.Sprintf("/api/v1/studios/%d/staff", studio.ID), owner, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, field[[]domain.StaffMember](t, decode(t, rr), "staff"), 1)

	// public reads
	rr = e.do(http.MethodGet, fmt.Sprintf("/api/v1/studios/%d", studio.ID), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, field[domain.Studio](t, decode(t, rr), "studio").Rooms, 1)

	rr = e.do(http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d", room.ID), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, field[[]domain.Equipment](t, decode(t, rr), "equipment"), 1)

	rr = e.do(http.MethodGet, "/api/v1/studios?city=Almaty", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, field[[]domain.Studio](t, decode(t, rr), "studios"), 1)
}

func TestCatalog_Authorization(t *testing.T) {
	e := setupTestRouter(t)
	owner := e.user(t, "owner@studio.io", domain.RoleStudioOwner)
	rival := e.user(t, "rival@studio.io", domain.RoleStudioOwner)
	musician := e.user(t, "band@mail.io", domain.RoleMusician)

	rr := e.do(http.MethodPost, "/api/v1/studios", musician, gin.H{
		"name": "Garage", "address": "x", "city": "y",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(http.MethodPost, "/api/v1/studios", owner, gin.H{"name": "Basement", "address": "x", "city": "y"})
	require.Equal(t, http.StatusCreated, rr.Code)
	studio := field[domain.Studio](t, decode(t, rr), "studio")

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/rooms", studio.ID), rival, gin.H{
		"name": "Hijack", "capacity": 1, "hourly_rate": "1",
	})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = e.do(http.MethodPost, "/api/v1/studios/999/rooms", owner, gin.H{
		"name": "Ghost", "capacity": 1, "hourly_rate": "1",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/rooms", studio.ID), owner, gin.H{
		"name": "Cheap", "capacity": 1, "hourly_rate": "-5",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalog_AddStaffRules(t *testing.T) {
	e := setupTestRouter(t)
	owner := e.user(t, "owner@studio.io", domain.RoleStudioOwner)
	musician := e.user(t, "band@mail.io", domain.RoleMusician)
	engineer := e.user(t, "eng@studio.io", domain.RoleStaff)

	rr := e.do(http.MethodPost, "/api/v1/studios", owner, gin.H{"name": "One", "address": "x", "city": "y"})
	require.Equal(t, http.StatusCreated, rr.Code)
	first := field[domain.Studio](t, decode(t, rr), "studio")
	rr = e.do(http.MethodPost, "/api/v1/studios", owner, gin.H{"name": "Two", "address": "x", "city": "y"})
	require.Equal(t, http.StatusCreated, rr.Code)
	second := field[domain.Studio](t, decode(t, rr), "studio")

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", first.ID), owner, gin.H{"user_id": musician.ID})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", first.ID), owner, gin.H{"user_id": 4242})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", first.ID), owner, gin.H{"user_id": engineer.ID})
	require.Equal(t, http.StatusCreated, rr.Code)

	// one studio per staff user
	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", second.ID), owner, gin.H{"user_id": engineer.ID})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "ALREADY_STAFF", decode(t, rr).Error.Code)

	rr = e.do(http.MethodPost, fmt.Sprintf("/api/v1/studios/%d/staff", second.ID), owner, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
