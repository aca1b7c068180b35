package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-storefront/internal/core/auth"
	"go-storefront/internal/core/cache"
	"go-storefront/internal/domain"
	"go-storefront/internal/service"
	"go-storefront/internal/transport/http/handler"
	"go-storefront/internal/transport/http/router"
	"go-storefront/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	c := *u
	m.users[u.Email] = &c
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *memUsers) List(_ context.Context, _ string, _, _ int) ([]domain.User, int64, error) {
	return nil, 0, nil
}

type memProducts struct{ products map[int64]*domain.Product }

func (m *memProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (m *memProducts) Featured(_ context.Context, limit int) ([]domain.Product, error) {
	return nil, nil
}

func (m *memProducts) Popular(_ context.Context, limit int) ([]domain.Product, error) {
	return nil, nil
}

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memKV) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

func (m *memKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type testEnv struct {
	engine *gin.Engine
	users  *memUsers
	kv     *memKV
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := &memUsers{users: map[string]*domain.User{}}
	products := &memProducts{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Desk Lamp", Price: "24.50", Image: "/img/lamp.png", CategoryID: 1, Rating: "4.0"},
	}}
	kv := &memKV{data: map[string][]byte{}}

	log := zap.NewNop()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "storefront", TTL: time.Hour}
	gate := service.NewAuthGate(users, kv, log, service.AuthGateOpts{})
	productSvc := service.NewProductService(products, cache.NewReader(kv, log), time.Hour, log)

	engine := router.NewEngine(log, jwter,
		handler.NewAuthHandler(gate, users, jwter, log),
		handler.NewProductHandler(productSvc, log),
		handler.NewAdminHandler(users, log),
	)
	return &testEnv{engine: engine, users: users, kv: kv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "Alice@Example.com", "password": "hunter22", "name": "Alice"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var out struct {
		Data struct {
			UserID string `json:"userId"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Data.UserID)

	// Stored under the normalized email.
	u, err := env.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestRegister_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "alice@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateConflict(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "bob@example.com", "password": "hunter22"}, nil)
	require.Equal(t, http.StatusCreated, first.Code)

	second := env.do(t, http.MethodPost, "/api/v1/auth/register",
		gin.H{"email": "BOB@example.com", "password": "other-pass"}, nil)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestLogin_SuccessIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(context.Background(), &domain.User{
		ID: utils.NewID(), Email: "carol@example.com",
		PasswordHash: utils.HashPassword("s3cret"), Role: domain.RoleUser,
	}))

	w := env.do(t, http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "carol@example.com", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)

	// The token works against the gated group.
	me := env.do(t, http.MethodGet, "/api/v1/me", nil,
		map[string]string{"Authorization": "Bearer " + out.Data.Token})
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(context.Background(), &domain.User{
		ID: utils.NewID(), Email: "dave@example.com",
		PasswordHash: utils.HashPassword("rightpw"), Role: domain.RoleUser,
	}))

	wrongPw := env.do(t, http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "dave@example.com", "password": "wrongpw"}, nil)
	unknown := env.do(t, http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "nobody@example.com", "password": "whatever"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestLogin_LockoutPresentedGenerically(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.users.Create(context.Background(), &domain.User{
		ID: utils.NewID(), Email: "eve@example.com",
		PasswordHash: utils.HashPassword("rightpw"), Role: domain.RoleUser,
	}))

	for i := 0; i < service.DefaultMaxAttempts; i++ {
		env.do(t, http.MethodPost, "/api/v1/auth/login",
			gin.H{"email": "eve@example.com", "password": "wrongpw"}, nil)
	}

	// Locked out now; the correct password still reads as a generic 401.
	w := env.do(t, http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "eve@example.com", "password": "rightpw"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")
}

func TestGetProduct_OKAnd404(t *testing.T) {
	env := newTestEnv(t)

	ok := env.do(t, http.MethodGet, "/api/v1/products/1", nil, nil)
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Contains(t, ok.Body.String(), "Desk Lamp")

	missing := env.do(t, http.MethodGet, "/api/v1/products/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
	_, cached := env.kv.data["product:999"]
	assert.False(t, cached)
}

func TestAdminUsers_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "storefront", TTL: time.Hour}

	noToken := env.do(t, http.MethodGet, "/admin/v1/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, noToken.Code)

	userTok, err := jwter.Issue("u1", "user@example.com", domain.RoleUser)
	require.NoError(t, err)
	forbidden := env.do(t, http.MethodGet, "/admin/v1/users", nil,
		map[string]string{"Authorization": "Bearer " + userTok})
	assert.Equal(t, http.StatusForbidden, forbidden.Code)

	adminTok, err := jwter.Issue("a1", "admin@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	allowed := env.do(t, http.MethodGet, "/admin/v1/users", nil,
		map[string]string{"Authorization": "Bearer " + adminTok})
	assert.Equal(t, http.StatusOK, allowed.Code)
}
