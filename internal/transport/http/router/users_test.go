package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"user-admin-api/internal/core/auth"
	"user-admin-api/internal/domain"
	"user-admin-api/internal/service"
	"user-admin-api/internal/store"
)

type env struct {
	engine   *gin.Engine
	accounts *store.AccountStore
	jwter    *auth.JWTer
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	accounts := store.NewAccountStore(db)
	require.NoError(t, accounts.AutoMigrate())
	require.NoError(t, accounts.EnsureSeedAdmin())

	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	e := NewAPIEngine(zap.NewNop(), Deps{
		Store: accounts,
		Authn: service.NewAuthenticator(accounts, jwter),
		JWTer: jwter,
	})
	return &env{engine: e, accounts: accounts, jwter: jwter}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e *env) request(t *testing.T, method, path, token string, body any) envelope {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (e *env) login(t *testing.T, email, password string) (token string, user domain.Projection) {
	t.Helper()
	env := e.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, 0, env.Code, "login failed: %s", env.Msg)
	var out struct {
		Token string            `json:"token"`
		User  domain.Projection `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Token, out.User
}

func TestLogin_SeededAdmin(t *testing.T) {
	e := newTestEnv(t)
	tok, user := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)
	assert.NotEmpty(t, tok)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newTestEnv(t)
	env := e.request(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "x@x.com", "password": "wrong",
	})
	assert.Equal(t, 401, env.Code)
}

func TestGuard_MissingAndInvalidToken(t *testing.T) {
	e := newTestEnv(t)

	env := e.request(t, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, 401, env.Code)

	env = e.request(t, http.MethodGet, "/api/v1/users", "garbage-token", nil)
	assert.Equal(t, 401, env.Code)
}

func TestUsersCRUD(t *testing.T) {
	e := newTestEnv(t)
	tok, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	// create
	env := e.request(t, http.MethodPost, "/api/v1/users", tok, map[string]string{
		"email": "a@a.com", "password": "secret123", "firstName": "Alice", "lastName": "Ames",
	})
	require.Equal(t, 0, env.Code, env.Msg)
	var created domain.Projection
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, domain.RoleUser, created.Role)

	// duplicate create → 409
	env = e.request(t, http.MethodPost, "/api/v1/users", tok, map[string]string{
		"email": "a@a.com", "password": "secret123", "firstName": "Alice", "lastName": "Ames",
	})
	assert.Equal(t, 409, env.Code)

	// list contains admin + alice, never a password field
	env = e.request(t, http.MethodGet, "/api/v1/users", tok, nil)
	require.Equal(t, 0, env.Code)
	assert.NotContains(t, strings.ToLower(string(env.Data)), "password")
	var list []domain.Projection
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	// get by id
	env = e.request(t, http.MethodGet, "/api/v1/users/"+created.ID, tok, nil)
	assert.Equal(t, 0, env.Code)

	// update
	env = e.request(t, http.MethodPatch, "/api/v1/users/"+created.ID, tok, map[string]string{
		"firstName": "Alicia",
	})
	require.Equal(t, 0, env.Code)
	var updated domain.Projection
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "Ames", updated.LastName)

	// delete, then 404
	env = e.request(t, http.MethodDelete, "/api/v1/users/"+created.ID, tok, nil)
	assert.Equal(t, 0, env.Code)
	env = e.request(t, http.MethodGet, "/api/v1/users/"+created.ID, tok, nil)
	assert.Equal(t, 404, env.Code)
}

func TestUpdate_RejectsMalformedPatch(t *testing.T) {
	e := newTestEnv(t)
	tok, admin := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	for _, body := range []map[string]string{
		{"email": "not-an-email"},
		{"email": ""},
		{"password": "short"},
		{"firstName": ""},
		{"role": "superuser"},
	} {
		env := e.request(t, http.MethodPatch, "/api/v1/users/"+admin.ID, tok, body)
		assert.Equal(t, 400, env.Code, "patch %v must fail validation", body)
	}

	// 没过校验的补丁不落库
	p, err := e.accounts.FindByID(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, store.SeedAdminEmail, p.Email)
	assert.Equal(t, "Admin", p.FirstName)
}

func TestDelete_UnknownID(t *testing.T) {
	e := newTestEnv(t)
	tok, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)
	env := e.request(t, http.MethodDelete, "/api/v1/users/zzz", tok, nil)
	assert.Equal(t, 404, env.Code)
}

func TestNonAdmin_CannotCreateDeleteSeed(t *testing.T) {
	e := newTestEnv(t)
	admin, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)
	env := e.request(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"email": "u@u.com", "password": "secret123", "firstName": "Plain", "lastName": "User",
	})
	require.Equal(t, 0, env.Code)

	tok, _ := e.login(t, "u@u.com", "secret123")

	env = e.request(t, http.MethodPost, "/api/v1/users", tok, map[string]string{
		"email": "v@v.com", "password": "secret123", "firstName": "V", "lastName": "V",
	})
	assert.Equal(t, 403, env.Code)

	env = e.request(t, http.MethodDelete, "/api/v1/users/zzz", tok, nil)
	assert.Equal(t, 403, env.Code)

	env = e.request(t, http.MethodPost, "/api/v1/users/seed", tok, nil)
	assert.Equal(t, 403, env.Code)
}

func TestNonAdmin_SelfUpdateRules(t *testing.T) {
	e := newTestEnv(t)
	admin, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)
	env := e.request(t, http.MethodPost, "/api/v1/users", admin, map[string]string{
		"email": "u@u.com", "password": "secret123", "firstName": "Plain", "lastName": "User",
	})
	require.Equal(t, 0, env.Code)
	var u domain.Projection
	require.NoError(t, json.Unmarshal(env.Data, &u))

	tok, _ := e.login(t, "u@u.com", "secret123")

	// own non-role fields: allowed
	env = e.request(t, http.MethodPatch, "/api/v1/users/"+u.ID, tok, map[string]string{
		"lastName": "Renamed",
	})
	assert.Equal(t, 0, env.Code)

	// own role: rejected
	env = e.request(t, http.MethodPatch, "/api/v1/users/"+u.ID, tok, map[string]string{
		"role": "admin",
	})
	assert.Equal(t, 403, env.Code)

	// someone else: rejected
	env = e.request(t, http.MethodPatch, "/api/v1/users/someone-else", tok, map[string]string{
		"firstName": "Nope",
	})
	assert.Equal(t, 403, env.Code)
}

func TestAdmin_SelfRoleChangeRejected(t *testing.T) {
	e := newTestEnv(t)
	tok, admin := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	env := e.request(t, http.MethodPatch, "/api/v1/users/"+admin.ID, tok, map[string]string{
		"role": "user",
	})
	assert.Equal(t, 403, env.Code)

	// storage unchanged
	p, err := e.accounts.FindByID(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestSeedEndpoint_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	tok, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	type seedOut struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}

	env := e.request(t, http.MethodPost, "/api/v1/users/seed", tok, nil)
	require.Equal(t, 0, env.Code)
	var out seedOut
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 25, out.Count)
	assert.Equal(t, "Successfully seeded 25 test users", out.Message)

	env = e.request(t, http.MethodPost, "/api/v1/users/seed", tok, nil)
	require.Equal(t, 0, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 0, out.Count)
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)
	tok, admin := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	env := e.request(t, http.MethodGet, "/api/v1/me", tok, nil)
	require.Equal(t, 0, env.Code)
	var me domain.Projection
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, admin.ID, me.ID)
	assert.Equal(t, store.SeedAdminEmail, me.Email)
}

func TestAdminEngine_ListAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := newTestEnv(t)
	tok, _ := e.login(t, store.SeedAdminEmail, store.SeedAdminPassword)

	adm := NewAdminEngine(zap.NewNop(), Deps{
		Store: e.accounts,
		Authn: service.NewAuthenticator(e.accounts, e.jwter),
		JWTer: e.jwter,
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/users?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	adm.ServeHTTP(w, req)
	var env2 envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env2))
	assert.Equal(t, 0, env2.Code)

	// metrics endpoint is open on the ops port
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	adm.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
