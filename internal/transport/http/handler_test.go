package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"identity/internal/domain"
	"identity/internal/dto"
	"identity/internal/observability/metrics"
	"identity/internal/service/impl"
	"identity/internal/store"
)

type testEnv struct {
	server *httptest.Server
	users  *store.UserStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&domain.User{}))

	hasher := impl.NewPasswordServiceArgon2id()
	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     "identity",
		Audience:   "identity-clients",
		AccessTTL:  time.Hour,
		SigningKey: []byte("handler-test-key"),
	})
	users := store.NewUserStore(store.New(gdb), hasher)
	identity := impl.NewIdentityServiceImpl(users, tokens, time.Hour)

	srv := httptest.NewServer(NewRouter(identity, RouterConfig{}))
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) register(t *testing.T, email, password string) dto.PublicUser {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/auth/register", "", dto.UserCreate{Email: email, Password: password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[dto.PublicUser](t, resp)
}

func (e *testEnv) login(t *testing.T, email, password string) dto.TokenResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[dto.TokenResponse](t, resp)
}

func (e *testEnv) setFlags(t *testing.T, id string, active, verified *bool) {
	t.Helper()
	uid, err := domain.ParseUserID(id)
	require.NoError(t, err)
	usr, err := e.users.Get(context.Background(), uid)
	require.NoError(t, err)
	_, err = e.users.Update(context.Background(), usr, dto.UserUpdate{IsActive: active, IsVerified: verified})
	require.NoError(t, err)
}

func TestRegisterResponseCarriesNoSecrets(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/auth/register", "", dto.UserCreate{
		Email:    "alice@example.com",
		Password: "Secr3tPass!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	raw := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "alice@example.com", raw["email"])
	assert.NotContains(t, raw, "password")
	assert.NotContains(t, raw, "passwordHash")
	assert.NotContains(t, raw, "password_hash")
}

func TestAuthScenario(t *testing.T) {
	env := newTestEnv(t)

	alice := env.register(t, "alice@example.com", "Secr3tPass!")

	// Wrong password is unauthorized.
	resp := env.do(t, http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Correct password yields a bearer token that resolves to alice.
	tokens := env.login(t, "alice@example.com", "Secr3tPass!")
	assert.Equal(t, "bearer", tokens.TokenType)
	require.NotEmpty(t, tokens.AccessToken)

	resp = env.do(t, http.MethodGet, "/v1/users/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[dto.PublicUser](t, resp)
	assert.Equal(t, alice.ID, me.ID)

	// Deactivating alice turns the same token into a 403.
	inactive := false
	env.setFlags(t, alice.ID, &inactive, nil)
	resp = env.do(t, http.MethodGet, "/v1/users/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Back to active; stealing bob's email is a conflict.
	active := true
	env.setFlags(t, alice.ID, &active, nil)
	env.register(t, "bob@example.com", "BobsPassw0rd")

	resp = env.do(t, http.MethodPatch, "/v1/users/me", tokens.AccessToken, map[string]string{
		"email": "bob@example.com",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/v1/users/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me = decodeBody[dto.PublicUser](t, resp)
	assert.Equal(t, "alice@example.com", me.Email, "conflicting update must not change the email")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice@example.com", "Secr3tPass!")

	resp := env.do(t, http.MethodPost, "/v1/auth/register", "", dto.UserCreate{
		Email:    "alice@example.com",
		Password: "different",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	env := newTestEnv(t)

	for name, token := range map[string]string{
		"missing":  "",
		"garbage":  "not-a-jwt",
		"tampered": "eyJhbGciOiJIUzI1NiJ9.e30.bad",
	} {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, http.MethodGet, "/v1/users/me", token, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
			resp.Body.Close()
		})
	}
}

func TestUnmatchedRoutesShareOneMetricLabel(t *testing.T) {
	env := newTestEnv(t)

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	for _, p := range []string{"/no/such/route", "/scan-target-1", "/scan-target-2"} {
		resp := env.do(t, http.MethodGet, p, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()

		// The raw path never becomes a label value.
		assert.Zero(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, p, "404")))
	}
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))
	assert.Equal(t, before+3, after)
}

func TestDirectoryRequiresVerified(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com", "Secr3tPass!")
	tokens := env.login(t, "alice@example.com", "Secr3tPass!")

	// Active but unverified: the directory stays closed.
	resp := env.do(t, http.MethodGet, "/v1/users", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	verified := true
	env.setFlags(t, alice.ID, nil, &verified)

	resp = env.do(t, http.MethodGet, "/v1/users", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]dto.PublicUser](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].ID)

	resp = env.do(t, http.MethodGet, "/v1/users/"+alice.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[dto.PublicUser](t, resp)
	assert.Equal(t, alice.ID, got.ID)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/v1/users/%s", "00000000-0000-4000-8000-000000000000"), tokens.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
