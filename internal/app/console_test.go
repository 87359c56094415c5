package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/core/service"
	"github.com/rasmith-dev/propadmin/internal/devserver"
	"github.com/rasmith-dev/propadmin/internal/infrastructure/storage"
	"github.com/rasmith-dev/propadmin/internal/pkg/config"
)

const (
	adminEmail    = "admin@test.local"
	adminPassword = "admin123"
)

func startDevAPI(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		JWTSecret:     "e2e-secret",
		TokenTTL:      time.Hour,
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
	}, zerolog.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL + "/api"
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API:     config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Console: config.ConsoleConfig{LandingPath: "/flats"},
		Session: config.SessionConfig{Backend: config.BackendMemory},
	}
}

func newConsole(t *testing.T, cfg *config.Config, opts ...Option) *Console {
	t.Helper()
	opts = append([]Option{WithRegistry(prometheus.NewRegistry())}, opts...)
	c, err := NewConsole(context.Background(), cfg, zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func serve(c *Console, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func TestConsole_SessionLifecycle(t *testing.T) {
	api, baseURL := startDevAPI(t)
	st := storage.NewMemory()
	c := newConsole(t, testConfig(baseURL), WithStorage(st))
	ctx := context.Background()

	// Nothing stored: restore ends unauthenticated.
	require.NoError(t, c.Start(ctx))
	assert.Equal(t, service.StateUnauthenticated, c.Session.State())

	rec := serve(c, http.MethodGet, "/flats", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fflats", rec.Header().Get("Location"))

	// Login resumes the original destination.
	rec = serve(c, http.MethodPost, "/login?redirect=%2Fflats", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sess struct {
		Authenticated bool            `json:"authenticated"`
		User          domain.Identity `json:"user"`
		Redirect      string          `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.True(t, sess.Authenticated)
	assert.Equal(t, "/flats", sess.Redirect)
	assert.Equal(t, domain.Identity{Email: adminEmail, Username: "admin", Role: domain.RoleOwner}, sess.User)

	stored, err := st.Load(ctx)
	require.NoError(t, err)
	require.True(t, stored.Complete())

	// Authenticated reads carry the bearer token.
	_, err = c.Records.Flats.Create(ctx, domain.FlatInput{
		FlatNumber: "A-1", Area: 50, Type: domain.FlatOneBHK, Status: domain.FlatVacant,
	})
	require.NoError(t, err)
	rec = serve(c, http.MethodGet, "/flats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flats []domain.Flat
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flats))
	require.Len(t, flats, 1)

	// The API forgets the token: the next call tears the session down.
	api.RevokeSessions()
	rec = serve(c, http.MethodGet, "/flats", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fflats", rec.Header().Get("Location"))

	assert.Equal(t, service.StateUnauthenticated, c.Session.State())
	stored, err = st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, stored.Empty())

	rec = serve(c, http.MethodGet, "/flats", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestConsole_RestoresFromFile(t *testing.T) {
	_, baseURL := startDevAPI(t)
	cfg := testConfig(baseURL)
	cfg.Session = config.SessionConfig{Backend: config.BackendFile, File: filepath.Join(t.TempDir(), "session.json")}
	ctx := context.Background()

	first := newConsole(t, cfg)
	require.NoError(t, first.Start(ctx))
	_, err := first.Session.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	// A second process over the same file picks the session up.
	second := newConsole(t, cfg)
	require.NoError(t, second.Start(ctx))
	id, ok := second.Session.Identity()
	require.True(t, ok)
	assert.Equal(t, adminEmail, id.Email)

	rec := serve(second, http.MethodGet, "/session", nil)
	assert.Contains(t, rec.Body.String(), `"authenticated":true`)
}

func TestConsole_RestoreRejectsStaleToken(t *testing.T) {
	_, baseURL := startDevAPI(t)
	st := storage.NewMemory()
	user, err := domain.Identity{Email: adminEmail, Username: "admin", Role: domain.RoleOwner}.Encode()
	require.NoError(t, err)
	st.Seed("not-a-jwt", user)

	c := newConsole(t, testConfig(baseURL), WithStorage(st))
	require.NoError(t, c.Start(context.Background()))

	assert.False(t, c.Session.IsAuthenticated())
	stored, _ := st.Load(context.Background())
	assert.True(t, stored.Empty())
}

func TestConsole_DeleteReferencedFlat(t *testing.T) {
	_, baseURL := startDevAPI(t)
	c := newConsole(t, testConfig(baseURL), WithStorage(storage.NewMemory()))
	ctx := context.Background()
	_, err := c.Session.Login(ctx, adminEmail, adminPassword)
	require.NoError(t, err)

	flat, err := c.Records.Flats.Create(ctx, domain.FlatInput{
		FlatNumber: "B-2", Area: 40, Type: domain.FlatOneBHK, Status: domain.FlatOccupied,
	})
	require.NoError(t, err)
	today := time.Now().UTC()
	_, err = c.Records.Tenants.Create(ctx, domain.TenantInput{
		UserID: 1, FlatID: flat.ID,
		LeaseStart: today.Format("2006-01-02"), LeaseEnd: today.AddDate(1, 0, 0).Format("2006-01-02"),
		Phone: "555-0100",
	})
	require.NoError(t, err)

	rec := serve(c, http.MethodDelete, "/flats/1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"has dependent records"}`, rec.Body.String())
	assert.True(t, c.Session.IsAuthenticated())
}

func TestConsole_Readiness(t *testing.T) {
	_, baseURL := startDevAPI(t)
	c := newConsole(t, testConfig(baseURL), WithStorage(storage.NewMemory()))

	rec := serve(c, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newConsole(t, testConfig("http://127.0.0.1:1/api"), WithStorage(storage.NewMemory()))
	rec = serve(down, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"api"`)
}
