package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/warm-intros/internal/config"
	"github.com/jonathan/warm-intros/internal/engine"
	"github.com/jonathan/warm-intros/internal/memstore"
	"github.com/jonathan/warm-intros/internal/server/ratelimit"
	"github.com/jonathan/warm-intros/internal/types"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func noLimits() *ratelimit.Config {
	return &ratelimit.Config{Enabled: false}
}

// newTestServer wires a real engine over an in-memory store with heuristics only
func newTestServer(t *testing.T, rl *ratelimit.Config) (*Server, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	eng := engine.New(store, nil, config.SnapshotConfig{DefaultPageSize: 2, MaxPageSize: 10}, nil)
	s := New(Config{Port: 0, AnalysisTimeout: 5 * time.Second, RateLimit: rl}, eng, nil, nil)
	t.Cleanup(s.Close)
	return s, store
}

func seedUser(store *memstore.Store) uuid.UUID {
	userID := uuid.New()
	store.AddConnection(userID, types.NetworkConnection{
		CompanyName:          "Vip Co",
		RelationshipStrength: 5,
		KeyContacts:          []types.KeyContact{{Name: "Dana Ortiz", Title: "CTO"}},
	})
	store.AddConnection(userID, types.NetworkConnection{CompanyName: "Quiet Co", RelationshipStrength: 1})
	store.AddProspect(userID, types.Prospect{CompanyName: "Umbrella", AIScore: 71})
	return userID
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_DatabaseDown(t *testing.T) {
	store := memstore.New()
	eng := engine.New(store, nil, config.SnapshotConfig{}, nil)
	s := New(Config{RateLimit: noLimits()}, eng, pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	}), nil)
	defer s.Close()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestCORS_Preflight(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/users/x/analysis", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_AnalysisBucket(t *testing.T) {
	s, store := newTestServer(t, &ratelimit.Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{{Path: "/users/{id}/analysis", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1}},
	})
	userID := seedUser(store)
	path := "/users/" + userID.String() + "/analysis"

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// Snapshot reads use the default bucket
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExtractClientID(t *testing.T) {
	s, _ := newTestServer(t, noLimits())

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", s.extractClientID(r))

	r.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", s.extractClientID(r))
}
