package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/gateway/gatewaytest"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/server"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seeded() *gatewaytest.Fake {
	return gatewaytest.New().
		Seed(gateway.Clients,
			models.Client{ID: "c1", CompanyName: "Acme", Status: models.ClientActive},
		).
		Seed(gateway.Workers,
			models.Worker{ID: "w1", FirstName: "Ada", LastName: "Lovelace", Status: models.WorkerActive},
		).
		Seed(gateway.Jobs,
			models.Job{ID: "j1", ClientID: "c1", Title: "Welder", Status: models.JobOpen, Positions: 1},
		).
		Seed(gateway.Assignments,
			models.Assignment{ID: "a1", JobID: "j1", WorkerID: "w1", ClientID: "c1", Status: models.AssignmentPending, Rate: models.N(20), HoursPerWeek: models.N(40)},
			models.Assignment{ID: "a2", JobID: "j1", WorkerID: "w1", ClientID: "c1", Status: models.AssignmentActive, Rate: models.N(25), HoursPerWeek: models.N(10)},
		).
		Seed(gateway.Documents,
			models.Document{ID: "d1", WorkerID: "w1", Name: "Passport", Status: models.DocumentValid},
		).
		Seed(gateway.Referrals,
			models.Referral{ID: "r1", ReferrerID: "w1", Status: models.ReferralCompleted},
		)
}

type harness struct {
	fake      *gatewaytest.Fake
	collector *metrics.Collector
	handler   http.Handler
}

func newHarness(fake *gatewaytest.Fake) harness {
	collector := metrics.NewCollector()
	mgr := service.NewManager(fake, service.Options{Collector: collector, Logger: quietLogger()})
	srv := server.New("test", mgr, collector, quietLogger())
	return harness{fake: fake, collector: collector, handler: srv.Handler()}
}

func (h harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	w := newHarness(seeded()).do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestDashboard(t *testing.T) {
	h := newHarness(seeded())

	w := h.do(t, http.MethodGet, "/api/v1/admin/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.EqualValues(t, 1, body["generation"])
	assert.Empty(t, body["degraded"])
	stats := body["stats"].(map[string]any)
	assignments := stats["assignments"].(map[string]any)
	assert.EqualValues(t, 250, assignments["activeWeeklyCost"])

	// Served from the published snapshot; no second load.
	w = h.do(t, http.MethodGet, "/api/v1/admin/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["generation"])
	assert.Equal(t, 1, h.fake.CountCalls("list", gateway.Clients))
}

func TestRefreshPublishesNewGeneration(t *testing.T) {
	h := newHarness(seeded())
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/admin/dashboard", "").Code)

	w := h.do(t, http.MethodPost, "/api/v1/admin/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["generation"])
}

func TestDegradedDashboardStillServes(t *testing.T) {
	h := newHarness(seeded().Fail(gateway.Referrals))

	w := h.do(t, http.MethodGet, "/api/v1/admin/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	degraded := decode(t, w)["degraded"].([]any)
	require.Len(t, degraded, 1)
	assert.Equal(t, "referrals", degraded[0].(map[string]any)["collection"])
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		fake     *gatewaytest.Fake
		method   string
		path     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"bad scope", seeded(), http.MethodGet, "/api/v1/client/dashboard", "", http.StatusBadRequest, "INVALID_SCOPE"},
		{"unknown collection", seeded(), http.MethodGet, "/api/v1/admin/invoices", "", http.StatusNotFound, "UNKNOWN_COLLECTION"},
		{"unknown sort", seeded(), http.MethodGet, "/api/v1/admin/clients?sort=salary", "", http.StatusBadRequest, "UNKNOWN_SORT"},
		{"bad date", seeded(), http.MethodGet, "/api/v1/admin/documents?from=tomorrow", "", http.StatusBadRequest, "INVALID_FILTER"},
		{"auth expired", seeded().ExpireAuth(), http.MethodGet, "/api/v1/admin/dashboard", "", http.StatusUnauthorized, "AUTH_EXPIRED"},
		{"missing mutation fields", seeded(), http.MethodPost, "/api/v1/admin/mutations", `{"kind":"assignment"}`, http.StatusBadRequest, "INVALID_MUTATION"},
		{"undefined transition", seeded(), http.MethodPost, "/api/v1/admin/mutations", `{"kind":"assignment","id":"a2","action":"approve"}`, http.StatusUnprocessableEntity, "INVALID_MUTATION"},
		{"unknown record", seeded(), http.MethodPost, "/api/v1/admin/mutations", `{"kind":"assignment","id":"a9","action":"approve"}`, http.StatusUnprocessableEntity, "INVALID_MUTATION"},
		{"gateway rejects update", seeded().FailUpdates(gateway.Assignments), http.MethodPost, "/api/v1/admin/mutations", `{"kind":"assignment","id":"a1","action":"approve"}`, http.StatusBadGateway, "GATEWAY_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newHarness(tt.fake).do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, decode(t, w)["code"])
		})
	}
}

func TestListFilters(t *testing.T) {
	h := newHarness(seeded())

	w := h.do(t, http.MethodGet, "/api/v1/admin/assignments?status=active", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["matched"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "a2", item["id"])
	assert.Equal(t, "Welder", item["job"].(map[string]any)["value"].(map[string]any)["title"])

	w = h.do(t, http.MethodGet, "/api/v1/admin/assignments?sort=-id", "")
	require.Equal(t, http.StatusOK, w.Code)
	items = decode(t, w)["items"].([]any)
	assert.Equal(t, "a2", items[0].(map[string]any)["id"])
}

func TestMutationConfirmsAndUpdatesStats(t *testing.T) {
	h := newHarness(seeded())

	w := h.do(t, http.MethodPost, "/api/v1/admin/mutations", `{"kind":"Assignment","id":"a1","action":"APPROVE"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	change := decode(t, w)["change"].(map[string]any)
	assert.Equal(t, models.AssignmentPending, change["from"])
	assert.Equal(t, models.AssignmentActive, change["to"])

	rec, ok := h.fake.Record(gateway.Assignments, "a1")
	require.True(t, ok)
	assert.Equal(t, models.AssignmentActive, rec["status"])

	w = h.do(t, http.MethodGet, "/api/v1/admin/dashboard", "")
	body := decode(t, w)
	assert.Empty(t, body["pending"])
	assignments := body["stats"].(map[string]any)["assignments"].(map[string]any)
	assert.EqualValues(t, 1050, assignments["activeWeeklyCost"])
}

func TestMutationRollbackRestoresStatus(t *testing.T) {
	h := newHarness(seeded().FailUpdates(gateway.Assignments))

	w := h.do(t, http.MethodPost, "/api/v1/admin/mutations", `{"kind":"assignment","id":"a1","action":"approve"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)

	w = h.do(t, http.MethodGet, "/api/v1/admin/assignments?status=pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["matched"])
	assert.Equal(t, int64(1), h.collector.Snapshot().Events[metrics.EventRollback])
}

func TestStatsEndpoint(t *testing.T) {
	h := newHarness(seeded())
	require.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/v1/worker:w1/dashboard", "").Code)

	w := h.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, []any{"worker:w1"}, body["scopes"])
}

func TestStreamPushesNewSnapshots(t *testing.T) {
	h := newHarness(seeded())
	ts := httptest.NewServer(h.handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/admin/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() map[string]any {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.EqualValues(t, 1, read()["generation"])

	refresh, err := http.Post(ts.URL+"/api/v1/admin/refresh", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	refresh.Body.Close()
	require.Equal(t, http.StatusOK, refresh.StatusCode)

	assert.EqualValues(t, 2, read()["generation"])
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := gin.New()
	r.Use(server.LoggingMiddleware(logger))
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(150 * time.Millisecond)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/fast?q="+strings.Repeat("x", 300), nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "...")

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "slow request")
}
