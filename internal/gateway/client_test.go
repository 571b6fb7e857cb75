package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *gateway.Session {
	t.Helper()
	s, err := gateway.NewSession("tok-123", "user-1", gateway.RoleAdmin, "")
	require.NoError(t, err)
	return s
}

func TestClientListPaginated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assignments", r.URL.Path)
		assert.Equal(t, "client-7", r.URL.Query().Get("clientId"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		_, _ = w.Write([]byte(`{"success":true,"data":{"items":[
			{"id":"a1","status":"pending","rate":"22.5"},
			{"id":"a2","status":"active","rate":30}
		],"total":2,"page":1,"limit":100,"pages":1,"hasNext":false,"hasPrev":false}}`))
	}))
	defer srv.Close()

	collector := metrics.NewCollector()
	c := gateway.New(srv.URL+"/api", newSession(t), gateway.WithCollector(collector))

	page, err := gateway.ListAs[models.Assignment](context.Background(), c, gateway.Assignments,
		gateway.Owned("clientId", "client-7", 100))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Total)
	assert.InDelta(t, 22.5, page.Items[0].Rate.Value, 0.0001)
	assert.Equal(t, models.AssignmentActive, page.Items[1].Status)

	snap := collector.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, "list:assignments", snap.Operations[0].Name)
}

func TestClientListBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"c1","companyName":"Acme","status":"ACTIVE"},{"id":42}]}`))
	}))
	defer srv.Close()

	c := gateway.New(srv.URL, nil)
	page, err := gateway.ListAs[models.Client](context.Background(), c, gateway.Clients, gateway.ListOptions{})
	require.NoError(t, err)

	// {"id":42} cannot decode into a string id and is skipped
	require.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Skipped)
	assert.Equal(t, "Acme", page.Items[0].CompanyName)
	assert.Equal(t, 1, page.Pages)
}

func TestClientErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized status", http.StatusUnauthorized, `{"success":false,"error":"token expired"}`, gateway.ErrAuthExpired},
		{"auth code in envelope", http.StatusOK, `{"success":false,"code":"TOKEN_EXPIRED","error":"expired"}`, gateway.ErrAuthExpired},
		{"server error", http.StatusInternalServerError, `oops`, gateway.ErrTransport},
		{"success false", http.StatusOK, `{"success":false,"error":"database unavailable"}`, gateway.ErrTransport},
		{"not found", http.StatusNotFound, `{"success":false,"error":"no such worker"}`, gateway.ErrNotFound},
		{"not json", http.StatusOK, `<html>`, gateway.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := gateway.New(srv.URL, nil)
			_, err := c.Get(context.Background(), gateway.Workers, "w1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var callErr *gateway.CallError
			require.True(t, errors.As(err, &callErr))
			assert.Equal(t, "get", callErr.Op)
			assert.Equal(t, gateway.Workers, callErr.Collection)
		})
	}
}

func TestClientExpiresSessionOnAuthFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	session := newSession(t)
	c := gateway.New(srv.URL, session)

	_, err := c.List(context.Background(), gateway.Jobs, gateway.ListOptions{})
	require.True(t, gateway.IsAuthExpired(err))
	assert.True(t, session.Expired())

	// the expired session fails fast without reaching the server
	_, err = c.List(context.Background(), gateway.Jobs, gateway.ListOptions{})
	require.True(t, gateway.IsAuthExpired(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientUpdateSendsPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/timesheets/t%201", r.URL.EscapedPath())
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approved", body["status"])
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"t 1","status":"approved"}}`))
	}))
	defer srv.Close()

	c := gateway.New(srv.URL, newSession(t))
	raw, err := c.Update(context.Background(), gateway.Timesheets, "t 1", gateway.StatusPatch{Status: "approved"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "approved")
}

func TestSessionLifecycle(t *testing.T) {
	_, err := gateway.NewSession("", "u", gateway.RoleWorker, "w1")
	require.ErrorIs(t, err, gateway.ErrNoToken)

	s, err := gateway.NewSession("tok", "u", "", "")
	require.NoError(t, err)
	assert.Equal(t, gateway.RoleAdmin, s.Role())

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	s.Close()
	_, err = s.Token()
	require.ErrorIs(t, err, gateway.ErrAuthExpired)
}
