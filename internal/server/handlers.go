package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/staffdash/internal/aggregate"
	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/filter"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/models"
	"github.com/raphaelgruber/staffdash/internal/reconcile"
	"github.com/raphaelgruber/staffdash/internal/service"
)

type dashboardResponse struct {
	Scope      service.Scope       `json:"scope"`
	Generation uint64              `json:"generation"`
	FetchedAt  time.Time           `json:"fetchedAt"`
	Stats      aggregate.Stats     `json:"stats"`
	Anomalies  []aggregate.Anomaly `json:"anomalies"`
	Degraded   []fetch.Degradation `json:"degraded"`
	Truncated  []string            `json:"truncated"`
	Pending    []reconcile.Change  `json:"pending"`
}

func summarize(snap service.Snapshot, pending []reconcile.Change) dashboardResponse {
	truncated := snap.Truncated()
	if truncated == nil {
		truncated = []string{}
	}
	if pending == nil {
		pending = []reconcile.Change{}
	}
	return dashboardResponse{
		Scope:      snap.Scope,
		Generation: snap.Generation,
		FetchedAt:  snap.FetchedAt,
		Stats:      snap.Stats,
		Anomalies:  snap.Anomalies,
		Degraded:   snap.Degraded,
		Truncated:  truncated,
		Pending:    pending,
	}
}

type mutationRequest struct {
	Kind   string `json:"kind" binding:"required"`
	ID     string `json:"id" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type mutationResponse struct {
	Change     reconcile.Change `json:"change"`
	Generation uint64           `json:"generation"`
}

type statsResponse struct {
	Version string           `json:"version"`
	Scopes  []string         `json:"scopes"`
	Metrics metrics.Snapshot `json:"metrics"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// dashboardFor resolves the :scope parameter. The first request for a scope
// loads its snapshot.
func (s *Server) dashboardFor(c *gin.Context) (*service.Dashboard, service.Snapshot, bool) {
	scope, err := service.ParseScope(c.Param("scope"))
	if err != nil {
		s.fail(c, err)
		return nil, service.Snapshot{}, false
	}
	d, err := s.manager.Dashboard(scope)
	if err != nil {
		s.fail(c, err)
		return nil, service.Snapshot{}, false
	}
	if snap, ok := d.Current(); ok {
		return d, snap, true
	}
	snap, err := d.Refresh(c.Request.Context())
	if errors.Is(err, service.ErrStale) {
		// A concurrent first load won; serve whatever it published.
		if cur, ok := d.Current(); ok {
			return d, cur, true
		}
	}
	if err != nil {
		s.fail(c, err)
		return nil, service.Snapshot{}, false
	}
	return d, snap, true
}

func (s *Server) dashboard(c *gin.Context) {
	d, snap, ok := s.dashboardFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summarize(snap, d.Pending()))
}

func (s *Server) refresh(c *gin.Context) {
	scope, err := service.ParseScope(c.Param("scope"))
	if err != nil {
		s.fail(c, err)
		return
	}
	d, err := s.manager.Dashboard(scope)
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, err := d.Refresh(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summarize(snap, d.Pending()))
}

func (s *Server) list(c *gin.Context) {
	var spec filter.Spec
	if err := c.ShouldBindQuery(&spec); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_FILTER", Message: err.Error()})
		return
	}
	_, snap, ok := s.dashboardFor(c)
	if !ok {
		return
	}
	listing, err := snap.List(gateway.Collection(strings.ToLower(c.Param("collection"))), spec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) mutate(c *gin.Context) {
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Code: "INVALID_MUTATION", Message: err.Error()})
		return
	}
	d, _, ok := s.dashboardFor(c)
	if !ok {
		return
	}
	kind := models.Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	ch, err := d.Mutate(c.Request.Context(), kind, req.ID, reconcile.ParseAction(req.Action))
	if err != nil {
		s.fail(c, err)
		return
	}
	snap, _ := d.Current()
	c.JSON(http.StatusOK, mutationResponse{Change: ch, Generation: snap.Generation})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		Version: s.version,
		Scopes:  s.manager.Scopes(),
		Metrics: s.collector.Snapshot(),
	})
}

// fail maps an engine error to an HTTP status and writes it.
func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, errorResponse{Code: code, Message: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidScope):
		return http.StatusBadRequest, "INVALID_SCOPE"
	case errors.Is(err, filter.ErrUnknownSort):
		return http.StatusBadRequest, "UNKNOWN_SORT"
	case errors.Is(err, service.ErrUnknownCollection):
		return http.StatusNotFound, "UNKNOWN_COLLECTION"
	case gateway.IsAuthExpired(err):
		return http.StatusUnauthorized, "AUTH_EXPIRED"
	case reconcile.IsInvalid(err):
		return http.StatusUnprocessableEntity, "INVALID_MUTATION"
	case errors.Is(err, service.ErrStale):
		return http.StatusConflict, "STALE_REFRESH"
	case errors.Is(err, service.ErrNoSnapshot):
		return http.StatusConflict, "NO_SNAPSHOT"
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrNotFound):
		return http.StatusBadGateway, "GATEWAY_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL"
}
