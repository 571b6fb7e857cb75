// Package service assembles scoped dashboards from the fetch, join,
// aggregate, and reconcile packages.
package service

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/raphaelgruber/staffdash/internal/fetch"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/reconcile"
)

// Options configures a Manager.
type Options struct {
	PageSize     int
	FanOutLimit  int
	FanOutWarn   int
	ExpiryWindow time.Duration
	Table        reconcile.Table
	Logger       *slog.Logger
	Collector    *metrics.Collector
}

// Manager tracks one dashboard per scope.
type Manager struct {
	dashboards map[string]*Dashboard
	mu         sync.RWMutex
	gw         gateway.Resources
	loader     *Loader
	opts       Options
}

// NewManager creates a manager whose dashboards fetch through gw.
func NewManager(gw gateway.Resources, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	orch := fetch.New(gw, fetch.Options{
		PageSize:    opts.PageSize,
		FanOutLimit: opts.FanOutLimit,
		FanOutWarn:  opts.FanOutWarn,
		Logger:      opts.Logger,
		Collector:   opts.Collector,
	})
	return &Manager{
		dashboards: make(map[string]*Dashboard),
		gw:         gw,
		loader:     NewLoader(orch, opts.ExpiryWindow, opts.Logger),
		opts:       opts,
	}
}

// Dashboard returns the dashboard for scope, creating it on first use.
func (m *Manager) Dashboard(scope Scope) (*Dashboard, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	key := scope.String()

	m.mu.RLock()
	d, ok := m.dashboards[key]
	m.mu.RUnlock()
	if ok {
		return d, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.dashboards[key]; ok {
		return d, nil
	}
	d = NewDashboard(scope, m.loader, m.gw, m.opts.Table, m.opts.Logger, m.opts.Collector)
	m.dashboards[key] = d
	m.opts.Logger.Debug("dashboard created", "scope", key)
	return d, nil
}

// Scopes lists the scopes with a dashboard, sorted.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dashboards))
	for k := range m.dashboards {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
