package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/staffdash/internal/gateway"
)

// ScopeKind selects a portal.
type ScopeKind string

const (
	ScopeAdmin  ScopeKind = "admin"
	ScopeClient ScopeKind = "client"
	ScopeWorker ScopeKind = "worker"
)

var ErrInvalidScope = errors.New("invalid scope")

// Scope is the slice of the platform one dashboard shows: everything for an
// administrator, or the records owned by one client or one worker.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

func AdminScope() Scope            { return Scope{Kind: ScopeAdmin} }
func ClientScope(id string) Scope { return Scope{Kind: ScopeClient, ID: id} }
func WorkerScope(id string) Scope { return Scope{Kind: ScopeWorker, ID: id} }

// ParseScope parses "admin", "client:<id>", or "worker:<id>".
func ParseScope(s string) (Scope, error) {
	kind, id, _ := strings.Cut(strings.TrimSpace(s), ":")
	scope := Scope{Kind: ScopeKind(strings.ToLower(kind)), ID: strings.TrimSpace(id)}
	return scope, scope.Validate()
}

// Validate checks that owner scopes carry an id and admin does not.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeAdmin:
		if s.ID != "" {
			return fmt.Errorf("%w: admin scope takes no id", ErrInvalidScope)
		}
		return nil
	case ScopeClient, ScopeWorker:
		if s.ID == "" {
			return fmt.Errorf("%w: %s scope needs an id", ErrInvalidScope, s.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidScope, s.Kind)
}

func (s Scope) String() string {
	if s.ID == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.ID
}

// ScopeFor returns the scope a session's user sees by default.
func ScopeFor(session *gateway.Session) Scope {
	if session == nil {
		return AdminScope()
	}
	switch session.Role() {
	case gateway.RoleClient:
		return ClientScope(session.OwnerID())
	case gateway.RoleWorker:
		return WorkerScope(session.OwnerID())
	}
	return AdminScope()
}
