package csrf

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrRegistryFrozen is returned when an exemption is registered after the
// first request was served.
var ErrRegistryFrozen = errors.New("csrf: exemption registry is frozen")

// Registry records which routes, and which route groups, bypass the check.
//
// Marking happens while the application is being set up. The middleware
// freezes the registry on the first request; from then on it is read-only and
// lookups take no lock. An exemption is never revoked.
type Registry struct {
	mu     sync.Mutex
	frozen atomic.Bool
	routes map[string]struct{}
	groups map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		routes: make(map[string]struct{}),
		groups: make(map[string]struct{}),
	}
}

// MarkExempt exempts a single route identity.
func (r *Registry) MarkExempt(routeID string) error {
	return r.mark(r.routes, routeID)
}

// MarkGroupExempt exempts every route registered under groupID, including
// routes added to the group later.
func (r *Registry) MarkGroupExempt(groupID string) error {
	return r.mark(r.groups, normalizeGroup(groupID))
}

func (r *Registry) mark(set map[string]struct{}, id string) error {
	if id == "" {
		return errors.New("csrf: empty exemption identity")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	set[id] = struct{}{}
	return nil
}

// Freeze ends the registration phase. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen.Store(true)
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// IsExempt reports whether routeID, or any of the groups it belongs to, is
// exempt. A nil registry exempts nothing.
func (r *Registry) IsExempt(routeID string, groupIDs ...string) bool {
	if r == nil {
		return false
	}
	if _, ok := r.routes[routeID]; ok && routeID != "" {
		return true
	}
	for _, g := range groupIDs {
		if _, ok := r.groups[normalizeGroup(g)]; ok {
			return true
		}
	}
	return false
}

// PathGroups returns every leading segment prefix of a route path, which is
// how path-based routers identify the groups a route was mounted under. The
// path itself is included so a route registered at a group's own base path
// belongs to that group. "/api/v1/items" yields
// ["/", "/api", "/api/v1", "/api/v1/items"].
func PathGroups(path string) []string {
	if !strings.HasPrefix(path, "/") {
		return nil
	}
	path = strings.TrimSuffix(path, "*")
	path = strings.TrimSuffix(path, "/")
	groups := []string{"/"}
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			groups = append(groups, path[:i])
		}
	}
	if path != "" {
		groups = append(groups, path)
	}
	return groups
}

func normalizeGroup(id string) string {
	if id == "/" {
		return id
	}
	return strings.TrimSuffix(id, "/")
}
