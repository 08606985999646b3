// Package chicsrf adapts csrf.Protector to go-chi/chi routers. Exemptions are
// keyed by chi route pattern ("/users/{id}") and groups by Mount or Route
// prefix ("/api").
package chicsrf

import (
	"net/http"

	"github.com/JeanGrijp/go-secfetch/csrf"
	"github.com/go-chi/chi/v5"
)

// Middleware returns a chi middleware enforcing p. It can be installed with
// Router.Use before any route is resolved, or inside Group, With and mounted
// sub-routers.
func Middleware(p *csrf.Protector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return p.ProtectWith(next, RouteID)
	}
}

// RouteID resolves the chi route pattern for r and the group prefixes it
// lives under. Requests that match no route fall back to the raw path.
func RouteID(r *http.Request) (string, []string) {
	pattern := routePattern(r)
	if pattern == "" {
		pattern = r.URL.Path
	}
	return pattern, csrf.PathGroups(pattern)
}

// routePattern matches r against the root router. chi only sets
// rctx.Routes at the top-level mux, so the result is the full pattern wherever
// the middleware sits (Use, Group, With or a mounted sub-router).
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if rctx.Routes != nil {
		path := r.URL.RawPath
		if path == "" {
			path = r.URL.Path
		}
		tctx := chi.NewRouteContext()
		if rctx.Routes.Match(tctx, r.Method, path) {
			return tctx.RoutePattern()
		}
	}
	return rctx.RoutePattern()
}

// Exempt marks a chi route pattern as exempt, e.g. "/webhooks/{provider}".
func Exempt(p *csrf.Protector, pattern string) error {
	return p.Exempt(pattern)
}

// ExemptGroup marks every route mounted under prefix as exempt.
func ExemptGroup(p *csrf.Protector, prefix string) error {
	return p.ExemptGroup(prefix)
}
