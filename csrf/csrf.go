package csrf

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Protect wraps the given next http.Handler and enforces origin validation.
//
// Behavior:
//   - Exempt routes (see Registry) and requests marked with SkipRequest are passed through.
//   - Methods outside the protected set (GET/HEAD/OPTIONS by default) are passed through.
//   - Protected methods are checked against Sec-Fetch-Site, with a fallback to
//     comparing Origin against Host for browsers that do not send it.
//   - Denied requests are handed to the ErrorHandler (403 by default) and next
//     is not called.
//
// The decision is stored in the request context for downstream handlers
// (DecisionFromContext). The first request served freezes the exemption
// registry.
//
// Params:
// - next: downstream handler to be executed after the check passes.
//
// Returns:
// - An http.Handler that performs the check before delegating to next.
func (p *Protector) Protect(next http.Handler) http.Handler {
	return p.ProtectWith(next, p.cfg.RouteID)
}

// ProtectWith is Protect with a custom route identity resolver. Router
// adapters use it to key exemptions by route pattern instead of raw path.
func (p *Protector) ProtectWith(next http.Handler, routeID func(*http.Request) (string, []string)) http.Handler {
	if routeID == nil {
		routeID = pathRouteID
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, groups := routeID(r)
		d := p.Decide(r, route, groups)
		r = WithDecision(r, d)
		if !d.Allowed {
			p.Reject(w, r, d)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Decide evaluates r as a request for route (member of groups). It freezes
// the exemption registry, records metrics and logs the outcome.
func (p *Protector) Decide(r *http.Request, route string, groups []string) Decision {
	reg := p.cfg.Exemptions
	if !reg.Frozen() {
		reg.Freeze()
	}

	exempt := IsSkipped(r.Context()) || reg.IsExempt(route, groups...)
	facts := FactsFrom(RequestSource(r, p.cfg.TrustForwardedHost))
	d := p.policy.Evaluate(facts, exempt)

	p.metrics.observe(d)
	p.log(r, route, facts, d)
	return d
}

// Check evaluates r outside the middleware chain, for handlers that want to
// validate manually, e.g. a state-changing GET. It applies the Sec-Fetch-Site,
// trusted origin and Origin/Host rules whatever the method, and ignores
// exemptions. It returns a *Error when the request is denied.
func (p *Protector) Check(r *http.Request) error {
	route, _ := p.cfg.RouteID(r)
	facts := FactsFrom(RequestSource(r, p.cfg.TrustForwardedHost))
	d := p.policy.evaluateHeaders(facts)

	p.metrics.observe(d)
	p.log(r, route, facts, d)
	return d.Err()
}

// Reject writes the deny response for d through the configured ErrorHandler.
func (p *Protector) Reject(w http.ResponseWriter, r *http.Request, d Decision) {
	var cerr *Error
	if !errors.As(d.Err(), &cerr) {
		// allow decisions never reach here from Protect
		cerr = &Error{Reason: ReasonUnknown, Detail: "reject called with an allow decision"}
	}
	p.cfg.ErrorHandler(w, r, cerr)
}

// Exempt marks a route identity as exempt. With the default resolver the
// identity is the request path; router adapters use the route pattern.
func (p *Protector) Exempt(routeID string) error {
	return p.cfg.Exemptions.MarkExempt(routeID)
}

// ExemptGroup marks a route group (a path prefix such as "/api") as exempt.
func (p *Protector) ExemptGroup(groupID string) error {
	return p.cfg.Exemptions.MarkGroupExempt(groupID)
}

// WithDecision returns a shallow copy of r carrying d in its context.
func WithDecision(r *http.Request, d Decision) *http.Request {
	return r.WithContext(contextWithDecision(r.Context(), d))
}

func (p *Protector) log(r *http.Request, route string, f Facts, d Decision) {
	if d.Allowed {
		if ce := p.logger.Check(zap.DebugLevel, "request allowed"); ce != nil {
			ce.Write(
				zap.String("method", f.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.String("sec_fetch_site", f.SecFetchSite),
			)
		}
		return
	}

	fields := []zap.Field{
		zap.String("method", f.Method),
		zap.String("path", r.URL.Path),
		zap.String("route", route),
		zap.String("reason", string(d.Reason)),
		zap.String("detail", d.Detail),
		zap.String("sec_fetch_site", f.SecFetchSite),
		zap.String("origin", f.Origin),
		zap.String("host", f.Host),
	}
	if d.Reason == ReasonUnknown {
		p.logger.Error("origin evaluation fell through every rule", fields...)
		return
	}
	p.logger.Warn("request rejected", fields...)
}
