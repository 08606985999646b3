package csrf

import (
	"context"
	"net/http"
)

type ctxKey string

const (
	decisionKey ctxKey = "csrf_decision_ctx"
	skipKey     ctxKey = "csrf_skip_ctx"
)

// contextWithDecision returns a derived context that stores the decision made
// for the request.
//
// Params:
// - ctx: base context to attach the decision to.
// - d: decision returned by the evaluator.
//
// Returns:
// - a new context containing the decision.
func contextWithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionKey, d)
}

// DecisionFromContext returns the decision the middleware made for the
// current request, if any.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey).(Decision)
	return d, ok
}

// SkipRequest marks a single request as exempt. Call it from an outer
// middleware before Protect runs, e.g. for signed webhook deliveries.
func SkipRequest(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), skipKey, true))
}

// IsSkipped reports whether SkipRequest was applied to the request owning ctx.
func IsSkipped(ctx context.Context) bool {
	v, _ := ctx.Value(skipKey).(bool)
	return v
}
