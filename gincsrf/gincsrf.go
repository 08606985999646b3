// Package gincsrf adapts csrf.Protector to gin. Exemptions are keyed by the
// registered route path (c.FullPath()) and groups by RouterGroup base path.
package gincsrf

import (
	"errors"

	"github.com/JeanGrijp/go-secfetch/csrf"
	"github.com/gin-gonic/gin"
)

// Middleware enforces p on a gin engine or group.
//
// Denied requests are aborted. Unless the Protector carries a custom
// ErrorHandler, the response is a JSON body {"error": ..., "reason": ...} with
// status 403. The *csrf.Error is also attached to the context with c.Error so
// error-reporting middleware can see it.
func Middleware(p *csrf.Protector) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		d := p.Decide(c.Request, route, csrf.PathGroups(route))
		// keep the gin context in sync with the request carrying the decision
		c.Request = csrf.WithDecision(c.Request, d)
		if d.Allowed {
			c.Next()
			return
		}

		var cerr *csrf.Error
		if !errors.As(d.Err(), &cerr) {
			cerr = &csrf.Error{Reason: csrf.ReasonUnknown}
		}
		_ = c.Error(cerr)

		if p.HasCustomErrorHandler() {
			p.Reject(c.Writer, c.Request, d)
			c.Abort()
			return
		}
		c.AbortWithStatusJSON(cerr.StatusCode(), gin.H{
			"error":  cerr.Error(),
			"reason": cerr.Reason,
		})
	}
}

// Exempt marks a gin route path as exempt, e.g. "/webhooks/:provider".
func Exempt(p *csrf.Protector, path string) error {
	return p.Exempt(path)
}

// ExemptGroup marks every route registered under g as exempt, including routes
// added to g afterwards.
func ExemptGroup(p *csrf.Protector, g *gin.RouterGroup) error {
	return p.ExemptGroup(g.BasePath())
}
