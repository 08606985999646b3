package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// DefaultProtectedMethods are the state-changing methods checked when
// Config.ProtectedMethods is empty.
var DefaultProtectedMethods = []string{
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// Policy is the immutable evaluation configuration. Build it once with
// NewPolicy and share it across goroutines.
type Policy struct {
	methods       []string
	protected     map[string]struct{}
	allowSameSite bool
	trusted       []string
}

// NewPolicy validates and normalizes the policy part of cfg: method names are
// upper-cased and trusted origins go through NormalizeOrigin.
func NewPolicy(cfg Config) (*Policy, error) {
	methods := cfg.ProtectedMethods
	if len(methods) == 0 {
		methods = DefaultProtectedMethods
	}

	p := &Policy{
		protected:     make(map[string]struct{}, len(methods)),
		allowSameSite: cfg.AllowSameSite,
	}
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			return nil, &ConfigError{Field: "protected method", Value: m, Err: errors.New("empty method name")}
		}
		if _, dup := p.protected[m]; dup {
			continue
		}
		p.protected[m] = struct{}{}
		p.methods = append(p.methods, m)
	}

	for _, o := range cfg.TrustedOrigins {
		n, err := NormalizeOrigin(o)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(p.trusted, n) {
			p.trusted = append(p.trusted, n)
		}
	}
	return p, nil
}

// ProtectedMethods returns the upper-cased protected methods in configuration
// order.
func (p *Policy) ProtectedMethods() []string {
	return slices.Clone(p.methods)
}

// AllowSameSite reports whether Sec-Fetch-Site: same-site is accepted.
func (p *Policy) AllowSameSite() bool {
	return p.allowSameSite
}

// TrustedOrigins returns the normalized trusted origins in configuration order.
func (p *Policy) TrustedOrigins() []string {
	return slices.Clone(p.trusted)
}

// Protects reports whether method is subject to the check.
func (p *Policy) Protects(method string) bool {
	_, ok := p.protected[strings.ToUpper(method)]
	return ok
}

func (p *Policy) trustedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, t := range p.trusted {
		if t == origin {
			return true
		}
	}
	return false
}

// Evaluate decides whether a request may proceed. Rules apply in order and the
// first match wins:
//
//  1. exempt routes are allowed
//  2. methods outside the protected set are allowed
//  3. requests with neither Sec-Fetch-Site nor Origin are allowed (non-browser clients)
//  4. with Sec-Fetch-Site: same-origin and none are allowed, same-site only if
//     configured, a trusted Origin overrides anything else, otherwise cross_site
//  5. with only Origin: a trusted Origin is allowed, otherwise its host must
//     equal Host or the result is origin_mismatch
//
// Evaluate has no side effects and is safe for concurrent use.
func (p *Policy) Evaluate(f Facts, exempt bool) Decision {
	if exempt {
		return Allow()
	}
	if !p.Protects(f.Method) {
		return Allow()
	}
	return p.evaluateHeaders(f)
}

// evaluateHeaders applies rules 3 to 5 regardless of method or exemption.
func (p *Policy) evaluateHeaders(f Facts) Decision {
	if f.SecFetchSite == "" && f.Origin == "" {
		return Allow()
	}

	if f.SecFetchSite != "" {
		switch f.SecFetchSite {
		case secFetchSameOrigin, secFetchNone:
			return Allow()
		case secFetchSameSite:
			if p.allowSameSite {
				return Allow()
			}
		}
		if p.trustedOrigin(f.Origin) {
			return Allow()
		}
		return Deny(ReasonCrossSite, crossSiteDetail(f.SecFetchSite))
	}

	if f.Origin != "" {
		if p.trustedOrigin(f.Origin) {
			return Allow()
		}
		got, scheme, ok := originHost(f.Origin)
		if !ok || f.Host == "" || got != normalizeHost(f.Host, scheme) {
			return Deny(ReasonOriginMismatch, fmt.Sprintf("Origin mismatch: %s", f.Origin))
		}
		return Allow()
	}

	return Deny(ReasonUnknown, "no evaluation rule matched")
}

func crossSiteDetail(site string) string {
	switch site {
	case secFetchSameSite:
		return "Same-site requests are not allowed."
	case "cross-site":
		return "Cross-site requests are not allowed."
	default:
		return fmt.Sprintf("Unknown Sec-Fetch-Site value: %s", site)
	}
}
