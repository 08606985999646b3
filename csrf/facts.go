package csrf

import (
	"net/http"
	"strings"
)

const (
	headerSecFetchSite  = "Sec-Fetch-Site"
	headerOrigin        = "Origin"
	headerHost          = "Host"
	headerForwardedHost = "X-Forwarded-Host"
	secFetchSameOrigin  = "same-origin"
	secFetchSameSite    = "same-site"
	secFetchNone        = "none"
)

// Facts is the part of a request the evaluator looks at. An empty field means
// the header was absent.
type Facts struct {
	Method       string `json:"method"`
	SecFetchSite string `json:"sec_fetch_site,omitempty"`
	Origin       string `json:"origin,omitempty"`
	Host         string `json:"host,omitempty"`
}

// HeaderSource is the minimal view of a request needed to build Facts, so
// any HTTP stack can feed the evaluator.
type HeaderSource interface {
	Method() string
	// Header returns the value of the named header, or "" when absent.
	// Lookups are case-insensitive.
	Header(name string) string
}

// FactsFrom collects Facts from src. Sec-Fetch-Site is trimmed and
// lower-cased.
func FactsFrom(src HeaderSource) Facts {
	return Facts{
		Method:       src.Method(),
		SecFetchSite: strings.ToLower(strings.TrimSpace(src.Header(headerSecFetchSite))),
		Origin:       strings.TrimSpace(src.Header(headerOrigin)),
		Host:         src.Header(headerHost),
	}
}

type requestSource struct {
	r                  *http.Request
	trustForwardedHost bool
}

// RequestSource adapts a *http.Request to HeaderSource. Go moves the Host
// header into r.Host, so Header("Host") reads from there. When
// trustForwardedHost is set, the first X-Forwarded-Host value wins.
func RequestSource(r *http.Request, trustForwardedHost bool) HeaderSource {
	return requestSource{r: r, trustForwardedHost: trustForwardedHost}
}

func (s requestSource) Method() string {
	return s.r.Method
}

func (s requestSource) Header(name string) string {
	if http.CanonicalHeaderKey(name) != headerHost {
		return s.r.Header.Get(name)
	}
	if s.trustForwardedHost {
		if fh := s.r.Header.Get(headerForwardedHost); fh != "" {
			// proxies may append: "client-facing, proxy1"
			first, _, _ := strings.Cut(fh, ",")
			return strings.TrimSpace(first)
		}
	}
	return s.r.Host
}
