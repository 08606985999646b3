package csrf

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeOrigin turns an operator supplied origin into the serialized form
// browsers send in the Origin header: lower-case scheme and host, default
// port elided, no path. Internationalized hosts are converted to punycode.
//
// Params:
// - raw: origin such as "https://App.Example.com:443/".
//
// Returns:
// - the normalized origin ("https://app.example.com") or a *ConfigError.
func NormalizeOrigin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &ConfigError{Field: "trusted origin", Value: raw, Err: err}
	}
	if u.Scheme == "" || u.Host == "" || u.Opaque != "" {
		return "", &ConfigError{Field: "trusted origin", Value: raw, Err: errors.New("not an absolute origin")}
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" || (u.Path != "" && u.Path != "/") {
		return "", &ConfigError{Field: "trusted origin", Value: raw, Err: errors.New("origin must not carry a path, query, fragment or user info")}
	}

	host, err := asciiHost(u.Hostname())
	if err != nil {
		return "", &ConfigError{Field: "trusted origin", Value: raw, Err: err}
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme + "://" + joinHostPort(host, stripDefaultPort(scheme, u.Port())), nil
}

// asciiHost lower-cases host and converts an internationalized name to the
// punycode form browsers put on the wire.
func asciiHost(host string) (string, error) {
	host = strings.ToLower(host)
	if isASCII(host) {
		return host, nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid internationalized host: %w", err)
	}
	return ascii, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// originHost extracts host[:port] and the scheme from an Origin header value.
// The port is dropped only when it is the scheme's default. The last result
// is false when the value is not an absolute URL with a host ("null"
// included).
func originHost(origin string) (string, string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", false
	}
	scheme := strings.ToLower(u.Scheme)
	return joinHostPort(strings.ToLower(u.Hostname()), stripDefaultPort(scheme, u.Port())), scheme, true
}

// normalizeHost lower-cases a Host header value and drops the port when it
// is the default for scheme, the scheme of the Origin being compared.
func normalizeHost(host, scheme string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		// no port
		return host
	}
	return joinHostPort(h, stripDefaultPort(scheme, port))
}

func stripDefaultPort(scheme, port string) string {
	if port == defaultPorts[scheme] {
		return ""
	}
	return port
}

func joinHostPort(host, port string) string {
	if port != "" {
		return net.JoinHostPort(host, port)
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
