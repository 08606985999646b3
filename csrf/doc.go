// Package csrf provides cross-site request forgery protection for Go net/http
// servers based on the Fetch Metadata headers browsers already send. No
// tokens, no cookies and no server-side state are involved.
//
// How it works
//   - Safe methods (GET, HEAD, OPTIONS, and anything else outside
//     Config.ProtectedMethods) always pass.
//   - Requests with neither Sec-Fetch-Site nor Origin pass: they come from
//     non-browser clients that a victim's browser cannot be tricked into
//     sending.
//   - When Sec-Fetch-Site is present, "same-origin" and "none" pass,
//     "same-site" passes only with AllowSameSite, and an Origin listed in
//     TrustedOrigins passes regardless. Everything else is rejected as
//     cross_site.
//   - Older browsers send only Origin; its host[:port] must equal the Host
//     header, otherwise the request is rejected as origin_mismatch.
//
// # Configuration
//
// All behavior is driven by Config. Key fields include:
//   - ProtectedMethods (default: POST, PUT, PATCH, DELETE)
//   - AllowSameSite (default: false)
//   - TrustedOrigins, normalized at construction ("https://App.example.com:443/"
//     becomes "https://app.example.com")
//   - TrustForwardedHost to compare against X-Forwarded-Host behind a proxy
//   - ErrorHandler to customize the 403 response
//   - Logger (zap) and Registerer (prometheus)
//
// Typical usage
//
//	p := csrf.MustNew(csrf.Config{TrustedOrigins: []string{"https://app.example.com"}})
//	_ = p.Exempt("/webhook")
//	http.ListenAndServe(":8080", p.Protect(appMux))
//
// Exemptions must be registered before the first request is served; the
// registry is frozen afterwards. Use the chicsrf and gincsrf packages to key
// exemptions by route pattern and router group.
package csrf
