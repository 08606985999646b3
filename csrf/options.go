package csrf

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Config struct {
	// Policy
	ProtectedMethods []string // default: POST, PUT, PATCH, DELETE
	AllowSameSite    bool
	TrustedOrigins   []string // e.g.: "https://app.example.com"

	// Host resolution behind a reverse proxy
	TrustForwardedHost bool

	// Exemptions; nil means a fresh registry owned by the Protector
	Exemptions *Registry
	// RouteID resolves the route identity (and its groups) used for exemption
	// lookups. Default: r.URL.Path and its path prefixes.
	RouteID func(r *http.Request) (route string, groups []string)

	// ErrorHandler writes the response for denied requests. Default: 403 with
	// the error text.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err *Error)

	// Observability
	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

type Protector struct {
	cfg     Config
	policy  *Policy
	metrics *metrics
	logger  *zap.Logger

	customErrorHandler bool
}

// New validates cfg and builds a Protector. The returned Protector is safe for
// concurrent use once the registration phase is over.
func New(cfg Config) (*Protector, error) {
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(cfg.Registerer)
	if err != nil {
		return nil, err
	}

	custom := cfg.ErrorHandler != nil

	// reasonable defaults
	if cfg.Exemptions == nil {
		cfg.Exemptions = NewRegistry()
	}
	if cfg.RouteID == nil {
		cfg.RouteID = pathRouteID
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Protector{
		cfg:     cfg,
		policy:  policy,
		metrics: m,
		logger:  logger.Named("csrf"),

		customErrorHandler: custom,
	}, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config) *Protector {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Policy returns the immutable policy the Protector evaluates with.
func (p *Protector) Policy() *Policy {
	return p.policy
}

// Registry returns the exemption registry.
func (p *Protector) Registry() *Registry {
	return p.cfg.Exemptions
}

// ErrorHandler returns the handler used for denied requests.
func (p *Protector) ErrorHandler() func(http.ResponseWriter, *http.Request, *Error) {
	return p.cfg.ErrorHandler
}

// HasCustomErrorHandler reports whether Config.ErrorHandler was set.
func (p *Protector) HasCustomErrorHandler() bool {
	return p.customErrorHandler
}

func pathRouteID(r *http.Request) (string, []string) {
	return r.URL.Path, PathGroups(r.URL.Path)
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err *Error) {
	http.Error(w, err.Error(), err.StatusCode())
}
