package csrf

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "secfetch"

type metrics struct {
	decisions *prometheus.CounterVec
}

// newMetrics registers the decision counter on reg. A nil reg disables
// metrics. Registering twice on the same registry reuses the first counter.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "csrf",
			Name:      "decisions_total",
			Help:      "Origin validation decisions by result and deny reason",
		},
		[]string{"result", "reason"},
	)
	if err := reg.Register(decisions); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register csrf metrics: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register csrf metrics: %w", err)
		}
		decisions = existing
	}
	return &metrics{decisions: decisions}, nil
}

func (m *metrics) observe(d Decision) {
	if m == nil {
		return
	}
	result := "deny"
	if d.Allowed {
		result = "allow"
	}
	m.decisions.WithLabelValues(result, string(d.Reason)).Inc()
}
