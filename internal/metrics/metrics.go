package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chimera_events_total",
		Help: "Total number of classified events by threat level",
	}, []string{"level"})
	threatsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chimera_threats_total",
		Help: "Total number of non-normal verdicts by category",
	}, []string{"category"})
	mitigationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chimera_mitigations_total",
		Help: "Total number of mitigation decisions by action",
	}, []string{"action"})
	blockedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chimera_blocked_requests_total",
		Help: "Total number of requests short-circuited because the source is blocked",
	})
	healthScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chimera_health_score",
		Help: "Advisory health score in [0,100]",
	})
)

func init() {
	healthScore.Set(100)
}

// Register registers Prometheus collectors. Call once per registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(eventsTotal, threatsTotal, mitigationsTotal, blockedRequestsTotal, healthScore)
}

// IncEvent counts a classified event.
func IncEvent(level string) { eventsTotal.WithLabelValues(level).Inc() }

// IncThreat counts a non-normal verdict.
func IncThreat(category string) { threatsTotal.WithLabelValues(category).Inc() }

// IncMitigation counts a mitigation decision.
func IncMitigation(action string) { mitigationsTotal.WithLabelValues(action).Inc() }

// IncBlockedRequest counts a request from an already blocked source.
func IncBlockedRequest() { blockedRequestsTotal.Inc() }

// SetHealth records the current health score.
func SetHealth(score int) { healthScore.Set(float64(score)) }
