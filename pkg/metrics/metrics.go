// Package metrics wraps an AuditSink with a Prometheus recorder: ambient
// observability over the decisions the core already emits, not a new
// concept the core itself needs to know about.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

// CacheStatter is the capability metrics needs from the decision cache to
// expose a live hit-rate gauge.
type CacheStatter interface {
	Stats() (hits, misses uint64, hitRate float64)
	Size() int
}

// Recorder implements clawsec.AuditSink, counting decisions by action and
// category, and exposes the cache hit rate already computed in
// pkg/clawsec's DecisionCache.
type Recorder struct {
	next CacheStatter

	decisions   *prometheus.CounterVec
	sanitized   *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	cacheHits   prometheus.Gauge
	cacheMisses prometheus.Gauge
	cacheSize   prometheus.Gauge
}

// NewRecorder registers its collectors against reg and returns a Recorder
// ready to wrap into an audit.Emitter as one of its sinks.
func NewRecorder(reg prometheus.Registerer, cache CacheStatter) *Recorder {
	r := &Recorder{
		next: cache,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawsec",
			Name:      "decisions_total",
			Help:      "Number of decision engine verdicts, by action and threat category.",
		}, []string{"action", "category"}),
		sanitized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawsec",
			Name:      "sanitizer_redactions_total",
			Help:      "Number of output-sanitizer redactions, by redaction type.",
		}, []string{"type"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clawsec",
			Name:      "approvals_total",
			Help:      "Number of approval ticket resolutions, by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clawsec", Name: "decision_cache_hits", Help: "Cumulative decision cache hits.",
		}),
		cacheMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clawsec", Name: "decision_cache_misses", Help: "Cumulative decision cache misses.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clawsec", Name: "decision_cache_size", Help: "Current decision cache entry count.",
		}),
	}
	reg.MustRegister(r.decisions, r.sanitized, r.approvals, r.cacheHits, r.cacheMisses, r.cacheSize)
	return r
}

// Emit implements clawsec.AuditSink.
func (r *Recorder) Emit(event clawsec.AuditEvent) {
	switch event.Kind {
	case clawsec.AuditDetection:
		r.decisions.WithLabelValues(string(event.Action), string(event.Category)).Inc()
	case clawsec.AuditApproval:
		r.approvals.WithLabelValues("approved").Inc()
	case clawsec.AuditDenial:
		r.approvals.WithLabelValues("denied").Inc()
	case clawsec.AuditExpiry:
		r.approvals.WithLabelValues("expired").Inc()
	case clawsec.AuditSanitized:
		if event.Redaction != nil {
			r.sanitized.WithLabelValues(event.Redaction.Type).Inc()
		}
	}

	if r.next != nil {
		hits, misses, _ := r.next.Stats()
		r.cacheHits.Set(float64(hits))
		r.cacheMisses.Set(float64(misses))
		r.cacheSize.Set(float64(r.next.Size()))
	}
}
