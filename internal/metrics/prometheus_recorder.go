package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	pagesRendered *prom.CounterVec
	pageFailures  *prom.CounterVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the render metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		pagesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "plutogen",
			Name:      "pages_rendered_total",
			Help:      "Pages rendered by kind",
		}, []string{"kind"}),
		pageFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "plutogen",
			Name:      "page_failures_total",
			Help:      "Pages that failed to render by kind",
		}, []string{"kind"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "plutogen",
			Name:      "build_duration_seconds",
			Help:      "Total duration of one render batch",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "plutogen",
			Name:      "build_outcomes_total",
			Help:      "Render batch outcomes by final status",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.pagesRendered, pr.pageFailures, pr.buildDuration, pr.buildOutcome)
	return pr
}

func (p *PrometheusRecorder) IncPagesRendered(kind PageKind) {
	p.pagesRendered.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) IncPageFailures(kind PageKind) {
	p.pageFailures.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

// HTTPHandler serves the recorder's registry for scraping.
func (p *PrometheusRecorder) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
