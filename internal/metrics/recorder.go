// Package metrics provides observability hooks for the render
// pipeline. Components receive a Recorder through dependency
// injection; the default NoopRecorder keeps metrics optional.
package metrics

import "time"

// PageKind labels rendered page counters.
type PageKind string

const (
	PageKindPost     PageKind = "post"
	PageKindTag      PageKind = "tag"
	PageKindOverview PageKind = "overview"
)

// Recorder defines observability hooks for render batches. All methods
// must be cheap no-ops in the NoopRecorder so injection stays optional.
type Recorder interface {
	IncPagesRendered(kind PageKind)
	IncPageFailures(kind PageKind)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string) // outcome: success|partial|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPagesRendered(PageKind)          {}
func (NoopRecorder) IncPageFailures(PageKind)           {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
