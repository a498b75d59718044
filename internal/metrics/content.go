package metrics

import "time"

// SetContentSource records where the served site came from (seed or dir).
func (m *ServerMetrics) SetContentSource(source string) {
	m.siteSource.Reset()
	m.siteSource.WithLabelValues(source).Set(1)
}

func (m *ServerMetrics) SetContentSite(version, sha256 string) {
	m.siteInfo.Reset()
	m.siteInfo.WithLabelValues(version, sha256).Set(1)
}

func (m *ServerMetrics) SetContentLoadedTimestamp(t time.Time) {
	m.siteLoadedAt.Set(float64(t.Unix()))
}

func (m *ServerMetrics) IncWatcherPolls()                   { m.polls.Inc() }
func (m *ServerMetrics) IncWatcherSwaps()                   { m.swaps.Inc() }
func (m *ServerMetrics) IncWatcherError(errType string)     { m.watchErrors.WithLabelValues(errType).Inc() }
func (m *ServerMetrics) ObserveSiteLoadDuration(s float64)  { m.loadSeconds.Observe(s) }
func (m *ServerMetrics) SetWatcherLastSuccess(unix float64) { m.lastScan.Set(unix) }
func (m *ServerMetrics) SetWatcherStale(stale bool)         { m.stale.Set(b2f(stale)) }

// IncStoreRequest counts store endpoint calls; op is read, publish or reset.
func (m *ServerMetrics) IncStoreRequest(op, outcome string) {
	m.storeRequests.WithLabelValues(op, outcome).Inc()
}

func (m *ServerMetrics) IncAutoSave(outcome string)  { m.autosaves.WithLabelValues(outcome).Inc() }
func (m *ServerMetrics) IncReconcile(outcome string) { m.reconciles.WithLabelValues(outcome).Inc() }

func (m *ServerMetrics) ObserveGeneration(outcome string, seconds float64) {
	m.generations.WithLabelValues(outcome).Inc()
	m.genSeconds.Observe(seconds)
}
