package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus metrics. All record helpers are
// nil-receiver safe so library consumers can skip metrics entirely.
type Metrics struct {
	// Decision metrics
	PermissionEvaluationsTotal *prometheus.CounterVec
	ShareChecksTotal           *prometheus.CounterVec

	// Cache metrics
	PanelCacheHitsTotal   prometheus.Counter
	PanelCacheMissesTotal prometheus.Counter
	RoleCacheHitsTotal    prometheus.Counter
	RoleCacheMissesTotal  prometheus.Counter

	// Ledger metrics
	LedgerWritesTotal *prometheus.CounterVec

	// Badge metrics
	BadgeRefreshesTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all engine metrics on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		PermissionEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visor_permission_evaluations_total",
				Help: "Total number of permission matrix evaluations",
			},
			[]string{"outcome"},
		),
		ShareChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visor_share_checks_total",
				Help: "Total number of per-record share visibility checks",
			},
			[]string{"outcome"},
		),
		PanelCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visor_panel_cache_hits_total",
				Help: "Share-settings panel detection cache hits",
			},
		),
		PanelCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visor_panel_cache_misses_total",
				Help: "Share-settings panel detection cache misses",
			},
		),
		RoleCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visor_role_cache_hits_total",
				Help: "Role directory cache hits",
			},
		),
		RoleCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "visor_role_cache_misses_total",
				Help: "Role directory cache misses (fetches)",
			},
		),
		LedgerWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visor_ledger_writes_total",
				Help: "Durable view-event writes by status",
			},
			[]string{"status"},
		),
		BadgeRefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visor_badge_refreshes_total",
				Help: "Per-form badge count refreshes by outcome",
			},
			[]string{"outcome"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.PermissionEvaluationsTotal,
			m.ShareChecksTotal,
			m.PanelCacheHitsTotal,
			m.PanelCacheMissesTotal,
			m.RoleCacheHitsTotal,
			m.RoleCacheMissesTotal,
			m.LedgerWritesTotal,
			m.BadgeRefreshesTotal,
		)
	}

	return m
}

// RecordEvaluation counts one matrix evaluation.
func (m *Metrics) RecordEvaluation(anyGranted bool) {
	if m == nil {
		return
	}
	m.PermissionEvaluationsTotal.WithLabelValues(outcomeLabel(anyGranted)).Inc()
}

// RecordShareCheck counts one row visibility decision.
func (m *Metrics) RecordShareCheck(visible bool) {
	if m == nil {
		return
	}
	m.ShareChecksTotal.WithLabelValues(outcomeLabel(visible)).Inc()
}

// RecordPanelCache counts a panel-detection cache lookup.
func (m *Metrics) RecordPanelCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.PanelCacheHitsTotal.Inc()
	} else {
		m.PanelCacheMissesTotal.Inc()
	}
}

// RecordRoleCache counts a role directory cache lookup.
func (m *Metrics) RecordRoleCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.RoleCacheHitsTotal.Inc()
	} else {
		m.RoleCacheMissesTotal.Inc()
	}
}

// RecordLedgerWrite counts a durable view-event write.
func (m *Metrics) RecordLedgerWrite(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LedgerWritesTotal.WithLabelValues(status).Inc()
}

// RecordBadgeRefresh counts one per-form count refresh.
func (m *Metrics) RecordBadgeRefresh(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.BadgeRefreshesTotal.WithLabelValues(outcome).Inc()
}

func outcomeLabel(granted bool) string {
	if granted {
		return "granted"
	}
	return "denied"
}
