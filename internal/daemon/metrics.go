package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theirongolddev/larder/internal/events"
)

// metrics lives on its own registry so tests can build many services.
type metrics struct {
	registry *prometheus.Registry

	items        prometheus.Gauge
	value        prometheus.Gauge
	expiring     *prometheus.GaugeVec
	lowStock     prometheus.Gauge
	activeAlerts prometheus.Gauge

	sweeps        prometheus.Counter
	alertsRaised  prometheus.Counter
	notifications *prometheus.CounterVec
	itemEvents    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "larder_items",
			Help: "Number of items in the inventory",
		}),
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "larder_inventory_value",
			Help: "Total cost of stocked items",
		}),
		expiring: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "larder_items_expiring",
			Help: "Items expiring within a window",
		}, []string{"window"}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "larder_items_low_stock",
			Help: "Items predicted to run out within a week",
		}),
		activeAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "larder_active_alerts",
			Help: "Unacknowledged expiry alerts",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "larder_sweeps_total",
			Help: "Completed sweeper passes",
		}),
		alertsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "larder_alerts_raised_total",
			Help: "Expiry alerts created by the sweeper",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "larder_notifications_total",
			Help: "Notification attempts by outcome",
		}, []string{"outcome"}),
		itemEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "larder_item_events_total",
			Help: "Inventory change events by kind",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.items, m.value, m.expiring, m.lowStock, m.activeAlerts,
		m.sweeps, m.alertsRaised, m.notifications, m.itemEvents,
	)
	return m
}

func (m *metrics) observeSnapshot(s Snapshot) {
	m.items.Set(float64(s.Items))
	m.value.Set(s.TotalValue)
	m.expiring.WithLabelValues("48h").Set(float64(s.ExpiringSoon))
	m.expiring.WithLabelValues("7d").Set(float64(s.ExpiringThisWeek))
	m.lowStock.Set(float64(s.LowStock))
	m.activeAlerts.Set(float64(s.ActiveAlerts))
}

func (m *metrics) observeSweep(r SweepReport) {
	m.sweeps.Inc()
	m.alertsRaised.Add(float64(r.NewAlerts))
	m.notifications.WithLabelValues("delivered").Add(float64(r.Delivered + r.Scheduled.Delivered))
	m.notifications.WithLabelValues("suppressed").Add(float64(r.Suppressed + r.Scheduled.Suppressed))
	m.notifications.WithLabelValues("failed").Add(float64(r.Failed + r.Scheduled.Failed))
}

func (m *metrics) observeEvent(k events.Kind) {
	m.itemEvents.WithLabelValues(string(k)).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
