package infra

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "business_war"

// Metrics exposes engine activity as Prometheus collectors.
// It satisfies engine.Recorder.
type Metrics struct {
	ordersAccepted *prometheus.CounterVec
	ordersRejected *prometheus.CounterVec
	tradedVolume   *prometheus.CounterVec
	clearingPrice  *prometheus.GaugeVec
	govSold        *prometheus.CounterVec
	taxCollected   *prometheus.CounterVec
	phaseDuration  *prometheus.HistogramVec
	feedClients    prometheus.Gauge
}

// NewMetrics creates the collectors. Call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		ordersAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "orders_accepted_total",
				Help:      "Orders accepted by intake, by side",
			},
			[]string{"side"},
		),
		ordersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "orders_rejected_total",
				Help:      "Orders rejected by intake, by reason",
			},
			[]string{"reason"},
		),
		tradedVolume: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "traded_units_total",
				Help:      "Units matched by the call auction",
			},
			[]string{"item"},
		),
		clearingPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "market",
				Name:      "clearing_price",
				Help:      "Last clearing price per item",
			},
			[]string{"item"},
		),
		govSold: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "government",
				Name:      "units_bought_total",
				Help:      "Units bought by government acquisitions",
			},
			[]string{"item"},
		),
		taxCollected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "cash_removed_total",
				Help:      "Cash removed from players during settlement, by cause",
			},
			[]string{"cause"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "phase_duration_seconds",
				Help:      "Time spent in barrier operations",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"phase"},
		),
		feedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "feed",
				Name:      "clients",
				Help:      "Connected spectator websocket clients",
			},
		),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.ordersAccepted,
		m.ordersRejected,
		m.tradedVolume,
		m.clearingPrice,
		m.govSold,
		m.taxCollected,
		m.phaseDuration,
		m.feedClients,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// OrderAccepted records an accepted order.
func (m *Metrics) OrderAccepted(side string) {
	m.ordersAccepted.WithLabelValues(side).Inc()
}

// OrderRejected records a rejected order.
func (m *Metrics) OrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// Traded records a clearing result for one item.
func (m *Metrics) Traded(item string, price, volume int64) {
	m.tradedVolume.WithLabelValues(item).Add(float64(volume))
	m.clearingPrice.WithLabelValues(item).Set(float64(price))
}

// GovSold records units bought by the government.
func (m *Metrics) GovSold(item string, qty int64) {
	m.govSold.WithLabelValues(item).Add(float64(qty))
}

// CashRemoved records cash taken by a settlement step.
func (m *Metrics) CashRemoved(cause string, amount int64) {
	m.taxCollected.WithLabelValues(cause).Add(float64(amount))
}

// ObservePhase records the duration of a barrier operation.
func (m *Metrics) ObservePhase(phase string, seconds float64) {
	m.phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// IncrementClients increments connected feed clients by 1.
func (m *Metrics) IncrementClients() {
	m.feedClients.Inc()
}

// DecrementClients decrements connected feed clients by 1.
func (m *Metrics) DecrementClients() {
	m.feedClients.Dec()
}
