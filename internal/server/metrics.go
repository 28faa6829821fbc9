package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-system/internal/parking"
)

// LotCollector exposes the session's current occupancy at scrape time.
type LotCollector struct {
	session *parking.Session

	capacity *prometheus.Desc
	occupied *prometheus.Desc
	vehicles *prometheus.Desc
}

func NewLotCollector(session *parking.Session) *LotCollector {
	return &LotCollector{
		session: session,
		capacity: prometheus.NewDesc("parking_lot_capacity",
			"Total number of slots in the active parking lot.", nil, nil),
		occupied: prometheus.NewDesc("parking_lot_occupied_slots",
			"Number of occupied slots in the active parking lot.", nil, nil),
		vehicles: prometheus.NewDesc("parking_lot_vehicles",
			"Parked vehicles by lower-cased type.", []string{"type"}, nil),
	}
}

func (c *LotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacity
	ch <- c.occupied
	ch <- c.vehicles
}

// Collect emits nothing until a lot has been created.
func (c *LotCollector) Collect(ch chan<- prometheus.Metric) {
	snap, ok := c.session.Snapshot()
	if !ok {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(snap.Capacity))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(snap.Occupied))
	for vehicleType, count := range snap.ByType {
		ch <- prometheus.MustNewConstMetric(c.vehicles, prometheus.GaugeValue, float64(count), vehicleType)
	}
}

type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// NewRegistry builds the registry served on /metrics.
func NewRegistry(session *parking.Session, httpMetrics *HTTPMetrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewLotCollector(session),
		httpMetrics.requests,
		httpMetrics.duration,
	)
	return reg
}
