package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus instruments. A nil *Collector is
// valid and turns every record call into a no-op, so metrics stay optional.
type Collector struct {
	reg *prometheus.Registry

	locationsIngested prometheus.Counter
	eventsEmitted     *prometheus.CounterVec
	eventsDuplicate   *prometheus.CounterVec
	eventsFailed      *prometheus.CounterVec
	jobsDropped       prometheus.Counter
	jobsFailed        prometheus.Counter
	queueDepth        prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		locationsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_locations_ingested_total",
			Help: "Total location samples accepted.",
		}),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_events_emitted_total",
			Help: "Derived events persisted, by kind.",
		}, []string{"kind"}),
		eventsDuplicate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_events_duplicate_total",
			Help: "Derived events suppressed by the uniqueness constraint, by kind.",
		}, []string{"kind"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolbus_events_failed_total",
			Help: "Derived event inserts that failed, by kind.",
		}, []string{"kind"}),
		jobsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_geofence_jobs_dropped_total",
			Help: "Geofence jobs dropped because the queue was full.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schoolbus_geofence_jobs_failed_total",
			Help: "Geofence jobs that returned an error.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schoolbus_geofence_queue_depth",
			Help: "Geofence jobs waiting in the dispatcher queue.",
		}),
	}

	reg.MustRegister(
		c.locationsIngested,
		c.eventsEmitted,
		c.eventsDuplicate,
		c.eventsFailed,
		c.jobsDropped,
		c.jobsFailed,
		c.queueDepth,
	)
	return c
}

func (c *Collector) LocationIngested() {
	if c == nil {
		return
	}
	c.locationsIngested.Inc()
}

func (c *Collector) EventEmitted(kind string) {
	if c == nil {
		return
	}
	c.eventsEmitted.WithLabelValues(kind).Inc()
}

func (c *Collector) EventDuplicate(kind string) {
	if c == nil {
		return
	}
	c.eventsDuplicate.WithLabelValues(kind).Inc()
}

func (c *Collector) EventFailed(kind string) {
	if c == nil {
		return
	}
	c.eventsFailed.WithLabelValues(kind).Inc()
}

func (c *Collector) JobDropped() {
	if c == nil {
		return
	}
	c.jobsDropped.Inc()
}

func (c *Collector) JobFailed() {
	if c == nil {
		return
	}
	c.jobsFailed.Inc()
}

func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(n))
}

// Serve exposes /metrics on addr. The caller owns the returned server's
// shutdown.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
