// Package updatemetrics exports Prometheus metrics for the
// events published by an autoupdater.Channel.
package updatemetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"updatectl/internal/autoupdater"
)

const namespace = "autoupdater"

type Metrics struct {
	events         *prometheus.CounterVec
	lastDownloaded prometheus.Gauge
	now            func() time.Time
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Number of update lifecycle events published, by event name",
		}, []string{"event"}),
		lastDownloaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_downloaded_timestamp_seconds",
			Help:      "Unix time of the last completed update download",
		}),
		now: time.Now,
	}
	for _, c := range []prometheus.Collector{m.events, m.lastDownloaded} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe starts counting the events published on ch. The
// returned function stops it.
func (m *Metrics) Observe(ch *autoupdater.Channel) (stop func()) {
	return ch.SubscribeAll(m.observe)
}

func (m *Metrics) observe(ev autoupdater.Event) {
	m.events.WithLabelValues(string(ev.Name())).Inc()
	if _, ok := ev.(autoupdater.UpdateDownloadedEvent); ok {
		m.lastDownloaded.Set(float64(m.now().Unix()))
	}
}
