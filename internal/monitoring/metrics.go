package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects scrape level Prometheus metrics. A nil *Metrics is valid
// and records nothing, so library callers can leave it unset.
type Metrics struct {
	scrapesTotal   *prometheus.CounterVec
	scrapeDuration *prometheus.HistogramVec
	recordsTotal   prometheus.Counter
	activeSessions prometheus.Gauge
	scrollRounds   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scrapesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codir_scrapes_total",
				Help: "Total number of scrape invocations by outcome",
			},
			[]string{"outcome"},
		),
		scrapeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codir_scrape_duration_seconds",
				Help:    "Scrape duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		recordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "codir_records_scraped_total",
				Help: "Total number of company records returned by successful scrapes",
			},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "codir_browser_sessions_active",
				Help: "Number of open headless browser sessions",
			},
		),
		scrollRounds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codir_scroll_rounds",
				Help:    "Scroll-to-bottom rounds needed before the listing stopped growing",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.scrapesTotal, m.scrapeDuration, m.recordsTotal, m.activeSessions, m.scrollRounds)
	return m
}

// ObserveScrape records one finished scrape.
func (m *Metrics) ObserveScrape(outcome string, d time.Duration, records int) {
	if m == nil {
		return
	}
	m.scrapesTotal.WithLabelValues(outcome).Inc()
	m.scrapeDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if records > 0 {
		m.recordsTotal.Add(float64(records))
	}
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// ObserveScroll records how many rounds the scroll loop ran and how it ended.
func (m *Metrics) ObserveScroll(outcome string, rounds int) {
	if m == nil {
		return
	}
	m.scrollRounds.WithLabelValues(outcome).Observe(float64(rounds))
}
