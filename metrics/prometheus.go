package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider is a Provider backed by github.com/prometheus/client_golang.
// It registers prometheus.Counter/Histogram instruments for a concurrent
// dispatcher.
//
// Instruments are created on demand by name, reused for the same name, and
// registered against the supplied registerer (pass prometheus.DefaultRegisterer
// to expose them on the default /metrics endpoint).
type PrometheusProvider struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheusCounter
	updowns    map[string]*prometheusUpDownCounter
	histograms map[string]*prometheusHistogram
}

// NewPrometheusProvider constructs a PrometheusProvider registering its
// instruments against reg.
func NewPrometheusProvider(reg prometheus.Registerer) *PrometheusProvider {
	return &PrometheusProvider{
		registerer: reg,
		counters:   make(map[string]*prometheusCounter),
		updowns:    make(map[string]*prometheusUpDownCounter),
		histograms: make(map[string]*prometheusHistogram),
	}
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.counters[name]; ok {
		return c
	}

	cfg := applyOptions(opts)
	vec := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        name,
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: prometheus.Labels(cfg.Attributes),
	})
	p.registerer.MustRegister(vec)

	c := &prometheusCounter{c: vec}
	p.counters[name] = c
	return c
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u, ok := p.updowns[name]; ok {
		return u
	}

	cfg := applyOptions(opts)
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        name,
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: prometheus.Labels(cfg.Attributes),
	})
	p.registerer.MustRegister(gauge)

	u := &prometheusUpDownCounter{g: gauge}
	p.updowns[name] = u
	return u
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.histograms[name]; ok {
		return h
	}

	cfg := applyOptions(opts)
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        name,
		Help:        helpOrDefault(cfg.Description, name),
		ConstLabels: prometheus.Labels(cfg.Attributes),
		Buckets:     prometheus.DefBuckets,
	})
	p.registerer.MustRegister(hist)

	h := &prometheusHistogram{h: hist}
	p.histograms[name] = h
	return h
}

func helpOrDefault(description, name string) string {
	if description != "" {
		return description
	}
	return name
}

type prometheusCounter struct {
	c prometheus.Counter
}

func (c *prometheusCounter) Add(n int64) { c.c.Add(float64(n)) }

type prometheusUpDownCounter struct {
	g prometheus.Gauge
}

func (u *prometheusUpDownCounter) Add(n int64) { u.g.Add(float64(n)) }

type prometheusHistogram struct {
	h prometheus.Histogram
}

func (h *prometheusHistogram) Record(v float64) { h.h.Observe(v) }
