// Package stats wraps go-metrics behind a receiver that can be passed down a
// call tree and scoped at each level:
//
//	stat.Scope("scheduler").Counter("trainSubmittedCounter").Inc(1)
//
// Latencies carry a display precision used when rendering to JSON.
package stats

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

// For testing.
var Time StatsTime = DefaultStatsTime()

// To check if pretty printing is supported.
type MarshalerPretty interface {
	MarshalJSONPretty() ([]byte, error)
}

// StatsRegistry is the part of a go-metrics registry receivers need.
type StatsRegistry interface {
	// Gets an existing metric or registers the given one, which may be a
	// factory func for lazy instantiation.
	GetOrRegister(string, interface{}) interface{}

	Each(func(string, interface{}))
}

// StatsReceiver namespaces instruments by scope. Names are joined with '/',
// so a '/' inside a scope element is replaced by "_SLASH_".
type StatsReceiver interface {
	Scope(scope ...string) StatsReceiver

	// Returns a copy whose new Latency instruments render at the given precision.
	Precision(time.Duration) StatsReceiver

	Counter(name ...string) Counter

	// Latency in nanoseconds by default, see Precision().
	Latency(name ...string) Latency

	Gauge(name ...string) Gauge

	GaugeFloat(name ...string) GaugeFloat

	Histogram(name ...string) Histogram

	// JSON document of the registry. Histograms are reset on every call.
	Render(pretty bool) []byte
}

// DefaultStatsReceiver is backed by the plain go-metrics registry.
func DefaultStatsReceiver() StatsReceiver {
	return NewCustomStatsReceiver(nil)
}

func NewCustomStatsReceiver(makeRegistry func() StatsRegistry) StatsReceiver {
	if makeRegistry == nil {
		makeRegistry = func() StatsRegistry { return metrics.NewRegistry() }
	}
	return &defaultStatsReceiver{
		registry:  makeRegistry(),
		precision: time.Nanosecond,
	}
}

type defaultStatsReceiver struct {
	registry  StatsRegistry
	precision time.Duration
	scope     []string
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{s.registry, s.precision, s.scoped(scope...)}
}

func (s *defaultStatsReceiver) Precision(precision time.Duration) StatsReceiver {
	if precision < 1 {
		precision = 1
	}
	return &defaultStatsReceiver{s.registry, precision, s.scope}
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return s.registry.GetOrRegister(s.scopedName(name...), newCounter).(Counter)
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return s.registry.GetOrRegister(s.scopedName(name...), newGauge).(Gauge)
}

func (s *defaultStatsReceiver) GaugeFloat(name ...string) GaugeFloat {
	return s.registry.GetOrRegister(s.scopedName(name...), newGaugeFloat).(GaugeFloat)
}

func (s *defaultStatsReceiver) Histogram(name ...string) Histogram {
	return s.registry.GetOrRegister(s.scopedName(name...), newHistogram).(Histogram)
}

func (s *defaultStatsReceiver) Latency(name ...string) Latency {
	// metrics.Registry can't cast a factory's return value, so no lazy instantiation.
	return s.registry.GetOrRegister(s.scopedName(name...), newLatency(s.precision)).(Latency)
}

func (s *defaultStatsReceiver) Render(pretty bool) []byte {
	var err error
	var bytes []byte
	if mp, ok := s.registry.(MarshalerPretty); ok && pretty {
		bytes, err = mp.MarshalJSONPretty()
	} else {
		bytes, err = json.Marshal(s.registry)
	}
	if err != nil {
		panic("StatsRegistry bug, cannot be marshaled")
	}
	s.registry.Each(func(_ string, i interface{}) {
		switch m := i.(type) {
		case *metricHistogram:
			m.Clear()
		case *metricLatency:
			m.Clear()
		}
	})
	return bytes
}

func (s *defaultStatsReceiver) scoped(scope ...string) []string {
	scrubbed := make([]string, 0, len(s.scope)+len(scope))
	scrubbed = append(scrubbed, s.scope...)
	for _, elem := range scope {
		scrubbed = append(scrubbed, strings.Replace(elem, "/", "_SLASH_", -1))
	}
	return scrubbed
}

func (s *defaultStatsReceiver) scopedName(scope ...string) string {
	return strings.Join(s.scoped(scope...), "/")
}

// NilStatsReceiver ignores all stats operations.
func NilStatsReceiver(scope ...string) StatsReceiver {
	return &nilStatsReceiver{}
}

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver             { return s }
func (s *nilStatsReceiver) Precision(precision time.Duration) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter {
	return &metricCounter{&metrics.NilCounter{}}
}
func (s *nilStatsReceiver) Gauge(name ...string) Gauge {
	return &metricGauge{&metrics.NilGauge{}}
}
func (s *nilStatsReceiver) GaugeFloat(name ...string) GaugeFloat {
	return &metricGaugeFloat{&metrics.NilGaugeFloat64{}}
}
func (s *nilStatsReceiver) Histogram(name ...string) Histogram {
	return &metricHistogram{&metrics.NilHistogram{}}
}
func (s *nilStatsReceiver) Latency(name ...string) Latency {
	return &metricLatency{&metrics.NilHistogram{}, time.Nanosecond}
}
func (s *nilStatsReceiver) Render(pretty bool) []byte { return []byte{} }

type Counter interface {
	Count() int64
	Inc(int64)
}
type metricCounter struct{ metrics.Counter }

func newCounter() Counter { return &metricCounter{metrics.NewCounter()} }

type Gauge interface {
	Update(int64)
	Value() int64
}
type metricGauge struct{ metrics.Gauge }

func newGauge() Gauge { return &metricGauge{metrics.NewGauge()} }

type GaugeFloat interface {
	Update(float64)
	Value() float64
}
type metricGaugeFloat struct{ metrics.GaugeFloat64 }

func newGaugeFloat() GaugeFloat { return &metricGaugeFloat{metrics.NewGaugeFloat64()} }

type Histogram interface {
	Count() int64
	Update(int64)
}
type metricHistogram struct{ metrics.Histogram }

func newHistogram() Histogram {
	return &metricHistogram{metrics.NewHistogram(metrics.NewUniformSample(1000))}
}

// Latency records durations. Time starts an independent stopwatch, so one
// Latency can be timed from many goroutines at once.
type Latency interface {
	Time() Stopwatch
	Record(time.Duration)
	Count() int64
}

type Stopwatch struct {
	latency Latency
	start   time.Time
}

// Stop records the time elapsed since the stopwatch started.
func (w Stopwatch) Stop() { w.latency.Record(Time.Since(w.start)) }

type metricLatency struct {
	metrics.Histogram
	precision time.Duration
}

func newLatency(precision time.Duration) Latency {
	return &metricLatency{metrics.NewHistogram(metrics.NewUniformSample(1000)), precision}
}

func (l *metricLatency) Time() Stopwatch        { return Stopwatch{l, Time.Now()} }
func (l *metricLatency) Record(d time.Duration) { l.Update(d.Nanoseconds()) }

// jsonStatsRegistry renders instruments as a flat name -> value document,
// expanding histograms into avg/count/max/min/sum and percentiles.
type jsonStatsRegistry struct {
	metrics.Registry
}

func NewJsonStatsRegistry() StatsRegistry {
	return &jsonStatsRegistry{metrics.NewRegistry()}
}

type jsonMap map[string]interface{}

func (r *jsonStatsRegistry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.MarshalAll())
}
func (r *jsonStatsRegistry) MarshalJSONPretty() ([]byte, error) {
	return json.MarshalIndent(r.MarshalAll(), "", "  ")
}
func (r *jsonStatsRegistry) MarshalAll() jsonMap {
	data := make(jsonMap)
	r.Each(func(name string, i interface{}) {
		switch stat := i.(type) {
		case *metricCounter:
			data[name] = stat.Count()
		case *metricGauge:
			data[name] = stat.Value()
		case *metricGaugeFloat:
			data[name] = stat.Value()
		case *metricHistogram:
			marshalHistogram(data, name, stat.Snapshot(), time.Nanosecond)
		case *metricLatency:
			marshalHistogram(data, name, stat.Snapshot(), stat.precision)
		default:
			log.Info("Unrecognized marshal instrument: ", name, i)
		}
	})
	return data
}

var defaultPercentiles = []float64{0.5, 0.9, 0.95, 0.99}
var defaultPercentileLabels = []string{"p50", "p90", "p95", "p99"}

func marshalHistogram(data jsonMap, name string, hist metrics.Histogram, precision time.Duration) {
	f64p := float64(precision)
	i64p := int64(precision)
	data[name+".avg"] = hist.Mean() / f64p
	data[name+".count"] = hist.Count()
	data[name+".max"] = hist.Max() / i64p
	data[name+".min"] = hist.Min() / i64p
	data[name+".sum"] = hist.Sum() / i64p

	for i, pctl := range hist.Percentiles(defaultPercentiles) {
		data[name+"."+defaultPercentileLabels[i]] = pctl / f64p
	}
}
