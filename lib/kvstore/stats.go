package kvstore

import (
	"fmt"
	"io"

	vm "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

type op string

const (
	opSet    op = "set"
	opGet    op = "get"
	opRemove op = "remove"
	opClear  op = "clear"
)

var allOps = []op{opSet, opGet, opRemove, opClear}

// sizeSampleSize is the reservoir size of the value size histogram.
const sizeSampleSize = 1028

// Stats is a snapshot of the store's operation counters.
type Stats struct {
	Ops            map[string]uint64 `json:"ops" yaml:"ops"`
	Failures       map[string]uint64 `json:"failures" yaml:"failures"`
	ExternalEvents uint64            `json:"external_events" yaml:"external_events"`
	ValueSize      SizeStats         `json:"value_size" yaml:"value_size"`
}

// SizeStats describes the distribution of persisted value sizes in bytes.
type SizeStats struct {
	Count int64   `json:"count" yaml:"count"`
	Min   int64   `json:"min" yaml:"min"`
	Max   int64   `json:"max" yaml:"max"`
	Mean  float64 `json:"mean" yaml:"mean"`
	P50   float64 `json:"p50" yaml:"p50"`
	P99   float64 `json:"p99" yaml:"p99"`
}

// statistics keeps the counters of one store in its own metric set, so
// several stores in a process (and tests) do not share counters.
type statistics struct {
	set   *vm.Set
	sizes gometrics.Histogram
}

func newStatistics() *statistics {
	return &statistics{
		set:   vm.NewSet(),
		sizes: gometrics.NewHistogram(gometrics.NewExpDecaySample(sizeSampleSize, 0.015)),
	}
}

func (s *statistics) success(o op) {
	s.set.GetOrCreateCounter(fmt.Sprintf(`rkv_kvstore_ops_total{op=%q}`, o)).Inc()
}

func (s *statistics) failure(o op) {
	s.set.GetOrCreateCounter(fmt.Sprintf(`rkv_kvstore_failures_total{op=%q}`, o)).Inc()
}

func (s *statistics) external() {
	s.set.GetOrCreateCounter(`rkv_kvstore_external_events_total`).Inc()
}

func (s *statistics) valueSize(n int) {
	s.sizes.Update(int64(n))
}

func (s *statistics) snapshot() Stats {
	stats := Stats{
		Ops:            make(map[string]uint64, len(allOps)),
		Failures:       make(map[string]uint64, len(allOps)),
		ExternalEvents: s.set.GetOrCreateCounter(`rkv_kvstore_external_events_total`).Get(),
	}
	for _, o := range allOps {
		stats.Ops[string(o)] = s.set.GetOrCreateCounter(fmt.Sprintf(`rkv_kvstore_ops_total{op=%q}`, o)).Get()
		stats.Failures[string(o)] = s.set.GetOrCreateCounter(fmt.Sprintf(`rkv_kvstore_failures_total{op=%q}`, o)).Get()
	}

	h := s.sizes.Snapshot()
	stats.ValueSize = SizeStats{
		Count: h.Count(),
		Min:   h.Min(),
		Max:   h.Max(),
		Mean:  h.Mean(),
		P50:   h.Percentile(0.5),
		P99:   h.Percentile(0.99),
	}
	return stats
}

// Stats returns a snapshot of the operation counters.
func (s *Store) Stats() Stats {
	return s.stats.snapshot()
}

// WriteMetrics writes all counters of the store in Prometheus text format.
func (s *Store) WriteMetrics(w io.Writer) {
	s.stats.set.WritePrometheus(w)

	h := s.stats.sizes.Snapshot()
	fmt.Fprintf(w, "rkv_kvstore_value_size_bytes_count %d\n", h.Count())
	fmt.Fprintf(w, "rkv_kvstore_value_size_bytes_sum %d\n", h.Sum())
	for _, q := range []float64{0.5, 0.9, 0.99} {
		fmt.Fprintf(w, "rkv_kvstore_value_size_bytes{quantile=\"%g\"} %g\n", q, h.Percentile(q))
	}
}
