// Package benchmark measures per-call latency of the hashing primitives.
package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"pearson-go/pkg/frame"
	"pearson-go/pkg/log"
	"pearson-go/pkg/pearson"

	"github.com/dustin/go-humanize"
)

// LatencyResults holds the results of a latency benchmark
type LatencyResults struct {
	MinLatency    time.Duration
	MaxLatency    time.Duration
	AvgLatency    time.Duration
	MedianLatency time.Duration
	P95Latency    time.Duration
	P99Latency    time.Duration
	Iterations    int
	Failures      int
	TotalTime     time.Duration
	MessageSize   int
	Component     Component
}

// Throughput returns the bytes hashed per second over the whole run.
func (r *LatencyResults) Throughput() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.MessageSize) * float64(r.Iterations-r.Failures) / r.TotalTime.Seconds()
}

// Component specifies which primitive to benchmark
type Component int

const (
	ComponentHash8 Component = iota
	ComponentHash64
	ComponentFrame // Seal followed by Open
)

func (c Component) String() string {
	switch c {
	case ComponentHash8:
		return "hash8"
	case ComponentHash64:
		return "hash64"
	case ComponentFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// ParseComponent is the inverse of Component.String.
func ParseComponent(s string) (Component, error) {
	for _, c := range Components() {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown component: %s", s)
}

// Components lists every benchmarkable component.
func Components() []Component {
	return []Component{ComponentHash8, ComponentHash64, ComponentFrame}
}

// Options provides configuration for benchmarks
type Options struct {
	Component   Component
	Iterations  int
	MessageSize int
}

func DefaultOptions() *Options {
	return &Options{
		Component:   ComponentHash64,
		Iterations:  10000,
		MessageSize: 64,
	}
}

// Run measures the latency of a single component.
func Run(opts *Options) (*LatencyResults, error) {
	if opts.Iterations <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", opts.Iterations)
	}
	if opts.MessageSize <= 0 {
		return nil, fmt.Errorf("message size must be positive, got %d", opts.MessageSize)
	}

	msg := make([]byte, opts.MessageSize)
	for i := range msg {
		msg[i] = byte(i % 256)
	}

	var op func() error
	switch opts.Component {
	case ComponentHash8:
		op = func() error { pearson.Hash(msg); return nil }
	case ComponentHash64:
		op = func() error { _, err := pearson.Hash64(msg); return err }
	case ComponentFrame:
		op = func() error { _, _, err := frame.Open(frame.Seal(msg, 0)); return err }
	default:
		return nil, fmt.Errorf("unknown component: %d", opts.Component)
	}

	latencies := make([]time.Duration, 0, opts.Iterations)
	failures := 0
	start := time.Now()
	for i := 0; i < opts.Iterations; i++ {
		iterStart := time.Now()
		if err := op(); err != nil {
			failures++
			log.Warn().Err(err).Stringer("component", opts.Component).Msg("benchmark: iteration failed")
			continue
		}
		latencies = append(latencies, time.Since(iterStart))
	}

	results := calculateStats(latencies, opts.Iterations, time.Since(start))
	results.Failures = failures
	results.MessageSize = opts.MessageSize
	results.Component = opts.Component
	return results, nil
}

func calculateStats(latencies []time.Duration, iterations int, totalTime time.Duration) *LatencyResults {
	if len(latencies) == 0 {
		return &LatencyResults{Iterations: iterations, TotalTime: totalTime}
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	n := len(latencies)
	return &LatencyResults{
		MinLatency:    latencies[0],
		MaxLatency:    latencies[n-1],
		AvgLatency:    sum / time.Duration(n),
		MedianLatency: latencies[n/2],
		P95Latency:    latencies[(n*95)/100],
		P99Latency:    latencies[(n*99)/100],
		Iterations:    iterations,
		TotalTime:     totalTime,
	}
}

// RunAll runs every component with the given options.
func RunAll(base *Options) ([]*LatencyResults, error) {
	var results []*LatencyResults
	for _, c := range Components() {
		opts := *base
		opts.Component = c
		r, err := Run(&opts)
		if err != nil {
			return results, fmt.Errorf("%s: %w", c, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// PrintResults writes a human-readable summary of r to w.
func PrintResults(w io.Writer, r *LatencyResults) {
	fmt.Fprintf(w, "=== Latency Benchmark: %s ===\n", r.Component)
	fmt.Fprintf(w, "Message Size: %s\n", humanize.IBytes(uint64(r.MessageSize)))
	fmt.Fprintf(w, "Iterations: %s (%d failed)\n", humanize.Comma(int64(r.Iterations)), r.Failures)
	fmt.Fprintf(w, "Total Time: %v\n", r.TotalTime)
	fmt.Fprintf(w, "Throughput: %s/s\n", humanize.IBytes(uint64(r.Throughput())))
	fmt.Fprintf(w, "Min Latency: %v\n", r.MinLatency)
	fmt.Fprintf(w, "Avg Latency: %v\n", r.AvgLatency)
	fmt.Fprintf(w, "Median Latency: %v\n", r.MedianLatency)
	fmt.Fprintf(w, "95th Percentile: %v\n", r.P95Latency)
	fmt.Fprintf(w, "99th Percentile: %v\n", r.P99Latency)
	fmt.Fprintf(w, "Max Latency: %v\n", r.MaxLatency)
	fmt.Fprintln(w, "==========================================")
}

var csvHeader = []string{
	"Component", "MessageSize", "Iterations", "Failures", "MinLatency", "AvgLatency",
	"MedianLatency", "P95Latency", "P99Latency", "MaxLatency", "TotalTime",
}

// WriteCSV writes results as CSV, durations in nanoseconds.
func WriteCSV(w io.Writer, results []*LatencyResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	ns := func(d time.Duration) string { return strconv.FormatInt(d.Nanoseconds(), 10) }
	for _, r := range results {
		rec := []string{
			r.Component.String(),
			strconv.Itoa(r.MessageSize),
			strconv.Itoa(r.Iterations),
			strconv.Itoa(r.Failures),
			ns(r.MinLatency), ns(r.AvgLatency), ns(r.MedianLatency),
			ns(r.P95Latency), ns(r.P99Latency), ns(r.MaxLatency), ns(r.TotalTime),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveResultsToFile saves benchmark results to a CSV file
func SaveResultsToFile(results []*LatencyResults, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
