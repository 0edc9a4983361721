// Package telemetry collects outbound-request and store-operation counts for
// end-of-run summaries. Sinks observe only; nothing in the pipeline reads
// them back for control decisions.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"pushrelay/pkg/metrics"
)

// RateLimit carries the quota headers reported by an upstream API response.
type RateLimit struct {
	Resource  string
	Limit     int
	Remaining int
	Reset     time.Time
}

type Sink interface {
	ObserveRequest(host, method string, status int, duration time.Duration)
	ObserveStoreOp(operation string, duration time.Duration, err error)
	ObserveRateLimit(rl RateLimit)
}

type NopSink struct{}

func (NopSink) ObserveRequest(string, string, int, time.Duration) {}
func (NopSink) ObserveStoreOp(string, time.Duration, error)       {}
func (NopSink) ObserveRateLimit(RateLimit)                        {}

// PromSink forwards observations to the prometheus collectors.
type PromSink struct{}

func (PromSink) ObserveRequest(host, method string, status int, duration time.Duration) {
	statusLabel := "error"
	if status >= 200 && status < 300 {
		statusLabel = "ok"
	}
	metrics.OutboundRequestsTotal.WithLabelValues(host, method, statusLabel).Inc()
	metrics.OutboundRequestDuration.WithLabelValues(host, method).Observe(float64(duration.Milliseconds()))
}

func (PromSink) ObserveStoreOp(operation string, duration time.Duration, err error) {
	metrics.ObserveStoreOperation(operation, duration, err)
}

func (PromSink) ObserveRateLimit(rl RateLimit) {
	metrics.SetGitHubRateLimitRemaining(rl.Resource, rl.Remaining)
}

// RequestCount is one row of a Recorder snapshot.
type RequestCount struct {
	Host   string
	Method string
	Count  int
}

// Recorder accumulates counts in memory. The poller logs a snapshot at the
// end of each run and resets it, mirroring the request summary the service
// has always printed.
type Recorder struct {
	mu       sync.Mutex
	requests map[string]int
	storeOps map[string]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		requests: make(map[string]int),
		storeOps: make(map[string]int),
	}
}

func (r *Recorder) ObserveRequest(host, method string, status int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[host+"|"+method]++
}

func (r *Recorder) ObserveStoreOp(operation string, duration time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeOps[operation]++
}

func (r *Recorder) ObserveRateLimit(RateLimit) {}

func (r *Recorder) Requests() []RequestCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make([]RequestCount, 0, len(r.requests))
	for key, count := range r.requests {
		host, method := splitKey(key)
		counts = append(counts, RequestCount{Host: host, Method: method, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Host != counts[j].Host {
			return counts[i].Host < counts[j].Host
		}
		return counts[i].Method < counts[j].Method
	})
	return counts
}

func (r *Recorder) StoreOps() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := make(map[string]int, len(r.storeOps))
	for op, count := range r.storeOps {
		ops[op] = count
	}
	return ops
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = make(map[string]int)
	r.storeOps = make(map[string]int)
}

func splitKey(key string) (host, method string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}

// MultiSink fans out every observation to each child sink.
type MultiSink []Sink

func (m MultiSink) ObserveRequest(host, method string, status int, duration time.Duration) {
	for _, s := range m {
		s.ObserveRequest(host, method, status, duration)
	}
}

func (m MultiSink) ObserveStoreOp(operation string, duration time.Duration, err error) {
	for _, s := range m {
		s.ObserveStoreOp(operation, duration, err)
	}
}

func (m MultiSink) ObserveRateLimit(rl RateLimit) {
	for _, s := range m {
		s.ObserveRateLimit(rl)
	}
}
