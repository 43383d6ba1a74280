package recipeAuth

import (
	"sort"
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter or histogram.
type MetricID uint16

// Metric identifiers. Counters come first; the last two are latency histograms.
const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricLoginAccountNotUsable
	MetricLockoutTriggered
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRevokedTokenRejected
	MetricLogout
	MetricRegisterSuccess
	MetricRegisterDuplicate
	MetricRegisterInvalid
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricPasswordRehashed
	MetricPasswordResetRequest
	MetricPasswordResetConfirmSuccess
	MetricPasswordResetConfirmFailure
	MetricEmailVerificationRequest
	MetricEmailVerificationSuccess
	MetricEmailVerificationFailure
	MetricAccountLocked
	MetricAccountUnlocked
	MetricLoginLatency
	MetricValidateLatency
	metricIDCount
)

// HistogramBoundsMillis are the inclusive upper bounds of every latency
// bucket except the last, which is unbounded.
var HistogramBoundsMillis = [...]int64{5, 10, 25, 50, 100, 250, 500}

const histBucketCount = len(HistogramBoundsMillis) + 1

// latencyIDs lists the histogram metrics in slot order.
var latencyIDs = [...]MetricID{MetricLoginLatency, MetricValidateLatency}

// counterCell keeps each counter on its own cache line so hot login and
// validate counters do not contend.
type counterCell struct {
	atomic.Uint64
	_ [56]byte
}

type latencyHistogram [histBucketCount]atomic.Uint64

// Metrics holds lock-free counters and fixed-bucket latency histograms. A nil
// *Metrics ignores every call.
type Metrics struct {
	counting bool
	timing   bool
	counters [metricIDCount]counterCell
	latency  [len(latencyIDs)]latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of all metric values. Histogram
// slices hold non-cumulative bucket counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics allocates counters according to cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		counting: cfg.Enabled,
		timing:   cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool        { return m != nil && m.counting }
// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool { return m != nil && m.timing }

// Inc adds one to a counter. Histogram IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || latencySlot(id) >= 0 {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in a latency histogram. Counter IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() {
		return
	}
	if slot := latencySlot(id); slot >= 0 {
		m.latency[slot][bucketFor(d)].Add(1)
	}
}

// Value returns the current value of a counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter and, when latency is enabled, every
// histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if latencySlot(id) < 0 {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.timing {
		for slot, id := range latencyIDs {
			buckets := make([]uint64, histBucketCount)
			for i := range buckets {
				buckets[i] = m.latency[slot][i].Load()
			}
			s.Histograms[id] = buckets
		}
	}
	return s
}

func latencySlot(id MetricID) int {
	for slot, candidate := range latencyIDs {
		if candidate == id {
			return slot
		}
	}
	return -1
}

func bucketFor(d time.Duration) int {
	ms := d.Milliseconds()
	return sort.Search(len(HistogramBoundsMillis), func(i int) bool {
		return ms <= HistogramBoundsMillis[i]
	})
}
