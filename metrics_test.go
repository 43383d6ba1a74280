package recipeAuth

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsInert(t *testing.T) {
	m := NewMetrics(MetricsConfig{})
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricValidateLatency, time.Millisecond)

	if m.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	if s := m.Snapshot(); len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("disabled snapshot should be empty: %+v", s)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics reports disabled")
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricLoginFailure)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricLoginFailure]; got != 8000 {
		t.Fatalf("counter = %d, want 8000", got)
	}
}

func TestMetricsHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricValidateLatency, 3*time.Millisecond)
	m.Observe(MetricValidateLatency, 30*time.Millisecond)
	m.Observe(MetricLoginLatency, 2*time.Second)
	m.Observe(MetricLoginSuccess, time.Millisecond)

	s := m.Snapshot()
	validate := s.Histograms[MetricValidateLatency]
	if len(validate) != histBucketCount || validate[0] != 1 || validate[3] != 1 {
		t.Fatalf("validate buckets = %v", validate)
	}
	if login := s.Histograms[MetricLoginLatency]; login[histBucketCount-1] != 1 {
		t.Fatalf("login buckets = %v", login)
	}
	if _, ok := s.Counters[MetricValidateLatency]; ok {
		t.Fatal("histogram ids must not appear as counters")
	}
}
