package otel

import (
	"context"
	"sync"
	"testing"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot recipeAuth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() recipeAuth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := recipeAuth.MetricsSnapshot{
		Counters:   make(map[recipeAuth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[recipeAuth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findInt64(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{
		snapshot: recipeAuth.MetricsSnapshot{
			Counters: map[recipeAuth.MetricID]uint64{
				recipeAuth.MetricLoginSuccess:     3,
				recipeAuth.MetricLockoutTriggered: 1,
			},
			Histograms: map[recipeAuth.MetricID][]uint64{
				recipeAuth.MetricValidateLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewFromSource(provider.Meter("recipeauth-test"), src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	want := map[string]int64{
		"recipeauth_login_success_total":                      3,
		"recipeauth_lockout_triggered_total":                  1,
		"recipeauth_validate_latency_seconds_bucket_le_0_005": 1,
		"recipeauth_validate_latency_seconds_bucket_le_inf":   8,
		"recipeauth_validate_latency_seconds_count":           8,
		"recipeauth_audit_dropped_total":                      1,
	}
	for name, value := range want {
		got, ok := findInt64(rm, name)
		if !ok || got != value {
			t.Fatalf("%s = %d (found %v), want %d", name, got, ok, value)
		}
	}
	if _, ok := findInt64(rm, "recipeauth_login_latency_seconds_count"); ok {
		t.Fatal("histograms absent from the snapshot are not observed")
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()

	if _, err := NewFromSource(provider.Meter("recipeauth-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := New(provider.Meter("recipeauth-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newReader()
	src := &fakeSource{
		snapshot: recipeAuth.MetricsSnapshot{
			Counters:   map[recipeAuth.MetricID]uint64{recipeAuth.MetricLoginSuccess: 1},
			Histograms: map[recipeAuth.MetricID][]uint64{recipeAuth.MetricValidateLatency: {1, 0, 0, 0, 0, 0, 0, 0}},
		},
	}

	exp, err := NewFromSource(provider.Meter("recipeauth-test"), src)
	if err != nil {
		t.Fatalf("NewFromSource failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[recipeAuth.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()

	if err := exp.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
