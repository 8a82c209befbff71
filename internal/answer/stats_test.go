package answer

import (
	"testing"
	"time"
)

func TestCallStats_SnapshotAggregates(t *testing.T) {
	s := NewCallStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		s.Record(time.Duration(ms)*time.Millisecond, false)
	}
	s.Record(250*time.Millisecond, true)

	snap := s.Snapshot()
	if snap.Count != 6 {
		t.Errorf("expected count 6, got %d", snap.Count)
	}
	if snap.Failures != 1 {
		t.Errorf("expected 1 failure, got %d", snap.Failures)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min 100 max 500, got min %d max %d", snap.MinMs, snap.MaxMs)
	}
}

func TestCallStats_Percentiles(t *testing.T) {
	s := NewCallStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		s.Record(time.Duration(ms)*time.Millisecond, false)
	}

	snap := s.Snapshot()
	if snap.AvgMs != 300 {
		t.Errorf("expected avg 300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Errorf("expected p50 300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Errorf("expected p95 480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Errorf("expected p99 496, got %f", snap.P99Ms)
	}
}

func TestCallStats_PrunesOldSamples(t *testing.T) {
	s := NewCallStats(10 * time.Millisecond)
	s.Record(100*time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := s.Snapshot(); snap.Count != 0 {
		t.Errorf("expected pruned window, got count %d", snap.Count)
	}
}

func TestCallStats_FailuresPruneWithWindow(t *testing.T) {
	s := NewCallStats(10 * time.Millisecond)
	s.Record(100*time.Millisecond, true)
	time.Sleep(25 * time.Millisecond)
	s.Record(50*time.Millisecond, false)

	snap := s.Snapshot()
	if snap.Count != 1 {
		t.Fatalf("expected 1 sample in window, got %d", snap.Count)
	}
	if snap.Failures != 0 {
		t.Errorf("expected failure outside window to be pruned, got %d", snap.Failures)
	}
}

func TestCallStats_EmptySnapshot(t *testing.T) {
	snap := NewCallStats(time.Hour).Snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.AvgMs != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
