package transform

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func TestSplitConservesDistanceAndDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(1800 * time.Second)
	r := RawRoute{GPSID: "g1", TimestampStart: start, TimestampEnd: end, MeasuredDistance: 30000}
	sp := &SplitParams{AvgDistanceMeters: 8000, MaxDistanceMeters: 12000}

	rng := rand.New(rand.NewSource(42))
	children := Split(r, sp, rng)

	if len(children) != 4 {
		t.Fatalf("expected 4 children, got %d", len(children))
	}

	var totalDistance float64
	var totalDuration time.Duration
	for _, c := range children {
		totalDistance += c.MeasuredDistance
		totalDuration += c.TimestampEnd.Sub(c.TimestampStart)
	}

	if math.Abs(totalDistance-r.MeasuredDistance) > 1e-6 {
		t.Errorf("distance not conserved: got %f, want %f", totalDistance, r.MeasuredDistance)
	}
	if totalDuration != end.Sub(start) {
		t.Errorf("duration not conserved: got %s, want %s", totalDuration, end.Sub(start))
	}
	if !children[0].TimestampStart.Equal(start) {
		t.Errorf("first child does not start at original start")
	}
	if !children[len(children)-1].TimestampEnd.Equal(end) {
		t.Errorf("last child does not end at original end")
	}
}

func TestSplitNoOpBelowThreshold(t *testing.T) {
	r := RawRoute{GPSID: "g1", MeasuredDistance: 5000}
	sp := &SplitParams{AvgDistanceMeters: 8000, MaxDistanceMeters: 12000}
	rng := rand.New(rand.NewSource(1))

	children := Split(r, sp, rng)
	if len(children) != 1 {
		t.Fatalf("expected no split, got %d children", len(children))
	}
	if children[0] != r {
		t.Errorf("unsplit route was mutated")
	}
}

func TestSplitNilParams(t *testing.T) {
	r := RawRoute{GPSID: "g1", MeasuredDistance: 50000}
	rng := rand.New(rand.NewSource(1))
	children := Split(r, nil, rng)
	if len(children) != 1 {
		t.Fatalf("expected no split with nil params, got %d children", len(children))
	}
}
