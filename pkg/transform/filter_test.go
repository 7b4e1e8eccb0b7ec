package transform

import (
	"log"
	"testing"
	"time"
)

func TestApplyDistanceCeilingClamps(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := RawRoute{
		GPSID:            "g1",
		TimestampStart:   start,
		TimestampEnd:     start.Add(time.Hour),
		MeasuredDistance: 30000,
	}
	params := Params{MaxMetersPerHour: 25000}

	out := ApplyDistanceCeiling([]RawRoute{r}, params)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].MeasuredDistance != 25000 {
		t.Errorf("expected distance clamped to 25000, got %f", out[0].MeasuredDistance)
	}
}

func TestApplyDistanceCeilingLeavesPlausibleDistanceAlone(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	r := RawRoute{
		GPSID:            "g1",
		TimestampStart:   start,
		TimestampEnd:     start.Add(time.Hour),
		MeasuredDistance: 10000,
	}
	params := Params{MaxMetersPerHour: 25000}

	out := ApplyDistanceCeiling([]RawRoute{r}, params)
	if out[0].MeasuredDistance != 10000 {
		t.Errorf("expected distance unchanged at 10000, got %f", out[0].MeasuredDistance)
	}
}

func TestApplyRangeFiltersDropsOutOfRange(t *testing.T) {
	start := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	params := Params{
		MinDistanceMeters:  100,
		MaxDistanceMeters:  50000,
		MinDurationMinutes: 1,
		MaxDurationMinutes: 600,
	}
	routes := []RawRoute{
		{GPSID: "ok", TimestampStart: start, TimestampEnd: start.Add(30 * time.Minute), MeasuredDistance: 5000},
		{GPSID: "too-short-distance", TimestampStart: start, TimestampEnd: start.Add(30 * time.Minute), MeasuredDistance: 50},
		{GPSID: "too-long-duration", TimestampStart: start, TimestampEnd: start.Add(700 * time.Minute), MeasuredDistance: 5000},
	}

	logger := log.New(log.Writer(), "", 0)
	out := ApplyRangeFilters(routes, params, logger)
	if len(out) != 1 || out[0].GPSID != "ok" {
		t.Fatalf("expected only 'ok' to survive, got %+v", out)
	}
}
