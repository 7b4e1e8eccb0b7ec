package publisher

import "testing"

func TestColumnIndexFallsBackToExpectedOrderWhenHeaderShorter(t *testing.T) {
	idx := columnIndex([]string{"a", "b"}, canonicalColumns)
	if len(idx) != len(canonicalColumns) {
		t.Fatalf("expected fallback to the full expected schema, got %d columns", len(idx))
	}
	if idx["routeID"] != 5 {
		t.Errorf("expected routeID at index 5 in the fallback schema, got %d", idx["routeID"])
	}
}

func TestColumnIndexUsesActualHeaderWhenComplete(t *testing.T) {
	header := []string{"routeID", "gpsID", "timestampStart", "timestampEnd", "measuredDistance", "celoAddress"}
	idx := columnIndex(header, canonicalColumns)
	if idx["routeID"] != 0 {
		t.Errorf("expected routeID at index 0 from the actual header, got %d", idx["routeID"])
	}
}

func TestParseTimestampUnixRejectsMalformed(t *testing.T) {
	if _, err := parseTimestampUnix("not-a-timestamp"); err == nil {
		t.Fatal("expected an error for a malformed timestamp")
	}
}

func TestParseTimestampUnixParsesRFC3339(t *testing.T) {
	got, err := parseTimestampUnix("2026-01-01T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1767225600 {
		t.Errorf("unexpected unix timestamp: %d", got)
	}
}
