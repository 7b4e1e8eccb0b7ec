package transform

import "time"

// RawRoute is one row after timestamp/numeric coercion but before any
// filtering, splitting, or ID/address assignment.
type RawRoute struct {
	GPSID            string
	TimestampStart   time.Time
	TimestampEnd     time.Time
	MeasuredDistance float64
	ExternalRouteKey string
}

// DurationMinutes returns end-start in minutes, as spec.md section 4.1
// defines duration for the range filters.
func (r RawRoute) DurationMinutes() float64 {
	return r.TimestampEnd.Sub(r.TimestampStart).Minutes()
}

// CanonicalRoute is the transform stage's output row, matching spec.md
// section 3's canonical route shape.
type CanonicalRoute struct {
	GPSID            string
	TimestampStart   time.Time
	TimestampEnd     time.Time
	MeasuredDistance int
	CeloAddress      string
	RouteID          uint64
}

// KnownUnassignedDevices is the set of device IDs intentionally unmapped to
// any contact (bench/test units), loaded from tribu_metadata.
type KnownUnassignedDevices struct {
	Devices []string `yaml:"devices"`
}

func (k KnownUnassignedDevices) set() map[string]bool {
	m := make(map[string]bool, len(k.Devices))
	for _, d := range k.Devices {
		m[d] = true
	}
	return m
}

// AddressMap is the GPS ID -> chain address map maintained by the Address
// Synchronizer and consumed here for address resolution.
type AddressMap map[string]string
