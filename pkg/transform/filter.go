package transform

import "log"

// ApplyRangeFilters drops rows whose distance or duration falls outside
// the configured (min, max] ranges, per spec.md section 4.1.
func ApplyRangeFilters(routes []RawRoute, params Params, logger *log.Logger) []RawRoute {
	out := make([]RawRoute, 0, len(routes))
	for _, r := range routes {
		duration := r.DurationMinutes()
		if !inRangeExclusiveInclusive(r.MeasuredDistance, params.MinDistanceMeters, params.MaxDistanceMeters) {
			logger.Printf("dropping gps=%s: distance %.1f out of range (%.1f, %.1f]",
				r.GPSID, r.MeasuredDistance, params.MinDistanceMeters, params.MaxDistanceMeters)
			continue
		}
		if !inRangeExclusiveInclusive(duration, params.MinDurationMinutes, params.MaxDurationMinutes) {
			logger.Printf("dropping gps=%s: duration %.1f out of range (%.1f, %.1f]",
				r.GPSID, duration, params.MinDurationMinutes, params.MaxDurationMinutes)
			continue
		}
		out = append(out, r)
	}
	return out
}

func inRangeExclusiveInclusive(v, min, max float64) bool {
	return v > min && v <= max
}

// ApplyDistanceCeiling clamps each route's distance to
// (durationMinutes/60) * maxMetersPerHour, correcting implausible sensor
// readings without dropping the route.
func ApplyDistanceCeiling(routes []RawRoute, params Params) []RawRoute {
	out := make([]RawRoute, len(routes))
	for i, r := range routes {
		ceiling := (r.DurationMinutes() / 60) * params.MaxMetersPerHour
		if r.MeasuredDistance > ceiling {
			r.MeasuredDistance = ceiling
		}
		out[i] = r
	}
	return out
}
