package transform

import (
	"math"
	"math/rand"
	"time"
)

// Split expands a route whose distance exceeds sp.MaxDistanceMeters into
// k = ceil(distance / avgDistance) children, per spec.md section 4.1's
// "route splitting" algorithm. Duration is partitioned proportionally with
// a bounded multiplicative jitter in [0.8, 1.2], normalized so the
// children's durations sum exactly to the original duration; distance per
// child is its time-share of the original distance. Returns the route
// unchanged (as its sole element) if it does not need splitting.
//
// Conservation (spec.md section 8): sum(child.distance) == route.distance,
// sum(child.duration) == route.duration, children[0].start == route.start,
// children[k-1].end == route.end.
func Split(r RawRoute, sp *SplitParams, rng *rand.Rand) []RawRoute {
	if sp == nil || r.MeasuredDistance <= sp.MaxDistanceMeters || sp.AvgDistanceMeters <= 0 {
		return []RawRoute{r}
	}

	k := int(math.Ceil(r.MeasuredDistance / sp.AvgDistanceMeters))
	if k < 1 {
		k = 1
	}

	totalDuration := r.TimestampEnd.Sub(r.TimestampStart)
	weights := make([]float64, k)
	var weightSum float64
	for i := range weights {
		jitter := 0.8 + rng.Float64()*0.4 // uniform in [0.8, 1.2]
		weights[i] = jitter
		weightSum += jitter
	}

	children := make([]RawRoute, k)
	cursor := r.TimestampStart
	var distanceAccumulated float64

	for i := 0; i < k; i++ {
		share := weights[i] / weightSum
		segmentDuration := time.Duration(float64(totalDuration) * share)

		var segmentEnd time.Time
		if i == k-1 {
			// Final child ends exactly at the original end, absorbing any
			// rounding drift from the float64 duration math above.
			segmentEnd = r.TimestampEnd
		} else {
			segmentEnd = cursor.Add(segmentDuration)
		}

		var segmentDistance float64
		if i == k-1 {
			segmentDistance = r.MeasuredDistance - distanceAccumulated
		} else {
			segmentDistance = r.MeasuredDistance * share
			distanceAccumulated += segmentDistance
		}

		children[i] = RawRoute{
			GPSID:            r.GPSID,
			TimestampStart:   cursor,
			TimestampEnd:     segmentEnd,
			MeasuredDistance: segmentDistance,
			ExternalRouteKey: r.ExternalRouteKey,
		}
		cursor = segmentEnd
	}

	return children
}
