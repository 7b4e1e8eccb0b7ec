package scoring

import "testing"

func TestQuartileScoreEmptyPopulationReturnsLowest(t *testing.T) {
	if got := QuartileScore(nil, 500); got != 250 {
		t.Errorf("expected lowest quartile score for empty population, got %v", got)
	}
}

func TestQuartileScoreDistributesAcrossAllFourBuckets(t *testing.T) {
	population := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	seen := map[float64]bool{}
	for _, v := range population {
		seen[QuartileScore(population, v)] = true
	}
	for _, want := range []float64{250, 500, 750, 1000} {
		if !seen[want] {
			t.Errorf("expected quartile score %v to be reachable, got buckets %v", want, seen)
		}
	}
}

func TestQuartileScoreMonotonic(t *testing.T) {
	population := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	prev := QuartileScore(population, 0)
	for _, v := range population {
		cur := QuartileScore(population, v)
		if cur < prev {
			t.Errorf("quartile score regressed at value %v: %v < %v", v, cur, prev)
		}
		prev = cur
	}
}
