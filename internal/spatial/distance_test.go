package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistanceZero(t *testing.T) {
	if d := HaversineDistance(55.75, 37.61, 55.75, 37.61); d != 0 {
		t.Errorf("got %g for identical points, want 0", d)
	}
}

func TestHaversineDistanceEquatorDegree(t *testing.T) {
	// 0.001 degrees of longitude on the equator is ~111.19 meters.
	d := HaversineDistance(0, 0, 0, 0.001)
	want := EarthRadiusMeters * 0.001 * math.Pi / 180
	if math.Abs(d-want) > 0.5 {
		t.Errorf("got %g, want ~%g", d, want)
	}
}

func TestHaversineDistanceSymmetric(t *testing.T) {
	d1 := HaversineDistance(55.75, 37.61, 59.93, 30.33)
	d2 := HaversineDistance(59.93, 30.33, 55.75, 37.61)
	if math.Abs(d1-d2) > 1e-6 {
		t.Errorf("asymmetric: %g vs %g", d1, d2)
	}

	// Moscow to Saint Petersburg is roughly 635 km.
	if d1 < 600000 || d1 > 670000 {
		t.Errorf("got %g m, want ~635 km", d1)
	}
}

func TestHaversineDistanceShortStep(t *testing.T) {
	// A typical walking-pace GPS delta lands inside the (2, 50) m
	// plausibility band used by the session engine.
	d := HaversineDistance(55.7500, 37.6100, 55.7500, 37.6101)
	if d < 2 || d > 50 {
		t.Errorf("got %g m, want a plausible walking delta", d)
	}
}
