package signal

import (
	"math"
	"testing"
)

func TestFindPeaksBasic(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0}
	peaks := FindPeaks(x, 0.5, 1)

	if len(peaks) != 2 || peaks[0] != 1 || peaks[1] != 3 {
		t.Errorf("got peaks %v, want [1 3]", peaks)
	}
}

func TestFindPeaksHeightFilter(t *testing.T) {
	x := []float64{0, 1, 0, 2, 0}
	peaks := FindPeaks(x, 1.5, 1)

	if len(peaks) != 1 || peaks[0] != 3 {
		t.Errorf("got peaks %v, want [3]", peaks)
	}
}

func TestFindPeaksPlateau(t *testing.T) {
	// A flat top counts once, at its midpoint.
	x := []float64{0, 1, 1, 1, 0}
	peaks := FindPeaks(x, 0, 1)

	if len(peaks) != 1 || peaks[0] != 2 {
		t.Errorf("got peaks %v, want [2]", peaks)
	}
}

func TestFindPeaksEndpointsExcluded(t *testing.T) {
	x := []float64{5, 1, 0, 3, 1}
	if peaks := FindPeaks(x, 0, 1); len(peaks) != 1 || peaks[0] != 3 {
		t.Errorf("got peaks %v, want only the interior maximum [3]", peaks)
	}
}

func TestFindPeaksDistanceKeepsTaller(t *testing.T) {
	x := make([]float64, 30)
	x[5] = 2.0  // taller
	x[10] = 1.0 // within 8 samples of the taller peak
	x[25] = 1.5 // far enough away

	peaks := FindPeaks(x, 0.5, 8)
	if len(peaks) != 2 || peaks[0] != 5 || peaks[1] != 25 {
		t.Errorf("got peaks %v, want [5 25]", peaks)
	}
}

func TestCountStepsConstantWindow(t *testing.T) {
	// Filtering a constant window leaves tiny arithmetic ripple; none of it
	// may register as motion, whatever the resting magnitude.
	for _, level := range []float64{0, 9.81, 123.456} {
		window := make([]float64, 100)
		for i := range window {
			window[i] = level
		}

		if got := CountSteps(LowPass(window)); got != 0 {
			t.Errorf("got %d steps on a constant window at %g, want 0", got, level)
		}
	}
}

func TestCountStepsCadenceCeiling(t *testing.T) {
	// An extra impact 12 samples after the second one is faster than the
	// 3 Hz cadence ceiling and must not add a step.
	window := bumpTrain(100, []int{12, 37, 62, 87}, 3.0, 4.0)
	for i := range window {
		d := float64(i - 49)
		window[i] += 2.9 * math.Exp(-d*d/(2*3.0*3.0))
	}

	if got := CountSteps(LowPass(window)); got != 4 {
		t.Errorf("got %d steps, want 4", got)
	}
}

// bumpTrain builds a walking-like magnitude window: a gravity baseline with
// Gaussian impact bumps at the given centers.
func bumpTrain(n int, centers []int, amp, width float64) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 9.81
		for _, c := range centers {
			d := float64(i - c)
			w[i] += amp * math.Exp(-d*d/(2*width*width))
		}
	}
	return w
}

func TestCountStepsBumpTrain(t *testing.T) {
	window := bumpTrain(100, []int{12, 37, 62, 87}, 3.0, 4.0)

	if got := CountSteps(LowPass(window)); got != 4 {
		t.Errorf("got %d steps, want 4", got)
	}
}

func TestPipelineIdempotent(t *testing.T) {
	window := bumpTrain(100, []int{12, 37, 62, 87}, 3.0, 4.0)

	first := CountSteps(LowPass(window))
	second := CountSteps(LowPass(window))
	if first != second {
		t.Errorf("recount differs: %d then %d", first, second)
	}
}
