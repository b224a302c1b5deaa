package signal

import (
	"sort"

	"github.com/moveon/moveon-backend-go/internal/stats"
)

// Step cadence bounds. Human walking sits between 0.5 and 3 steps per second;
// the upper bound fixes the minimum sample spacing between counted peaks.
const (
	MinStepFreqHz = 0.5
	MaxStepFreqHz = 3.0
)

// ThresholdScale converts window standard deviation into the minimum peak
// height. A silent window has zero deviation and therefore yields no steps.
const ThresholdScale = 1.5

// flatWindowStdDev is the deviation below which a window counts as motionless.
// Filtering a constant window leaves arithmetic ripple many orders of
// magnitude under this floor, while real motion sits far above it.
const flatWindowStdDev = 1e-6

// CountSteps counts step candidates in a filtered magnitude window: local
// maxima above an adaptive threshold, spaced at least one maximum-cadence
// period apart. A window with no meaningful variation yields no steps.
func CountSteps(filtered []float64) int {
	sd := stats.PopStdDev(filtered)
	if sd < flatWindowStdDev {
		return 0
	}

	sampleRate := float64(SampleRate)
	minDist := int(sampleRate / MaxStepFreqHz)
	return len(FindPeaks(filtered, ThresholdScale*sd, minDist))
}

// FindPeaks returns indices of local maxima in x with height >= height,
// keeping only peaks separated by at least minDist samples. When two peaks are
// closer than minDist the taller one wins. Plateaus count once, at their
// midpoint.
func FindPeaks(x []float64, height float64, minDist int) []int {
	peaks := localMaxima(x)

	kept := peaks[:0]
	for _, p := range peaks {
		if x[p] >= height {
			kept = append(kept, p)
		}
	}
	peaks = kept

	if minDist > 1 && len(peaks) > 1 {
		peaks = enforceDistance(x, peaks, minDist)
	}
	return peaks
}

// localMaxima finds strict local maxima, treating a run of equal values with
// lower neighbours on both sides as a single peak at its midpoint.
func localMaxima(x []float64) []int {
	var peaks []int
	n := len(x)
	for i := 1; i < n-1; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < n-1 && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			peaks = append(peaks, (i+ahead-1)/2)
			i = ahead
		}
	}
	return peaks
}

// enforceDistance removes peaks closer than minDist to a taller neighbour.
// Peaks are visited tallest-first; each survivor suppresses everything within
// minDist on both sides.
func enforceDistance(x []float64, peaks []int, minDist int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return x[peaks[order[a]]] > x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for _, idx := range order {
		if !keep[idx] {
			continue
		}
		for k := idx - 1; k >= 0 && peaks[idx]-peaks[k] < minDist; k-- {
			keep[k] = false
		}
		for k := idx + 1; k < len(peaks) && peaks[k]-peaks[idx] < minDist; k++ {
			keep[k] = false
		}
	}

	var out []int
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}
