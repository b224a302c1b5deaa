package signal

// GravityMps2 is subtracted from raw magnitudes before integration; a resting
// accelerometer reports ~1 g regardless of motion.
const GravityMps2 = 9.81

// FallbackSpeed approximates walking speed in m/s from the magnitude window
// when no usable GPS speed is available: gravity-adjusted magnitudes (floored
// at zero) integrated over the sample interval and averaged across the window.
func FallbackSpeed(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	dt := 1.0 / SampleRate
	var sum float64
	for _, m := range window {
		if m > GravityMps2 {
			sum += m - GravityMps2
		}
	}
	return sum * dt / float64(len(window))
}
