package signal

import (
	"math"
	"math/cmplx"
)

// Filter parameters for the accelerometer stream. Clients sample at ~50 Hz;
// anything above 3 Hz is sensor noise rather than gait.
const (
	SampleRate  = 50.0
	CutoffHz    = 3.0
	FilterOrder = 4
)

var lowpassB, lowpassA = butterworthLowpass(FilterOrder, CutoffHz, SampleRate)

// LowPass applies a zero-phase 4th-order Butterworth low-pass filter to the
// magnitude window. Forward-backward filtering keeps peak positions unshifted,
// so step timing survives smoothing. Windows too short for the edge extension
// are returned as-is.
func LowPass(window []float64) []float64 {
	return filtfilt(lowpassB, lowpassA, window)
}

// butterworthLowpass designs digital low-pass coefficients via the bilinear
// transform of the analog Butterworth prototype. cutoff and sampleRate are in
// Hz. Returned slices have length order+1, a[0] == 1.
func butterworthLowpass(order int, cutoff, sampleRate float64) (b, a []float64) {
	// Normalized cutoff in (0, 1), pre-warped for the bilinear transform
	// at the internal sampling rate fs = 2.
	wn := cutoff / (sampleRate / 2)
	warped := 4 * math.Tan(math.Pi*wn/2)
	const fs2 = 4.0 // 2 * fs

	// Analog prototype poles on the unit circle, left half-plane, scaled to
	// the warped cutoff.
	poles := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+1-order) / float64(2*order)
		poles[k] = -cmplx.Exp(complex(0, theta)) * complex(warped, 0)
	}
	gain := math.Pow(warped, float64(order))

	// Bilinear transform: poles map to (fs2+p)/(fs2-p), the order zeros at
	// infinity map to z = -1.
	zPoles := make([]complex128, order)
	denom := complex(1, 0)
	for k, p := range poles {
		zPoles[k] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		denom *= complex(fs2, 0) - p
	}
	zGain := gain * real(complex(1, 0)/denom)

	zZeros := make([]complex128, order)
	for k := range zZeros {
		zZeros[k] = complex(-1, 0)
	}

	b = realPoly(zZeros)
	for i := range b {
		b[i] *= zGain
	}
	a = realPoly(zPoles)

	// Normalize so a[0] == 1.
	a0 := a[0]
	for i := range b {
		b[i] /= a0
	}
	for i := range a {
		a[i] /= a0
	}
	return b, a
}

// realPoly expands a polynomial from its roots and drops the vanishing
// imaginary parts (roots arrive in conjugate pairs).
func realPoly(roots []complex128) []float64 {
	poly := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(poly)+1)
		for i, c := range poly {
			next[i] += c
			next[i+1] -= c * r
		}
		poly = next
	}
	out := make([]float64, len(poly))
	for i, c := range poly {
		out[i] = real(c)
	}
	return out
}

// filtfilt runs the filter forward and backward over x with odd-symmetric edge
// extension and steady-state initial conditions, eliminating phase distortion.
// Inputs shorter than the extension are returned unchanged (copied).
func filtfilt(b, a, x []float64) []float64 {
	padlen := 3 * maxInt(len(a), len(b))
	n := len(x)
	if n <= padlen {
		out := make([]float64, n)
		copy(out, x)
		return out
	}

	// Odd extension mirrors the signal about its endpoints, suppressing edge
	// transients.
	ext := make([]float64, padlen+n+padlen)
	for i := 0; i < padlen; i++ {
		ext[i] = 2*x[0] - x[padlen-i]
		ext[padlen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padlen:], x)

	zi := steadyStateInit(b, a)

	y := applyIIR(b, a, ext, scaled(zi, ext[0]))
	reverse(y)
	y = applyIIR(b, a, y, scaled(zi, y[0]))
	reverse(y)

	return y[padlen : padlen+n]
}

// applyIIR is a direct-form II transposed IIR filter with initial state zi.
// Assumes a[0] == 1 and len(a) == len(b).
func applyIIR(b, a, x, zi []float64) []float64 {
	m := len(a) - 1
	z := make([]float64, m)
	copy(z, zi)

	y := make([]float64, len(x))
	for i, v := range x {
		out := b[0]*v + z[0]
		for j := 0; j < m-1; j++ {
			z[j] = b[j+1]*v + z[j+1] - a[j+1]*out
		}
		z[m-1] = b[m]*v - a[m]*out
		y[i] = out
	}
	return y
}

// steadyStateInit computes the filter state that makes the step response start
// in steady state, so a constant input passes through without a transient.
// Solves (I - companion(a)^T) zi = b[1:] - a[1:]*b[0].
func steadyStateInit(b, a []float64) []float64 {
	m := len(a) - 1

	mat := make([][]float64, m)
	rhs := make([]float64, m)
	for i := 0; i < m; i++ {
		mat[i] = make([]float64, m)
		// Column 0 of I - companion^T.
		mat[i][0] = a[i+1]
		if i == 0 {
			mat[i][0]++
		}
		// Remaining columns: identity minus the shifted-identity part of the
		// transposed companion matrix.
		for j := 1; j < m; j++ {
			if i == j {
				mat[i][j] = 1
			}
			if i == j-1 {
				mat[i][j] -= 1
			}
		}
		rhs[i] = b[i+1] - a[i+1]*b[0]
	}

	return solveLinear(mat, rhs)
}

// solveLinear solves mat * x = rhs by Gaussian elimination with partial
// pivoting. mat and rhs are clobbered.
func solveLinear(mat [][]float64, rhs []float64) []float64 {
	n := len(rhs)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(mat[r][col]) > math.Abs(mat[pivot][col]) {
				pivot = r
			}
		}
		mat[col], mat[pivot] = mat[pivot], mat[col]
		rhs[col], rhs[pivot] = rhs[pivot], rhs[col]

		for r := col + 1; r < n; r++ {
			if mat[col][col] == 0 {
				continue
			}
			f := mat[r][col] / mat[col][col]
			for c := col; c < n; c++ {
				mat[r][c] -= f * mat[col][c]
			}
			rhs[r] -= f * rhs[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := rhs[r]
		for c := r + 1; c < n; c++ {
			sum -= mat[r][c] * x[c]
		}
		if mat[r][r] != 0 {
			x[r] = sum / mat[r][r]
		}
	}
	return x
}

func scaled(v []float64, f float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * f
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
