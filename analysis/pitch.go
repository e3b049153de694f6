package analysis

import (
	"errors"
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
)

// ErrNoPitch is returned when a signal has no detectable period.
var ErrNoPitch = errors.New("analysis: no detectable pitch")

const (
	// MinFrequency and MaxFrequency bound the periods DominantFrequency looks for.
	MinFrequency = 30.0
	MaxFrequency = 4200.0

	maxPitchWindow = 16384
	peakTolerance  = 0.9
)

// DominantFrequency estimates the fundamental of x in Hz from its
// autocorrelation. At most the first 16384 samples are inspected. The search
// starts after the first dip of the autocorrelation, and the earliest lag
// within 90% of the strongest one after it wins, which keeps octave errors
// down on harmonically rich tones.
func DominantFrequency(x []float32, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("analysis: invalid sample rate %d", sampleRate)
	}
	if len(x) > maxPitchWindow {
		x = x[:maxPitchWindow]
	}
	minLag := int(float64(sampleRate) / MaxFrequency)
	maxLag := int(float64(sampleRate) / MinFrequency)
	if minLag < 2 {
		minLag = 2
	}
	if maxLag > len(x)/2 {
		maxLag = len(x) / 2
	}
	if maxLag <= minLag {
		return 0, fmt.Errorf("%w: %d samples are too few", ErrNoPitch, len(x))
	}

	ac, err := autocorrelate(x)
	if err != nil {
		return 0, err
	}
	if ac[0] <= 0 {
		return 0, fmt.Errorf("%w: silent signal", ErrNoPitch)
	}

	// Normalize for the shrinking overlap so long lags are not penalized.
	n := len(x)
	norm := func(lag int) float64 {
		return float64(ac[lag]) / float64(n-lag)
	}
	// Skip the main lobe around lag 0: walk down to the first local minimum
	// or zero crossing.
	start := minLag
	for start < maxLag && norm(start) > 0 && norm(start+1) <= norm(start) {
		start++
	}
	best := 0.0
	for lag := start; lag <= maxLag; lag++ {
		if v := norm(lag); v > best {
			best = v
		}
	}
	if best <= 0 {
		return 0, fmt.Errorf("%w: no positive correlation", ErrNoPitch)
	}
	lag := -1
	for l := start; l <= maxLag; l++ {
		v := norm(l)
		if v < peakTolerance*best {
			continue
		}
		// Climb to the local maximum.
		for l+1 <= maxLag && norm(l+1) > v {
			l++
			v = norm(l)
		}
		lag = l
		break
	}
	if lag < 0 {
		return 0, fmt.Errorf("%w: no correlation peak", ErrNoPitch)
	}

	period := float64(lag)
	if lag > minLag && lag < maxLag {
		a, b, c := norm(lag-1), norm(lag), norm(lag+1)
		if d := a - 2*b + c; d < 0 {
			period += 0.5 * (a - c) / d
		}
	}
	return float64(sampleRate) / period, nil
}

// autocorrelate returns r[k] = sum x[i]*x[i+k] for k >= 0, computed as the
// convolution of x with its reverse.
func autocorrelate(x []float32) ([]float32, error) {
	rev := make([]float32, len(x))
	for i, v := range x {
		rev[len(x)-1-i] = v
	}
	full := make([]float32, 2*len(x)-1)
	if err := algofft.ConvolveReal(full, x, rev); err != nil {
		return nil, fmt.Errorf("analysis: autocorrelation: %w", err)
	}
	return full[len(x)-1:], nil
}
