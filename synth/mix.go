package synth

// Mix sums waves sample by sample after padding them with silence to the
// longest length. The sum is folded left to right with saturation at
// ±maxAmp, so Mix(a, b, c) == Mix(Mix(a, b), c). Two waves mix the same in
// either order; with three or more, a clipped intermediate sum makes the
// result depend on argument order.
func Mix(maxAmp int32, waves ...Wave) Wave {
	n := 0
	for _, w := range waves {
		if len(w) > n {
			n = len(w)
		}
	}
	out := make(Wave, n)
	for _, w := range waves {
		for i, s := range w {
			out[i] = clampSample(int64(out[i])+int64(s), maxAmp)
		}
	}
	return out
}

// Peak returns the largest absolute sample.
func (w Wave) Peak() int32 {
	var p int32
	for _, s := range w {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}
