package synth

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"
)

// sineCycles is how many periods are computed before tiling. One period is
// usually a fractional number of samples; twenty keep the rounding error of
// the tiled segment small.
const sineCycles = 20

func (s *Synthesizer) square(freq float64, n int, vol float64) Wave {
	halfPeriods := 2 * freq / float64(s.cfg.SampleRate)
	amp := int32(float64(s.maxAmp) * vol)
	out := make(Wave, n)
	for i := range out {
		if int(float64(i)*halfPeriods)%2 == 0 {
			out[i] = -amp
		} else {
			out[i] = amp
		}
	}
	return out
}

func (s *Synthesizer) sine(freq float64, n int, vol float64) Wave {
	sr := float64(s.cfg.SampleRate)
	segment := int(math.Round(sineCycles * sr / freq))
	if segment > n {
		segment = n
	}
	if segment < 1 {
		segment = 1
	}
	step := 2 * math.Pi * sineCycles / float64(segment)
	amp := float64(s.maxAmp) * vol

	out := make(Wave, n)
	for i := 0; i < segment; i++ {
		out[i] = clampSample(int64(math.Sin(float64(i)*step)*amp), s.maxAmp)
	}
	for i := segment; i < n; i++ {
		out[i] = out[i%segment]
	}

	fade := int(sr * s.cfg.FadeSeconds)
	if fade > n/2 {
		fade = n / 2
	}
	for i := 0; i < fade; i++ {
		out[i] = int32(int64(out[i]) * int64(i) / int64(fade))
		j := n - 1 - i
		out[j] = int32(int64(out[j]) * int64(i) / int64(fade))
	}
	return out
}

// pluck runs the Karplus-Strong loop: a noise-filled ring whose samples are
// replaced by a damped average of themselves and their two successors.
func (s *Synthesizer) pluck(freq float64, n int, vol float64) Wave {
	size := int(float64(s.cfg.SampleRate) / freq)
	rng := rand.New(rand.NewSource(s.noiseSeed(freq, n)))
	r := newRing(size)
	amp := float64(s.maxAmp) * vol
	for i := range r.buf {
		r.buf[i] = clampSample(int64((rng.Float64()*2-1)*amp), s.maxAmp)
	}

	gain := s.cfg.Damping * 0.25
	out := make(Wave, n)
	for i := range out {
		x0 := r.at(0)
		out[i] = x0
		sum := 2*int64(x0) + int64(r.at(1)) + int64(r.at(2))
		r.replace(clampSample(int64(float64(sum)*gain), s.maxAmp))
	}
	return out
}

// noiseSeed derives the pluck noise stream from the request so identical
// requests render identical buffers in any order.
func (s *Synthesizer) noiseSeed(freq float64, n int) int64 {
	var b [24]byte
	binary.LittleEndian.PutUint64(b[0:], uint64(s.cfg.Seed))
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(freq))
	binary.LittleEndian.PutUint64(b[16:], uint64(n))
	h := fnv.New64a()
	h.Write(b[:])
	return int64(h.Sum64())
}
