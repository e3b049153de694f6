// Package analysis measures rendered audio.
package analysis

import (
	"math"
)

// Stats summarizes a normalized signal in [-1,1].
type Stats struct {
	SampleRate int     `json:"sample_rate"`
	Frames     int     `json:"frames"`
	Seconds    float64 `json:"seconds"`
	Peak       float64 `json:"peak"`
	PeakDB     float64 `json:"peak_db"`
	RMS        float64 `json:"rms"`
	RMSDB      float64 `json:"rms_db"`
	Clipped    int     `json:"clipped"` // samples at or beyond full scale
	// DecayDBPerS is the slope of the RMS envelope after its loudest frame,
	// NaN when the signal is too short to tell.
	DecayDBPerS float64 `json:"decay_db_per_s"`
}

// Measure computes Stats for x.
func Measure(x []float64, sampleRate int) Stats {
	s := Stats{SampleRate: sampleRate, Frames: len(x), DecayDBPerS: math.NaN()}
	if sampleRate > 0 {
		s.Seconds = float64(len(x)) / float64(sampleRate)
	}
	for _, v := range x {
		a := math.Abs(v)
		if a > s.Peak {
			s.Peak = a
		}
		if a >= 1 {
			s.Clipped++
		}
	}
	s.RMS = rms(x)
	s.PeakDB = linToDB(s.Peak)
	s.RMSDB = linToDB(s.RMS)
	if sampleRate > 0 {
		s.DecayDBPerS = decaySlopeDBPerS(Envelope(x, envelopeFrame, envelopeHop), float64(envelopeHop)/float64(sampleRate))
	}
	return s
}

const (
	envelopeFrame = 256
	envelopeHop   = 128
)

// Envelope returns the RMS of successive frames, hop samples apart.
func Envelope(x []float64, frame, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := range out {
		start := i * hop
		out[i] = rms(x[start : start+frame])
	}
	return out
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}

// decaySlopeDBPerS fits a line to the envelope in dB from the frame after the
// peak until it has fallen by 60 dB.
func decaySlopeDBPerS(env []float64, hopSec float64) float64 {
	if len(env) < 8 || hopSec <= 0 {
		return math.NaN()
	}
	peak, peakIdx := math.Inf(-1), 0
	for i, v := range env {
		if db := linToDB(v); db > peak {
			peak, peakIdx = db, i
		}
	}
	start := peakIdx + 1
	end := len(env)
	for i := start; i < len(env); i++ {
		if linToDB(env[i]) < peak-60 {
			end = i
			break
		}
	}
	if end-start < 6 {
		return math.NaN()
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start)
	for i := start; i < end; i++ {
		x := float64(i-start) * hopSec
		y := linToDB(env[i])
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*sxy - sx*sy) / den
}
