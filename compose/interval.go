package compose

import "fmt"

// MaxDissonance is the upper bound of a dissonance weight.
const MaxDissonance = 10

// IntervalWeight pairs a signed melodic interval (half-steps) with its dissonance.
type IntervalWeight struct {
	Interval   int `json:"interval" yaml:"interval"`
	Dissonance int `json:"dissonance" yaml:"dissonance"`
}

// MelodicTable scores motion between consecutive notes of one track.
// Entry order is significant: the sampler assigns buckets in slice order.
type MelodicTable []IntervalWeight

// HarmonicTable scores simultaneity. Index i is the dissonance of two pitches
// |a-b| half-steps apart, wrapping at len(table).
type HarmonicTable []int

// MelodicIntervals is the default melodic table. Octaves and fifths score low.
var MelodicIntervals = MelodicTable{
	{-12, 5}, {-11, 6}, {-10, 4}, {-9, 3}, {-8, 2}, {-7, 3},
	{-6, 4}, {-5, 1}, {-4, 1}, {-3, 2}, {-2, 2}, {-1, 3},
	{0, 0},
	{1, 3}, {2, 2}, {3, 2}, {4, 1}, {5, 1}, {6, 4},
	{7, 3}, {8, 2}, {9, 3}, {10, 4}, {11, 6}, {12, 5},
}

// HarmonicIntervals is the default harmonic table for one octave (C..B).
var HarmonicIntervals = HarmonicTable{0, 10, 8, 3, 2, 1, 8, 1, 2, 3, 7, 9}

// Validate rejects an empty table and dissonances outside [0, MaxDissonance].
func (t MelodicTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty melodic table", ErrConfig)
	}
	for _, w := range t {
		if w.Dissonance < 0 || w.Dissonance > MaxDissonance {
			return fmt.Errorf("%w: melodic dissonance for interval %d must be in [0,%d], got %d",
				ErrConfig, w.Interval, MaxDissonance, w.Dissonance)
		}
	}
	return nil
}

// Validate rejects an empty table and dissonances outside [0, MaxDissonance].
func (t HarmonicTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty harmonic table", ErrConfig)
	}
	for i, d := range t {
		if d < 0 || d > MaxDissonance {
			return fmt.Errorf("%w: harmonic dissonance at %d must be in [0,%d], got %d", ErrConfig, i, MaxDissonance, d)
		}
	}
	return nil
}

// Lookup returns the dissonance between two pitches.
func (t HarmonicTable) Lookup(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	return t[d%len(t)]
}
