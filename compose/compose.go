package compose

import (
	"fmt"
	"math/rand"
)

// DefaultMaxAttempts bounds the rejection sampling for a single note.
const DefaultMaxAttempts = 10000

// Params controls the random walk that builds a track.
type Params struct {
	MeasureLen  int // ticks per measure
	BeatLen     int // ticks per beat, must divide MeasureLen
	Sync        int // percent chance a beat is split in two
	Measures    int
	Stray       int // max distance in half-steps from the anchor pitch
	Scale       Scale
	Melodic     MelodicTable
	MaxAttempts int
}

// DefaultParams returns sixteen-tick measures of four-tick beats in C major.
func DefaultParams() Params {
	return Params{
		MeasureLen:  16,
		BeatLen:     4,
		Sync:        14,
		Measures:    1,
		Stray:       10,
		Scale:       Major,
		Melodic:     MelodicIntervals,
		MaxAttempts: DefaultMaxAttempts,
	}
}

func (p *Params) Validate() error {
	if p.MeasureLen <= 0 {
		return fmt.Errorf("%w: measure length must be > 0", ErrConfig)
	}
	if p.BeatLen <= 0 || p.BeatLen > p.MeasureLen {
		return fmt.Errorf("%w: beat length must be in (0,%d], got %d", ErrConfig, p.MeasureLen, p.BeatLen)
	}
	if p.MeasureLen%p.BeatLen != 0 {
		return fmt.Errorf("%w: beat length %d does not divide measure length %d", ErrConfig, p.BeatLen, p.MeasureLen)
	}
	if p.Sync < 0 || p.Sync > 100 {
		return fmt.Errorf("%w: sync must be a percentage, got %d", ErrConfig, p.Sync)
	}
	if p.Measures <= 0 {
		return fmt.Errorf("%w: measures must be > 0", ErrConfig)
	}
	if p.Stray < 0 {
		return fmt.Errorf("%w: stray must be >= 0", ErrConfig)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be > 0", ErrConfig)
	}
	if err := p.Scale.Validate(); err != nil {
		return err
	}
	return p.Melodic.Validate()
}

// Length is the track length in ticks.
func (p *Params) Length() int {
	return p.MeasureLen * p.Measures
}

// beatTimes lists every beat start and, with probability Sync/100, the beat
// midpoint as well. One draw is consumed per beat.
func beatTimes(rng *rand.Rand, p *Params) []int {
	beats := p.Length() / p.BeatLen
	half := p.BeatLen / 2
	times := make([]int, 0, beats)
	for i := 0; i < beats; i++ {
		start := i * p.BeatLen
		times = append(times, start)
		if rng.Intn(101) < p.Sync && half > 0 {
			times = append(times, start+half)
		}
	}
	return times
}

// Compose builds one track by a constrained random walk starting at pitch 0.
// The walk is reproducible for a given seed. A non-zero transpose shifts the
// finished track.
func Compose(p Params, seed string, transpose int) (Track, error) {
	if err := p.Validate(); err != nil {
		return Track{}, err
	}
	rng := NewStream(seed)
	sampler, err := NewSampler(p.Melodic)
	if err != nil {
		return Track{}, err
	}

	accept := func(_, pitch int) bool {
		return pitch >= -p.Stray && pitch <= p.Stray && p.Scale.Contains(pitch)
	}
	track, err := walk(rng, sampler, &p, 0, accept)
	if err != nil {
		return Track{}, err
	}
	if transpose != 0 {
		track = track.Transpose(transpose)
	}
	return track, nil
}

// walk anchors start at time 0 and extends it one accepted note per time.
func walk(rng *rand.Rand, sampler *Sampler, p *Params, start int, accept func(time, pitch int) bool) (Track, error) {
	times := beatTimes(rng, p)
	notes := make([]Note, 1, len(times))
	notes[0] = Note{Time: 0, Pitch: start}
	prev := start
	for _, t := range times[1:] {
		next, ok := 0, false
		for attempt := 0; attempt < p.MaxAttempts; attempt++ {
			candidate := prev + sampler.Sample(rng)
			if accept(t, candidate) {
				next, ok = candidate, true
				break
			}
		}
		if !ok {
			return Track{}, fmt.Errorf("%w: no acceptable pitch after %d at tick %d within %d attempts",
				ErrSamplingExhausted, prev, t, p.MaxAttempts)
		}
		notes = append(notes, Note{Time: t, Pitch: next})
		prev = next
	}
	return Track{Length: p.Length(), Notes: notes}, nil
}
