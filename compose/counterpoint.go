package compose

import "fmt"

// CounterpointParams extends Params with the harmonic constraints of a track
// grown against the rest of a sheet.
type CounterpointParams struct {
	Params
	Start         int // anchor pitch; the stray window is centered on it
	MaxDissonance int // highest accepted average harmonic dissonance
	Harmonic      HarmonicTable
}

// DefaultCounterpointParams returns a livelier, narrower walk than DefaultParams.
func DefaultCounterpointParams() CounterpointParams {
	p := DefaultParams()
	p.Sync = 27
	p.Stray = 7
	return CounterpointParams{
		Params:        p,
		Start:         0,
		MaxDissonance: 3,
		Harmonic:      HarmonicIntervals,
	}
}

// Validate checks the embedded walk parameters and the harmonic table.
func (p *CounterpointParams) Validate() error {
	if err := p.Params.Validate(); err != nil {
		return err
	}
	if p.MaxDissonance < 0 {
		return fmt.Errorf("%w: max dissonance must be >= 0", ErrConfig)
	}
	return p.Harmonic.Validate()
}

// Counterpoint grows a track that stays harmonically compatible with every
// track of sheet and returns a new sheet with it appended. sheet itself is
// not modified.
//
// The existing tracks are compared through copies looped to the new track's
// length, so shorter themes repeat underneath it.
func Counterpoint(sheet Sheet, p CounterpointParams, seed string) (Sheet, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rng := NewStream(seed)
	sampler, err := NewSampler(p.Melodic)
	if err != nil {
		return nil, err
	}

	var others Sheet
	if len(sheet) > 0 {
		others, err = sheet.LoopedTo(p.Length())
		if err != nil {
			return nil, err
		}
	}

	low, high := p.Start-p.Stray, p.Start+p.Stray
	accept := func(time, pitch int) bool {
		if pitch < low || pitch > high || !p.Scale.Contains(pitch) {
			return false
		}
		return AverageDissonance(others, time, pitch, p.Harmonic) <= p.MaxDissonance
	}
	track, err := walk(rng, sampler, &p.Params, p.Start, accept)
	if err != nil {
		return nil, err
	}
	return sheet.With(track), nil
}
