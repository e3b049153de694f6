// Package song turns a composition plan into a sheet and renders sheets to audio.
package song

import (
	"context"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-compose/compose"
	"golang.org/x/sync/errgroup"
)

// Stage generates one track of a song.
type Stage struct {
	Role string
	// Seed is appended to the song name to seed this stage's random stream.
	Seed string

	// Counterpoint grows the track against the Against roles; otherwise it
	// is composed freely.
	Counterpoint  bool
	Against       []string
	Params        compose.Params
	Start         int
	MaxDissonance int
	Harmonic      compose.HarmonicTable

	// Transpose is applied to the finished track, before later stages see it.
	Transpose int
}

// Plan is an ordered set of stages plus the roles that make up the final sheet.
type Plan struct {
	Stages []Stage
	Output []string
}

// DefaultPlan composes a two-measure theme, grows a bass line an octave down
// against it, and a melody against the bass. The theme itself is not played.
func DefaultPlan() Plan {
	theme := compose.DefaultParams()
	theme.Measures = 2

	cp := compose.DefaultCounterpointParams()

	bass := cp.Params
	bass.BeatLen = 16
	bass.Measures = 10

	melody := cp.Params
	melody.BeatLen = 2
	melody.Measures = 20

	return Plan{
		Stages: []Stage{
			{Role: "theme", Params: theme},
			{
				Role: "bass", Seed: "bass", Counterpoint: true, Against: []string{"theme"},
				Params: bass, Start: cp.Start, MaxDissonance: 1, Harmonic: cp.Harmonic,
				Transpose: -12,
			},
			{
				Role: "melody", Seed: "melody", Counterpoint: true, Against: []string{"bass"},
				Params: melody, Start: cp.Start, MaxDissonance: 3, Harmonic: cp.Harmonic,
			},
		},
		Output: []string{"bass", "melody"},
	}
}

// Validate checks roles are unique, references resolve and there is no cycle.
func (p *Plan) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("%w: plan has no stages", compose.ErrConfig)
	}
	roles := make(map[string]*Stage, len(p.Stages))
	for i := range p.Stages {
		s := &p.Stages[i]
		if s.Role == "" {
			return fmt.Errorf("%w: stage %d has no role", compose.ErrConfig, i)
		}
		if _, dup := roles[s.Role]; dup {
			return fmt.Errorf("%w: duplicate role %q", compose.ErrConfig, s.Role)
		}
		roles[s.Role] = s
	}
	for _, s := range p.Stages {
		if !s.Counterpoint && len(s.Against) > 0 {
			return fmt.Errorf("%w: stage %q lists dependencies but is not a counterpoint", compose.ErrConfig, s.Role)
		}
		for _, dep := range s.Against {
			if _, ok := roles[dep]; !ok {
				return fmt.Errorf("%w: stage %q depends on unknown role %q", compose.ErrConfig, s.Role, dep)
			}
		}
	}
	if len(p.Output) == 0 {
		return fmt.Errorf("%w: plan has no output roles", compose.ErrConfig)
	}
	for _, r := range p.Output {
		if _, ok := roles[r]; !ok {
			return fmt.Errorf("%w: output role %q is not a stage", compose.ErrConfig, r)
		}
	}
	if _, err := p.waves(); err != nil {
		return err
	}
	return nil
}

// waves groups stages so every stage only depends on earlier waves.
func (p *Plan) waves() ([][]int, error) {
	done := make(map[string]bool, len(p.Stages))
	var out [][]int
	for len(done) < len(p.Stages) {
		var wave []int
		for i, s := range p.Stages {
			if done[s.Role] {
				continue
			}
			ready := true
			for _, dep := range s.Against {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, i)
			}
		}
		if len(wave) == 0 {
			return nil, fmt.Errorf("%w: plan stages form a dependency cycle", compose.ErrConfig)
		}
		for _, i := range wave {
			done[p.Stages[i].Role] = true
		}
		out = append(out, wave)
	}
	return out, nil
}

// Compose runs the plan for a song name. Stages whose dependencies are
// complete run concurrently; each has its own random stream, so the result
// does not depend on scheduling. It returns the output sheet and every
// generated track by role.
func Compose(ctx context.Context, plan Plan, name string) (compose.Sheet, map[string]compose.Track, error) {
	if err := plan.Validate(); err != nil {
		return nil, nil, err
	}
	waves, err := plan.waves()
	if err != nil {
		return nil, nil, err
	}

	tracks := make(map[string]compose.Track, len(plan.Stages))
	var mu sync.Mutex
	for _, wave := range waves {
		g, ctx := errgroup.WithContext(ctx)
		for _, i := range wave {
			stage := plan.Stages[i]
			var against compose.Sheet
			for _, dep := range stage.Against {
				against = append(against, tracks[dep])
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				t, err := runStage(stage, against, name)
				if err != nil {
					return fmt.Errorf("stage %q: %w", stage.Role, err)
				}
				mu.Lock()
				tracks[stage.Role] = t
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	sheet := make(compose.Sheet, len(plan.Output))
	for i, r := range plan.Output {
		sheet[i] = tracks[r]
	}
	return sheet, tracks, nil
}

func runStage(s Stage, against compose.Sheet, name string) (compose.Track, error) {
	seed := name + s.Seed
	if !s.Counterpoint {
		return compose.Compose(s.Params, seed, s.Transpose)
	}
	cp := compose.CounterpointParams{
		Params:        s.Params,
		Start:         s.Start,
		MaxDissonance: s.MaxDissonance,
		Harmonic:      s.Harmonic,
	}
	out, err := compose.Counterpoint(against, cp, seed)
	if err != nil {
		return compose.Track{}, err
	}
	t := out[len(out)-1]
	if s.Transpose != 0 {
		t = t.Transpose(s.Transpose)
	}
	return t, nil
}
