package song

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/synth"
	"golang.org/x/sync/errgroup"
)

// Config controls how sheets become audio.
type Config struct {
	Key        string // tonic of pitch 0, e.g. "C" or "F#"
	TickMillis int    // duration of one tick
	Synth      synth.Config
	Workers    int // parallel note renders, <= 0 means one per CPU
}

func DefaultConfig() Config {
	return Config{
		Key:        "C",
		TickMillis: 125,
		Synth:      synth.DefaultConfig(),
		Workers:    0,
	}
}

func (c *Config) Validate() error {
	if _, err := compose.KeyIndex(c.Key); err != nil {
		return err
	}
	if c.TickMillis <= 0 {
		return fmt.Errorf("%w: tick duration must be > 0 ms, got %d", compose.ErrConfig, c.TickMillis)
	}
	return c.Synth.Validate()
}

// Base is the absolute pitch of offset 0 in the configured key.
func (c Config) Base() int {
	idx, _ := compose.KeyIndex(c.Key)
	return compose.MiddleC + idx
}

// Samples is the buffer length of a note lasting ticks.
func (c Config) Samples(ticks int) int {
	return ticks * c.Synth.SampleRate * c.TickMillis / 1000
}

// Cues loops every track of sheet to its duration and converts the notes to
// absolute pitches in the configured key.
func (c *Config) Cues(sheet compose.Sheet) ([][]compose.Cue, error) {
	looped, err := sheet.Looped()
	if err != nil {
		return nil, err
	}
	base := c.Base()
	cues := make([][]compose.Cue, len(looped))
	for i, t := range looped {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		cues[i] = t.Cues(base)
	}
	return cues, nil
}

// Result is a rendered sheet.
type Result struct {
	Wave       synth.Wave
	Cues       [][]compose.Cue
	Ticks      int
	SampleRate int
	BitDepth   int
}

// Seconds is the rendered duration.
func (r *Result) Seconds() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(len(r.Wave)) / float64(r.SampleRate)
}

// Renderer renders sheets through a shared buffer cache. It is safe for
// concurrent use.
type Renderer struct {
	cfg   Config
	synth *synth.Synthesizer
	cache *synth.Cache
}

func NewRenderer(cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := synth.NewSynthesizer(cfg.Synth)
	if err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg, synth: s, cache: synth.NewCache(s)}, nil
}

func (r *Renderer) Config() Config {
	return r.cfg
}

// Cache exposes the buffer cache, mostly for statistics.
func (r *Renderer) Cache() *synth.Cache {
	return r.cache
}

type noteJob struct {
	track  int
	cue    int
	offset int
	count  int
	kind   synth.Kind
	pitch  int
}

// Render loops every track to the sheet duration, synthesizes each note and
// mixes the tracks. kinds selects an instrument per track; the last entry is
// reused when there are more tracks than kinds. progress, when set, is called
// after each note with the number of finished and total notes; calls are
// serialized.
func (r *Renderer) Render(ctx context.Context, sheet compose.Sheet, kinds []synth.Kind, progress func(done, total int)) (*Result, error) {
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: no instrument given", compose.ErrConfig)
	}
	cues, err := r.cfg.Cues(sheet)
	if err != nil {
		return nil, err
	}

	tracks := make([]synth.Wave, len(cues))
	var jobs []noteJob
	for i := range cues {
		kind := kinds[len(kinds)-1]
		if i < len(kinds) {
			kind = kinds[i]
		}
		offset := 0
		for ci, c := range cues[i] {
			n := r.cfg.Samples(c.Duration)
			jobs = append(jobs, noteJob{track: i, cue: ci, offset: offset, count: n, kind: kind, pitch: c.Pitch})
			offset += n
		}
		tracks[i] = make(synth.Wave, offset)
	}

	volume := 1 / float64(len(cues))
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := r.cache.Get(j.kind, synth.NoteFrequency(j.pitch), j.count, volume)
			if err != nil {
				return fmt.Errorf("track %d cue %d pitch %d: %w", j.track, j.cue, j.pitch, err)
			}
			// Each job owns a disjoint span of its track.
			copy(tracks[j.track][j.offset:j.offset+j.count], w)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(jobs))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Wave:       synth.Mix(r.cfg.Synth.MaxAmplitude(), tracks...),
		Cues:       cues,
		Ticks:      sheet.Duration(),
		SampleRate: r.cfg.Synth.SampleRate,
		BitDepth:   r.cfg.Synth.BitDepth,
	}, nil
}
