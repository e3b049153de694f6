package song

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/synth"
)

func testRenderer(t *testing.T, tickMillis int) *Renderer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TickMillis = tickMillis
	cfg.Workers = 4
	r, err := NewRenderer(cfg)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderSingleTrackUsesCacheForRepeatedNotes(t *testing.T) {
	r := testRenderer(t, 10)
	// A4 twice, two ticks each.
	sheet := compose.Sheet{{Length: 4, Notes: []compose.Note{{Time: 0, Pitch: 9}, {Time: 2, Pitch: 9}}}}

	var calls, lastDone, lastTotal int
	res, err := r.Render(context.Background(), sheet, []synth.Kind{synth.Square}, func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(res.Wave) != 2*882 {
		t.Fatalf("wave length mismatch: got=%d want=%d", len(res.Wave), 2*882)
	}
	if calls != 2 || lastDone != 2 || lastTotal != 2 {
		t.Fatalf("progress mismatch: calls=%d last=%d/%d", calls, lastDone, lastTotal)
	}
	if got := r.Cache().Syntheses(); got != 1 {
		t.Fatalf("expected one synthesis for repeated notes, got %d", got)
	}
	if res.Wave.Peak() != 32767 {
		t.Fatalf("expected full-scale single track, got peak %d", res.Wave.Peak())
	}
	if res.Cues[0][0] != (compose.Cue{Duration: 2, Pitch: 69}) {
		t.Fatalf("cue mismatch: got=%+v", res.Cues[0][0])
	}
	if res.Ticks != 4 || res.SampleRate != 44100 || res.BitDepth != 16 {
		t.Fatalf("result metadata mismatch: %+v", res)
	}
}

func TestRenderLoopsShorterTracksAndSplitsVolume(t *testing.T) {
	r := testRenderer(t, 10)
	sheet := compose.Sheet{
		{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 0}}},
		{Length: 6, Notes: []compose.Note{{Time: 0, Pitch: 7}, {Time: 3, Pitch: 4}}},
	}
	res, err := r.Render(context.Background(), sheet, []synth.Kind{synth.Square}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if res.Ticks != 6 {
		t.Fatalf("ticks mismatch: got=%d want=6", res.Ticks)
	}
	if len(res.Cues[0]) != 3 {
		t.Fatalf("expected the short track looped three times, got %d cues", len(res.Cues[0]))
	}
	if len(res.Wave) != 6*441 {
		t.Fatalf("wave length mismatch: got=%d want=%d", len(res.Wave), 6*441)
	}
	// Two square tracks at half volume never clip.
	if p := res.Wave.Peak(); p > 32767 || p < 16383 {
		t.Fatalf("unexpected peak %d", p)
	}
}

func TestRenderPicksInstrumentPerTrack(t *testing.T) {
	r := testRenderer(t, 10)
	sheet := compose.Sheet{
		{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 9}}},
		{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 9}}},
	}
	if _, err := r.Render(context.Background(), sheet, []synth.Kind{synth.Square, synth.Sine}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := r.Cache().Len(); got != 2 {
		t.Fatalf("expected one buffer per instrument, got %d", got)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	r := testRenderer(t, 10)
	good := compose.Sheet{{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 0}}}}
	if _, err := r.Render(context.Background(), good, nil, nil); !errors.Is(err, compose.ErrConfig) {
		t.Fatalf("expected ErrConfig without instruments, got %v", err)
	}
	if _, err := r.Render(context.Background(), nil, []synth.Kind{synth.Sine}, nil); !errors.Is(err, compose.ErrConfig) {
		t.Fatalf("expected ErrConfig for empty sheet, got %v", err)
	}
	bad := compose.Sheet{{Length: 4, Notes: []compose.Note{{Time: 1, Pitch: 0}}}}
	if _, err := r.Render(context.Background(), bad, []synth.Kind{synth.Sine}, nil); !errors.Is(err, compose.ErrConfig) {
		t.Fatalf("expected ErrConfig for malformed track, got %v", err)
	}
	high := compose.Sheet{{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 80}}}}
	if _, err := r.Render(context.Background(), high, []synth.Kind{synth.Sine}, nil); !errors.Is(err, synth.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis above Nyquist, got %v", err)
	}
}

func TestRenderErrorNamesFailingCue(t *testing.T) {
	r := testRenderer(t, 10)
	sheet := compose.Sheet{
		{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 0}}},
		{Length: 4, Notes: []compose.Note{{Time: 0, Pitch: 0}, {Time: 2, Pitch: 80}}},
	}
	_, err := r.Render(context.Background(), sheet, []synth.Kind{synth.Square}, nil)
	if !errors.Is(err, synth.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
	if !strings.Contains(err.Error(), "track 1 cue 1 pitch 140") {
		t.Fatalf("error does not name the cue: %v", err)
	}
}

func TestRenderHonorsCancelledContext(t *testing.T) {
	r := testRenderer(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sheet := compose.Sheet{{Length: 2, Notes: []compose.Note{{Time: 0, Pitch: 0}}}}
	if _, err := r.Render(ctx, sheet, []synth.Kind{synth.Sine}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Base() != 60 {
		t.Fatalf("base mismatch: got=%d want=60", cfg.Base())
	}
	cfg.Key = "F#"
	if cfg.Base() != 66 {
		t.Fatalf("base mismatch: got=%d want=66", cfg.Base())
	}
	cfg.Key = "H"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	cfg = DefaultConfig()
	cfg.TickMillis = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero tick")
	}
	cfg = DefaultConfig()
	if got := cfg.Samples(8); got != 44100 {
		t.Fatalf("samples mismatch: got=%d want=44100", got)
	}
}
