// Package synth renders note requests to integer PCM buffers and mixes them.
package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-approx"
)

// ErrSynthesis reports a request the synthesizer cannot render.
var ErrSynthesis = errors.New("synthesis error")

// Wave is a mono buffer of signed samples at a fixed rate and bit depth.
type Wave []int32

// Float32 scales the wave to [-1, 1] given the amplitude of full scale.
func (w Wave) Float32(maxAmp int32) []float32 {
	out := make([]float32, len(w))
	scale := 1.0 / float32(maxAmp)
	for i, s := range w {
		out[i] = float32(s) * scale
	}
	return out
}

// Float64 is Float32 in double precision.
func (w Wave) Float64(maxAmp int32) []float64 {
	out := make([]float64, len(w))
	scale := 1.0 / float64(maxAmp)
	for i, s := range w {
		out[i] = float64(s) * scale
	}
	return out
}

// Kind selects a waveform archetype.
type Kind int

const (
	Square Kind = iota
	Sine
	Pluck // filtered noise, plucked-string timbre
)

var kindNames = map[Kind]string{Square: "square", Sine: "sine", Pluck: "pluck"}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "square", "sine", "pluck" and "guitar".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "square":
		return Square, nil
	case "sine":
		return Sine, nil
	case "pluck", "guitar":
		return Pluck, nil
	}
	return 0, fmt.Errorf("%w: unknown waveform %q (use square, sine or guitar)", ErrSynthesis, name)
}

// KindNames lists the names ParseKind accepts.
func KindNames() []string {
	return []string{"square", "sine", "guitar"}
}

// Config holds synthesis settings shared by every request.
type Config struct {
	SampleRate  int
	BitDepth    int
	Damping     float64 // pluck feedback gain per pass, (0,1]
	FadeSeconds float64 // sine fade-in/out length
	Seed        int64   // base seed of the pluck noise
}

// DefaultConfig returns 16-bit CD-rate settings.
func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		BitDepth:    16,
		Damping:     0.996,
		FadeSeconds: 0.005,
		Seed:        1,
	}
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	switch c.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", c.BitDepth)
	}
	if c.Damping <= 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be in (0,1]")
	}
	if c.FadeSeconds < 0 {
		return fmt.Errorf("fade seconds must be >= 0")
	}
	return nil
}

// MaxAmplitude is the largest sample magnitude representable at BitDepth.
func (c Config) MaxAmplitude() int32 {
	return int32(int64(1)<<(c.BitDepth-1) - 1)
}

// Synthesizer renders the three waveform kinds. It holds no mutable state and
// is safe for concurrent use.
type Synthesizer struct {
	cfg    Config
	maxAmp int32
}

// NewSynthesizer validates cfg and returns a synthesizer for it.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{cfg: cfg, maxAmp: cfg.MaxAmplitude()}, nil
}

// Config returns the settings the synthesizer was built with.
func (s *Synthesizer) Config() Config {
	return s.cfg
}

// Generate renders sampleCount samples of kind at freq. volume is clamped to [0,1].
func (s *Synthesizer) Generate(kind Kind, freq float64, sampleCount int, volume float64) (Wave, error) {
	if freq <= 0 || freq > float64(s.cfg.SampleRate)/2 {
		return nil, fmt.Errorf("%w: frequency %.3f Hz outside (0, %d]", ErrSynthesis, freq, s.cfg.SampleRate/2)
	}
	if sampleCount <= 0 {
		return nil, fmt.Errorf("%w: sample count must be > 0, got %d", ErrSynthesis, sampleCount)
	}
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	switch kind {
	case Square:
		return s.square(freq, sampleCount, volume), nil
	case Sine:
		return s.sine(freq, sampleCount, volume), nil
	case Pluck:
		return s.pluck(freq, sampleCount, volume), nil
	}
	return nil, fmt.Errorf("%w: unsupported waveform %v", ErrSynthesis, kind)
}

// NoteFrequency converts an absolute (MIDI) pitch to Hz, A4 = 69 = 440 Hz.
func NoteFrequency(note int) float64 {
	const ln2 = 0.69314718055994530942
	exponent := float32(note-69) / 12.0
	return 440.0 * float64(approx.FastExp(exponent*ln2))
}

func clampSample(v int64, maxAmp int32) int32 {
	if v > int64(maxAmp) {
		return maxAmp
	}
	if v < -int64(maxAmp) {
		return -maxAmp
	}
	return int32(v)
}
