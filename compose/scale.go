package compose

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfig reports degenerate composition parameters.
	ErrConfig = errors.New("invalid configuration")
	// ErrSamplingExhausted is returned when rejection sampling runs out of attempts.
	ErrSamplingExhausted = errors.New("sampling exhausted")
)

// Scale is a set of allowed pitch offsets that repeats every Period half-steps.
type Scale struct {
	Offsets []int
	Period  int
}

// MakeScale builds a scale from a step pattern (e.g. 2,2,1,2,2,2,1 for major).
func MakeScale(steps ...int) (Scale, error) {
	if len(steps) == 0 {
		return Scale{}, fmt.Errorf("%w: empty step pattern", ErrConfig)
	}
	offsets := make([]int, 0, len(steps))
	note := 0
	for i, s := range steps {
		if s <= 0 {
			return Scale{}, fmt.Errorf("%w: step %d must be > 0, got %d", ErrConfig, i, s)
		}
		offsets = append(offsets, note)
		note += s
	}
	return Scale{Offsets: offsets, Period: note}, nil
}

func mustScale(steps ...int) Scale {
	s, err := MakeScale(steps...)
	if err != nil {
		panic(err)
	}
	return s
}

var (
	Major         = mustScale(2, 2, 1, 2, 2, 2, 1)
	NaturalMinor  = mustScale(2, 1, 2, 2, 1, 2, 2)
	MelodicMinor  = mustScale(2, 1, 2, 2, 2, 2, 1)
	HarmonicMinor = mustScale(2, 1, 2, 2, 1, 3, 1)
	WholeTone     = mustScale(2, 2, 2, 2, 2, 2)
	Pentatonic    = mustScale(2, 3, 2, 2)
	Chromatic     = mustScale(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
)

var scalesByName = map[string]Scale{
	"major":          Major,
	"natural-minor":  NaturalMinor,
	"minor":          NaturalMinor,
	"melodic-minor":  MelodicMinor,
	"harmonic-minor": HarmonicMinor,
	"whole-tone":     WholeTone,
	"pentatonic":     Pentatonic,
	"chromatic":      Chromatic,
}

// ScaleByName looks up one of the predefined scales.
func ScaleByName(name string) (Scale, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	s, ok := scalesByName[key]
	if !ok {
		return Scale{}, fmt.Errorf("%w: unknown scale %q (known: %s)", ErrConfig, name, strings.Join(ScaleNames(), ", "))
	}
	return s, nil
}

// ScaleNames lists the names accepted by ScaleByName.
func ScaleNames() []string {
	names := make([]string, 0, len(scalesByName))
	for k := range scalesByName {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Validate checks the offsets are a strictly increasing subset of [0, Period).
func (s Scale) Validate() error {
	if s.Period <= 0 {
		return fmt.Errorf("%w: scale period must be > 0, got %d", ErrConfig, s.Period)
	}
	if len(s.Offsets) == 0 {
		return fmt.Errorf("%w: scale has no offsets", ErrConfig)
	}
	for i, o := range s.Offsets {
		if o < 0 || o >= s.Period {
			return fmt.Errorf("%w: scale offset %d outside [0,%d)", ErrConfig, o, s.Period)
		}
		if i > 0 && o <= s.Offsets[i-1] {
			return fmt.Errorf("%w: scale offsets must be strictly increasing", ErrConfig)
		}
	}
	return nil
}

// Contains reports whether pitch, reduced into [0, Period), is one of the offsets.
// A scale with a non-positive period contains nothing.
func (s Scale) Contains(pitch int) bool {
	if s.Period <= 0 {
		return false
	}
	n := pitch % s.Period
	if n < 0 {
		n += s.Period
	}
	i := sort.SearchInts(s.Offsets, n)
	return i < len(s.Offsets) && s.Offsets[i] == n
}

// InScale is the free-function form of Scale.Contains.
func InScale(pitch int, s Scale) bool {
	return s.Contains(pitch)
}
