package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-compose/compose"
	"github.com/cwbudde/algo-compose/song"
	"gopkg.in/yaml.v3"
)

// File is the JSON/YAML schema for song presets. Every field is optional and
// overrides the defaults.
type File struct {
	Key         *string  `json:"key" yaml:"key"`
	TickMillis  *int     `json:"tick_ms" yaml:"tick_ms"`
	Scale       *string  `json:"scale" yaml:"scale"`
	SampleRate  *int     `json:"sample_rate" yaml:"sample_rate"`
	BitDepth    *int     `json:"bit_depth" yaml:"bit_depth"`
	Damping     *float64 `json:"damping" yaml:"damping"`
	FadeSeconds *float64 `json:"fade_seconds" yaml:"fade_seconds"`
	Workers     *int     `json:"workers" yaml:"workers"`

	Melodic  []compose.IntervalWeight `json:"melodic" yaml:"melodic"`
	Harmonic []int                    `json:"harmonic" yaml:"harmonic"`

	Output []string                `json:"output" yaml:"output"`
	Stages map[string]StageSetting `json:"stages" yaml:"stages"`
}

// StageSetting is a partial stage override. Unknown roles add a new stage.
type StageSetting struct {
	Seed          *string  `json:"seed" yaml:"seed"`
	Counterpoint  *bool    `json:"counterpoint" yaml:"counterpoint"`
	Against       []string `json:"against" yaml:"against"`
	Scale         *string  `json:"scale" yaml:"scale"`
	MeasureLen    *int     `json:"measure_len" yaml:"measure_len"`
	BeatLen       *int     `json:"beat_len" yaml:"beat_len"`
	Sync          *int     `json:"sync" yaml:"sync"`
	Measures      *int     `json:"measures" yaml:"measures"`
	Stray         *int     `json:"stray" yaml:"stray"`
	Start         *int     `json:"start" yaml:"start"`
	MaxDissonance *int     `json:"max_dissonance" yaml:"max_dissonance"`
	Transpose     *int     `json:"transpose" yaml:"transpose"`
}

// Preset is a complete, validated song setup.
type Preset struct {
	Plan   song.Plan
	Config song.Config
}

// Default returns the built-in plan and render configuration.
func Default() *Preset {
	return &Preset{Plan: song.DefaultPlan(), Config: song.DefaultConfig()}
}

// Load reads a preset file, choosing the decoder by extension.
func Load(path string) (*Preset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadJSON(path)
	}
}

// LoadJSON loads a preset JSON file and applies it on top of the defaults.
func LoadJSON(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fromFile(&f)
}

// LoadYAML loads a preset YAML file and applies it on top of the defaults.
func LoadYAML(path string) (*Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fromFile(&f)
}

func fromFile(f *File) (*Preset, error) {
	p := Default()
	if err := ApplyFile(p, f); err != nil {
		return nil, err
	}
	if err := p.Plan.Validate(); err != nil {
		return nil, err
	}
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing preset.
func ApplyFile(dst *Preset, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination preset")
	}
	if f == nil {
		return nil
	}

	if f.Key != nil {
		if _, err := compose.KeyIndex(*f.Key); err != nil {
			return err
		}
		dst.Config.Key = strings.TrimSpace(*f.Key)
	}
	if f.TickMillis != nil {
		if *f.TickMillis <= 0 {
			return fmt.Errorf("tick_ms must be > 0")
		}
		dst.Config.TickMillis = *f.TickMillis
	}
	if f.SampleRate != nil {
		dst.Config.Synth.SampleRate = *f.SampleRate
	}
	if f.BitDepth != nil {
		dst.Config.Synth.BitDepth = *f.BitDepth
	}
	if f.Damping != nil {
		dst.Config.Synth.Damping = *f.Damping
	}
	if f.FadeSeconds != nil {
		dst.Config.Synth.FadeSeconds = *f.FadeSeconds
	}
	if f.Workers != nil {
		dst.Config.Workers = *f.Workers
	}

	stages := dst.Plan.Stages
	if f.Scale != nil {
		s, err := compose.ScaleByName(*f.Scale)
		if err != nil {
			return err
		}
		for i := range stages {
			stages[i].Params.Scale = s
		}
	}
	if len(f.Melodic) > 0 {
		table := compose.MelodicTable(f.Melodic)
		if err := table.Validate(); err != nil {
			return fmt.Errorf("melodic: %w", err)
		}
		for i := range stages {
			stages[i].Params.Melodic = table
		}
	}
	if len(f.Harmonic) > 0 {
		table := compose.HarmonicTable(f.Harmonic)
		if err := table.Validate(); err != nil {
			return fmt.Errorf("harmonic: %w", err)
		}
		for i := range stages {
			stages[i].Harmonic = table
		}
	}

	roles := make([]string, 0, len(f.Stages))
	for r := range f.Stages {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for _, role := range roles {
		idx := -1
		for i := range stages {
			if stages[i].Role == role {
				idx = i
				break
			}
		}
		if idx < 0 {
			stages = append(stages, newStage(role, dst.Plan.Stages))
			idx = len(stages) - 1
		}
		if err := applyStage(&stages[idx], f.Stages[role]); err != nil {
			return fmt.Errorf("stages[%s]: %w", role, err)
		}
	}
	dst.Plan.Stages = stages

	if len(f.Output) > 0 {
		dst.Plan.Output = append([]string(nil), f.Output...)
	}
	return nil
}

// newStage starts a role from the counterpoint defaults, sharing the tables
// of the existing stages.
func newStage(role string, existing []song.Stage) song.Stage {
	cp := compose.DefaultCounterpointParams()
	s := song.Stage{
		Role:          role,
		Seed:          role,
		Params:        cp.Params,
		Start:         cp.Start,
		MaxDissonance: cp.MaxDissonance,
		Harmonic:      cp.Harmonic,
	}
	if len(existing) > 0 {
		s.Params.Scale = existing[0].Params.Scale
		s.Params.Melodic = existing[0].Params.Melodic
		if existing[0].Harmonic != nil {
			s.Harmonic = existing[0].Harmonic
		}
	}
	return s
}

func applyStage(s *song.Stage, o StageSetting) error {
	if o.Seed != nil {
		s.Seed = *o.Seed
	}
	if o.Counterpoint != nil {
		s.Counterpoint = *o.Counterpoint
	}
	if o.Against != nil {
		s.Against = append([]string(nil), o.Against...)
		if len(s.Against) > 0 {
			s.Counterpoint = true
		}
	}
	if o.Scale != nil {
		sc, err := compose.ScaleByName(*o.Scale)
		if err != nil {
			return err
		}
		s.Params.Scale = sc
	}
	if o.MeasureLen != nil {
		s.Params.MeasureLen = *o.MeasureLen
	}
	if o.BeatLen != nil {
		s.Params.BeatLen = *o.BeatLen
	}
	if o.Sync != nil {
		s.Params.Sync = *o.Sync
	}
	if o.Measures != nil {
		s.Params.Measures = *o.Measures
	}
	if o.Stray != nil {
		s.Params.Stray = *o.Stray
	}
	if o.Start != nil {
		s.Start = *o.Start
	}
	if o.MaxDissonance != nil {
		if *o.MaxDissonance < 0 {
			return fmt.Errorf("max_dissonance must be >= 0")
		}
		s.MaxDissonance = *o.MaxDissonance
	}
	if o.Transpose != nil {
		s.Transpose = *o.Transpose
	}
	return s.Params.Validate()
}
