package preset

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-compose/compose"
)

func writePreset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesGlobalAndPerStage(t *testing.T) {
	path := writePreset(t, "preset.json", `{
  "key": "D",
  "tick_ms": 100,
  "scale": "harmonic-minor",
  "sample_rate": 22050,
  "workers": 3,
  "stages": {
    "melody": {"beat_len": 4, "max_dissonance": 2, "seed": "tune"},
    "bass": {"transpose": -24}
  }
}`)
	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.Config.Key != "D" || p.Config.TickMillis != 100 || p.Config.Synth.SampleRate != 22050 || p.Config.Workers != 3 {
		t.Fatalf("config mismatch: %+v", p.Config)
	}
	for _, s := range p.Plan.Stages {
		if !reflect.DeepEqual(s.Params.Scale, compose.HarmonicMinor) {
			t.Fatalf("stage %s kept scale %+v", s.Role, s.Params.Scale)
		}
		switch s.Role {
		case "melody":
			if s.Params.BeatLen != 4 || s.MaxDissonance != 2 || s.Seed != "tune" {
				t.Fatalf("melody override mismatch: %+v", s)
			}
		case "bass":
			if s.Transpose != -24 || s.Params.BeatLen != 16 {
				t.Fatalf("bass override mismatch: %+v", s)
			}
		}
	}
}

func TestLoadYAMLAddsStage(t *testing.T) {
	path := writePreset(t, "preset.yaml", `
output: [bass, melody, counter]
harmonic: [0, 9, 8, 3, 2, 1, 8, 1, 2, 3, 7, 9]
stages:
  counter:
    against: [melody]
    measures: 20
    start: 7
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Plan.Stages) != 4 {
		t.Fatalf("stage count mismatch: got=%d want=4", len(p.Plan.Stages))
	}
	s := p.Plan.Stages[3]
	if s.Role != "counter" || !s.Counterpoint || s.Start != 7 || s.Params.Measures != 20 || s.Seed != "counter" {
		t.Fatalf("new stage mismatch: %+v", s)
	}
	if s.Harmonic[1] != 9 || p.Plan.Stages[0].Harmonic[1] != 9 {
		t.Fatalf("harmonic table not applied")
	}
	if want := []string{"bass", "melody", "counter"}; !reflect.DeepEqual(p.Plan.Output, want) {
		t.Fatalf("output mismatch: got=%v want=%v", p.Plan.Output, want)
	}
}

func TestLoadRejectsInvalidPresets(t *testing.T) {
	cases := map[string]string{
		"unknown key":       `{"key": "H"}`,
		"bad tick":          `{"tick_ms": 0}`,
		"unknown scale":     `{"scale": "lydian-ish"}`,
		"bad beat":          `{"stages": {"melody": {"beat_len": 5}}}`,
		"bad dissonance":    `{"stages": {"melody": {"max_dissonance": -1}}}`,
		"unknown against":   `{"stages": {"melody": {"against": ["drums"]}}}`,
		"bad bit depth":     `{"bit_depth": 12}`,
		"bad melodic table": `{"melodic": [{"interval": 1, "dissonance": 11}]}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writePreset(t, "preset.json", content)
			if _, err := LoadJSON(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadJSONMalformedAndMissing(t *testing.T) {
	path := writePreset(t, "preset.json", `{"key": `)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestApplyFileNil(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	p := Default()
	if err := ApplyFile(p, nil); err != nil {
		t.Fatalf("nil file: %v", err)
	}
	if !reflect.DeepEqual(p, Default()) {
		t.Fatalf("nil file changed the preset")
	}
}
