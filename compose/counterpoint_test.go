package compose

import (
	"errors"
	"reflect"
	"testing"
)

func counterpointFixture(t *testing.T) Sheet {
	t.Helper()
	p := DefaultParams()
	p.Measures = 2
	theme, err := Compose(p, "theme", 0)
	if err != nil {
		t.Fatalf("Compose theme: %v", err)
	}
	return Sheet{theme}
}

func TestCounterpointHonorsStrayAndDissonance(t *testing.T) {
	sheet := counterpointFixture(t)
	p := DefaultCounterpointParams()
	p.Measures = 4
	p.Start = 4
	p.MaxDissonance = 2

	out, err := Counterpoint(sheet, p, "themebass")
	if err != nil {
		t.Fatalf("Counterpoint: %v", err)
	}
	if len(out) != 2 || len(sheet) != 1 {
		t.Fatalf("expected a new two-track sheet and an untouched input: got=%d input=%d", len(out), len(sheet))
	}
	track := out[1]
	if err := track.Validate(); err != nil {
		t.Fatalf("invalid counterpoint track: %v", err)
	}
	if track.Length != 64 {
		t.Fatalf("length mismatch: got=%d want=64", track.Length)
	}
	if track.Notes[0] != (Note{0, 4}) {
		t.Fatalf("expected anchor at start pitch, got %+v", track.Notes[0])
	}

	others, err := sheet.LoopedTo(track.Length)
	if err != nil {
		t.Fatalf("LoopedTo: %v", err)
	}
	for _, n := range track.Notes {
		if n.Pitch < p.Start-p.Stray || n.Pitch > p.Start+p.Stray {
			t.Fatalf("pitch %d outside stray window around %d", n.Pitch, p.Start)
		}
		if n.Time == 0 {
			continue
		}
		if d := AverageDissonance(others, n.Time, n.Pitch, p.Harmonic); d > p.MaxDissonance {
			t.Fatalf("note %+v has dissonance %d > %d", n, d, p.MaxDissonance)
		}
	}
}

func TestCounterpointIsDeterministic(t *testing.T) {
	sheet := counterpointFixture(t)
	p := DefaultCounterpointParams()
	a, err := Counterpoint(sheet, p, "melody")
	if err != nil {
		t.Fatalf("Counterpoint: %v", err)
	}
	b, err := Counterpoint(sheet, p, "melody")
	if err != nil {
		t.Fatalf("Counterpoint: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different sheets")
	}
}

func TestCounterpointOnEmptySheetIsUnconstrained(t *testing.T) {
	p := DefaultCounterpointParams()
	p.MaxDissonance = 0
	out, err := Counterpoint(nil, p, "solo")
	if err != nil {
		t.Fatalf("Counterpoint: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one track, got %d", len(out))
	}
}

func TestCounterpointReportsExhaustedSampling(t *testing.T) {
	sheet := counterpointFixture(t)
	p := DefaultCounterpointParams()
	p.MaxDissonance = 0
	p.Harmonic = HarmonicTable{10}
	p.MaxAttempts = 100
	if _, err := Counterpoint(sheet, p, "clash"); !errors.Is(err, ErrSamplingExhausted) {
		t.Fatalf("expected ErrSamplingExhausted, got %v", err)
	}
}

func TestAverageDissonanceTruncatesMean(t *testing.T) {
	others := Sheet{
		{Length: 16, Notes: []Note{{0, 0}, {8, 4}}},
		{Length: 16, Notes: []Note{{0, 7}}},
	}
	// |4-0| -> 2, |7-0| -> 1
	if got := AverageDissonance(others, 8, 0, HarmonicIntervals); got != 1 {
		t.Fatalf("AverageDissonance = %d, want 1", got)
	}
	// before the second note only the anchors sound: |0-0| -> 0, |7-0| -> 1
	if got := AverageDissonance(others, 7, 0, HarmonicIntervals); got != 0 {
		t.Fatalf("AverageDissonance = %d, want 0", got)
	}
	// distances wrap at the table length: |13| -> 1 -> 10
	if got := AverageDissonance(others[:1], 0, 13, HarmonicIntervals); got != 10 {
		t.Fatalf("AverageDissonance = %d, want 10", got)
	}
}
