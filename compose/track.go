package compose

import "fmt"

// Note is a pitch (half-steps from the key) starting at Time ticks.
type Note struct {
	Time  int `json:"time" yaml:"time"`
	Pitch int `json:"pitch" yaml:"pitch"`
}

// Track is a sequence of notes spanning Length ticks. The first note sits at
// time 0 and times are strictly increasing and below Length.
//
// Tracks are values: Loop and Transpose return new tracks and never modify
// the receiver's notes.
type Track struct {
	Length int    `json:"length" yaml:"length"`
	Notes  []Note `json:"notes" yaml:"notes"`
}

// Cue is a render-ready note: how long it sounds and its absolute (MIDI) pitch.
type Cue struct {
	Duration int
	Pitch    int
}

// Validate checks the track invariants.
func (t Track) Validate() error {
	if t.Length <= 0 {
		return fmt.Errorf("%w: track length must be > 0, got %d", ErrConfig, t.Length)
	}
	if len(t.Notes) == 0 {
		return fmt.Errorf("%w: track has no notes", ErrConfig)
	}
	if t.Notes[0].Time != 0 {
		return fmt.Errorf("%w: first note must start at 0, got %d", ErrConfig, t.Notes[0].Time)
	}
	for i := 1; i < len(t.Notes); i++ {
		if t.Notes[i].Time <= t.Notes[i-1].Time {
			return fmt.Errorf("%w: note %d at %d does not follow %d", ErrConfig, i, t.Notes[i].Time, t.Notes[i-1].Time)
		}
	}
	if last := t.Notes[len(t.Notes)-1].Time; last >= t.Length {
		return fmt.Errorf("%w: note at %d outside track length %d", ErrConfig, last, t.Length)
	}
	return nil
}

// Loop tiles the track, each repetition shifted by Length, until length ticks
// are covered and drops the notes that start at or after length.
func (t Track) Loop(length int) (Track, error) {
	if t.Length <= 0 {
		return Track{}, fmt.Errorf("%w: cannot loop track of length %d", ErrConfig, t.Length)
	}
	if length <= 0 {
		return Track{}, fmt.Errorf("%w: loop length must be > 0, got %d", ErrConfig, length)
	}
	reps := (length + t.Length - 1) / t.Length
	notes := make([]Note, 0, reps*len(t.Notes))
	for offset := 0; offset < length; offset += t.Length {
		for _, n := range t.Notes {
			if n.Time+offset >= length {
				break
			}
			notes = append(notes, Note{Time: n.Time + offset, Pitch: n.Pitch})
		}
	}
	return Track{Length: length, Notes: notes}, nil
}

// Transpose returns a copy with every pitch shifted by halfSteps.
func (t Track) Transpose(halfSteps int) Track {
	notes := make([]Note, len(t.Notes))
	for i, n := range t.Notes {
		notes[i] = Note{Time: n.Time, Pitch: n.Pitch + halfSteps}
	}
	return Track{Length: t.Length, Notes: notes}
}

// LastNoteAt returns the most recent note starting at or before time.
func (t Track) LastNoteAt(time int) (Note, bool) {
	lo, hi := 0, len(t.Notes)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.Notes[mid].Time <= time {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return Note{}, false
	}
	return t.Notes[lo-1], true
}

// Cues converts the track to durations and absolute pitches. base is the
// absolute pitch of offset 0 (60 for middle C). The last note lasts until
// the end of the track.
func (t Track) Cues(base int) []Cue {
	cues := make([]Cue, len(t.Notes))
	for i, n := range t.Notes {
		end := t.Length
		if i+1 < len(t.Notes) {
			end = t.Notes[i+1].Time
		}
		cues[i] = Cue{Duration: end - n.Time, Pitch: n.Pitch + base}
	}
	return cues
}

// Sheet is the set of tracks of one piece.
type Sheet []Track

// Duration is the length of the longest track.
func (s Sheet) Duration() int {
	d := 0
	for _, t := range s {
		if t.Length > d {
			d = t.Length
		}
	}
	return d
}

// Looped stretches every track to the sheet duration.
func (s Sheet) Looped() (Sheet, error) {
	return s.LoopedTo(s.Duration())
}

// LoopedTo returns a copy of the sheet with every track looped to length.
func (s Sheet) LoopedTo(length int) (Sheet, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrConfig)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: zero-length sheet", ErrConfig)
	}
	out := make(Sheet, len(s))
	for i, t := range s {
		lt, err := t.Loop(length)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		out[i] = lt
	}
	return out, nil
}

// With returns a new sheet holding s followed by t.
func (s Sheet) With(t Track) Sheet {
	out := make(Sheet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, t)
}
