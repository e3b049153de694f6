package export

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-compose/compose"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDIOptions maps song ticks onto a standard MIDI file.
type MIDIOptions struct {
	Title           string
	TickMillis      int // duration of one song tick
	TicksPerQuarter int // song ticks per quarter note
	Resolution      int // MIDI ticks per quarter note
	Velocity        uint8
}

func DefaultMIDIOptions() MIDIOptions {
	return MIDIOptions{
		TickMillis:      125,
		TicksPerQuarter: 4,
		Resolution:      96,
		Velocity:        100,
	}
}

func (o *MIDIOptions) Validate() error {
	if o.TickMillis <= 0 || o.TicksPerQuarter <= 0 {
		return fmt.Errorf("%w: tick duration and ticks per quarter must be > 0", compose.ErrConfig)
	}
	if o.Resolution <= 0 || o.Resolution > 0x7fff || o.Resolution%o.TicksPerQuarter != 0 {
		return fmt.Errorf("%w: resolution %d must be a positive multiple of %d", compose.ErrConfig, o.Resolution, o.TicksPerQuarter)
	}
	if o.Velocity == 0 || o.Velocity > 127 {
		return fmt.Errorf("%w: velocity must be in [1,127], got %d", compose.ErrConfig, o.Velocity)
	}
	return nil
}

// BPM is the tempo implied by the tick duration.
func (o MIDIOptions) BPM() float64 {
	return 60000 / float64(o.TickMillis*o.TicksPerQuarter)
}

// WriteMIDI writes one format-1 file with a tempo track followed by one
// track per cue list. Track i plays on channel i, skipping the drum channel.
func WriteMIDI(w io.Writer, cues [][]compose.Cue, opts MIDIOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	scale := uint32(opts.Resolution / opts.TicksPerQuarter)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(opts.Resolution)

	var tempo smf.Track
	if opts.Title != "" {
		tempo.Add(0, smf.MetaTrackSequenceName(opts.Title))
	}
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(opts.BPM()))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return fmt.Errorf("%w: add tempo track: %v", ErrIO, err)
	}

	for i, list := range cues {
		ch := channel(i)
		var tr smf.Track
		for _, c := range list {
			if c.Pitch < 0 || c.Pitch > 127 {
				return fmt.Errorf("%w: track %d pitch %d outside the MIDI range", compose.ErrConfig, i, c.Pitch)
			}
			key := uint8(c.Pitch)
			tr.Add(0, midi.NoteOn(ch, key, opts.Velocity))
			tr.Add(uint32(c.Duration)*scale, midi.NoteOff(ch, key))
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("%w: add track %d: %v", ErrIO, i, err)
		}
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write midi: %v", ErrIO, err)
	}
	return nil
}

// SaveMIDI writes cues to path, creating parent directories.
func SaveMIDI(path string, cues [][]compose.Cue, opts MIDIOptions) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteMIDI(f, cues, opts); err != nil {
		return err
	}
	return f.Close()
}

func channel(track int) uint8 {
	ch := track % 15
	if ch >= 9 {
		ch++
	}
	return uint8(ch)
}
