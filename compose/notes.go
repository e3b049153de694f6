package compose

import (
	"fmt"
	"strings"
)

// NoteNames are the twelve pitch classes starting at C.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// MiddleC is the absolute (MIDI) pitch of C4.
const MiddleC = 60

// KeyIndex returns the pitch class of a key name such as "F#".
func KeyIndex(key string) (int, error) {
	k := strings.TrimSpace(key)
	for i, n := range NoteNames {
		if strings.EqualFold(n, k) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown key %q", ErrConfig, key)
}

// NoteString names a pitch offset in key, prefixing the octave shift
// relative to the key's octave ("+1D", "-1A#"). padded aligns the result to
// four columns for grid printing.
func NoteString(pitch, key int, padded bool) string {
	i := pitch + key
	octave := i / 12
	i %= 12
	if i < 0 {
		i += 12
		octave--
	}
	var s string
	switch {
	case octave > 0:
		s = fmt.Sprintf("+%d%s", octave, NoteNames[i])
	case octave < 0:
		s = fmt.Sprintf("%d%s", octave, NoteNames[i])
	case padded:
		s = "  " + NoteNames[i]
	default:
		s = NoteNames[i]
	}
	if padded {
		return fmt.Sprintf("%-4s", s)
	}
	return s
}

// TrackString renders a track in key. With measure > 0 the notes are laid
// out on a grid, one line per measure; otherwise as "0xT:NOTE" pairs.
func TrackString(t Track, key, measure int) string {
	var b strings.Builder
	if measure <= 0 {
		for i, n := range t.Notes {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "0x%X:%s", n.Time, NoteString(n.Pitch, key, false))
		}
		return b.String()
	}
	tick := 0
	for _, n := range t.Notes {
		for ; tick < n.Time; tick++ {
			if tick%measure == 0 {
				b.WriteByte('\n')
			}
			b.WriteString("    ")
		}
		if tick%measure == 0 {
			b.WriteByte('\n')
		}
		b.WriteString(NoteString(n.Pitch, key, true))
		tick++
	}
	return b.String()
}
