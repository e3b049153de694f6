package compose

// AverageDissonance scores pitch, sounding at time, against the last note each
// track of others starts at or before time. The mean is truncated; an empty
// sheet scores 0. Tracks with nothing sounding yet are skipped.
func AverageDissonance(others Sheet, time, pitch int, h HarmonicTable) int {
	if len(others) == 0 {
		return 0
	}
	sum := 0
	for _, t := range others {
		n, ok := t.LastNoteAt(time)
		if !ok {
			continue
		}
		sum += h.Lookup(n.Pitch, pitch)
	}
	return sum / len(others)
}
