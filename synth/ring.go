package synth

// ring is a fixed-size circular buffer read relative to a moving head.
type ring struct {
	buf  []int32
	head int
}

func newRing(size int) *ring {
	if size < 1 {
		size = 1
	}
	return &ring{buf: make([]int32, size)}
}

// at reads the sample offset places after the head, wrapping around.
func (r *ring) at(offset int) int32 {
	return r.buf[(r.head+offset)%len(r.buf)]
}

// replace overwrites the head sample and advances the head.
func (r *ring) replace(v int32) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
}
