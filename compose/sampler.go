package compose

import (
	"hash/fnv"
	"math/rand"
	"sort"
)

// Sampler draws melodic intervals from a dissonance-weighted distribution.
// An interval with dissonance d owns a bucket of width 10-d.
type Sampler struct {
	starts    []int
	intervals []int
	total     int
}

// NewSampler builds the cumulative bucket table for t, in table order.
func NewSampler(t MelodicTable) (*Sampler, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	s := &Sampler{
		starts:    make([]int, len(t)),
		intervals: make([]int, len(t)),
	}
	weight := 0
	for i, w := range t {
		s.starts[i] = weight
		s.intervals[i] = w.Interval
		weight += MaxDissonance - w.Dissonance
	}
	s.total = weight
	return s, nil
}

// Total is the highest value a draw can take.
func (s *Sampler) Total() int {
	return s.total
}

// Sample draws uniformly from [0, Total] and returns the interval whose
// bucket holds the draw. Zero-width buckets resolve to the later entry.
func (s *Sampler) Sample(rng *rand.Rand) int {
	return s.at(rng.Intn(s.total + 1))
}

func (s *Sampler) at(draw int) int {
	i := sort.Search(len(s.starts), func(i int) bool { return s.starts[i] > draw }) - 1
	if i < 0 {
		i = 0
	}
	return s.intervals[i]
}

// NewStream returns the private random stream for a seed string.
func NewStream(seed string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
