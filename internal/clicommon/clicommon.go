// Package clicommon holds flag parsing and terminal helpers shared by the
// command line tools.
package clicommon

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseWorkers accepts a positive integer or "auto", which maps to 0 (one
// worker per CPU).
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

// ProgressBar returns a callback drawing a fixed-width bar on w. The bar is
// redrawn in place and ends with a newline once done reaches total.
func ProgressBar(w io.Writer, label string, width int) func(done, total int) {
	width = Clamp(width, 10, 200)
	last := -1
	return func(done, total int) {
		if total <= 0 {
			return
		}
		filled := Clamp(done*width/total, 0, width)
		if filled == last && done != total {
			return
		}
		last = filled
		pct := Clamp(done*100/total, 0, 100)
		fmt.Fprintf(w, "\r%s [%s%s] %3d%%", label, strings.Repeat("#", filled), strings.Repeat(".", width-filled), pct)
		if done >= total {
			fmt.Fprintln(w)
		}
	}
}
