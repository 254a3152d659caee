package fuzz

import (
	"math"
)

// LinearShift is a linear-feedback shift register over a 64-bit state,
// using XOR as its shifting function. Every harness run constructs one
// instance per test file with the same fixed seed, so the mutation
// sequence for a file is identical across runs and across processes
// regardless of how files are scheduled.
type LinearShift struct {
	state uint64
}

const linearShiftSeed uint64 = 0xACE5

// NewLinearShift initializes the shift register with the pre-set seed.
func NewLinearShift() *LinearShift {
	return &LinearShift{state: linearShiftSeed}
}

// Next returns a pseudo-random number in [0, 1).
func (l *LinearShift) Next() float64 {
	l.state ^= l.state >> 3
	l.state ^= l.state << 14
	l.state ^= l.state >> 28
	l.state ^= l.state << 36
	l.state ^= l.state >> 52
	return float64(l.state) / float64(math.MaxUint64)
}

// PickIndex maps the next value onto [lo, hi) and floors it. The caller
// must ensure hi > lo.
func (l *LinearShift) PickIndex(lo, hi int) int {
	idx := lo + int(l.Next()*float64(hi-lo))
	if idx >= hi {
		// Float rounding can top out at exactly 1.0.
		idx = hi - 1
	}
	return idx
}
