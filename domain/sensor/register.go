package sensor

import (
	"math"
	"sync/atomic"
)

// Register holds the latest weight. Last write wins; reads never block.
// The zero value reads 0.
type Register struct{ bits atomic.Uint64 }

// Load returns the latest weight.
func (r *Register) Load() float64 {
	if r == nil {
		return 0
	}
	return math.Float64frombits(r.bits.Load())
}

// Store replaces the latest weight.
func (r *Register) Store(w float64) {
	if r == nil {
		return
	}
	r.bits.Store(math.Float64bits(w))
}
