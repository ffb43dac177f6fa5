package series

import (
	"math"
	"sync"
	"time"
)

// Sample is one synchronized reading.
type Sample struct {
	Time      float64 `json:"time"`
	Curvature float64 `json:"curvature"`
	Weight    float64 `json:"weight"`
}

// Snapshot is a copy of the three parallel series, safe to hand to sinks.
type Snapshot struct {
	Times      []float64 `json:"times"`
	Curvatures []float64 `json:"curvatures"`
	Weights    []float64 `json:"weights"`
}

// Len returns the number of samples.
func (s Snapshot) Len() int { return len(s.Times) }

// At returns sample i.
func (s Snapshot) At(i int) Sample {
	return Sample{Time: s.Times[i], Curvature: s.Curvatures[i], Weight: s.Weights[i]}
}

// Latest returns the last sample, if any.
func (s Snapshot) Latest() (Sample, bool) {
	if s.Len() == 0 {
		return Sample{}, false
	}
	return s.At(s.Len() - 1), true
}

// Buffer stores samples as three parallel arrays that always share a length.
// Times are seconds since the session clock was last reset, rounded to 0.1 s.
type Buffer struct {
	mu         sync.Mutex
	times      []float64
	curvatures []float64
	weights    []float64
	start      time.Time
	now        func() time.Time
	maxSamples int
}

// NewBuffer returns an empty buffer. maxSamples <= 0 keeps every sample.
func NewBuffer(maxSamples int, now func() time.Time) *Buffer {
	if now == nil {
		now = time.Now
	}
	return &Buffer{now: now, start: now(), maxSamples: maxSamples}
}

// ResetClock restarts session time at zero without touching samples.
func (b *Buffer) ResetClock() {
	b.mu.Lock()
	b.start = b.now()
	b.mu.Unlock()
}

// Elapsed returns the current session time in seconds, rounded to 0.1 s.
func (b *Buffer) Elapsed() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.elapsedLocked()
}

func (b *Buffer) elapsedLocked() float64 {
	secs := b.now().Sub(b.start).Seconds()
	return math.Round(secs*10) / 10
}

// Append records a sample stamped with the current session time.
func (b *Buffer) Append(curvature, weight float64) Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Sample{Time: b.elapsedLocked(), Curvature: curvature, Weight: weight}
	b.appendLocked(s)
	return s
}

// AppendSample records s as given.
func (b *Buffer) AppendSample(s Sample) {
	b.mu.Lock()
	b.appendLocked(s)
	b.mu.Unlock()
}

func (b *Buffer) appendLocked(s Sample) {
	b.times = append(b.times, s.Time)
	b.curvatures = append(b.curvatures, s.Curvature)
	b.weights = append(b.weights, s.Weight)
	if b.maxSamples > 0 && len(b.times) > b.maxSamples {
		drop := len(b.times) - b.maxSamples
		b.times = append(b.times[:0], b.times[drop:]...)
		b.curvatures = append(b.curvatures[:0], b.curvatures[drop:]...)
		b.weights = append(b.weights[:0], b.weights[drop:]...)
	}
}

// Clear drops every sample and restarts the session clock.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.times = b.times[:0]
	b.curvatures = b.curvatures[:0]
	b.weights = b.weights[:0]
	b.start = b.now()
	b.mu.Unlock()
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.times)
}

// Snapshot copies the current series.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Times:      append([]float64(nil), b.times...),
		Curvatures: append([]float64(nil), b.curvatures...),
		Weights:    append([]float64(nil), b.weights...),
	}
}
