package calibration

import (
	"log/slog"
	"sync"

	"github.com/soocke/curvature-go/domain/vision"
)

// Machine holds the calibration baseline. Transitions are synchronous so the
// caller can clear dependent state inside the same critical section.
type Machine struct {
	mu        sync.Mutex
	state     State
	baseline  float64
	logger    *slog.Logger
	listeners []Listener
}

// NewMachine returns an uncalibrated machine.
func NewMachine(logger *slog.Logger) *Machine {
	return &Machine{state: StateUncalibrated, logger: logger}
}

// AddListener registers l for future transitions.
func (m *Machine) AddListener(l Listener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Baseline returns the baseline row and whether it is set.
func (m *Machine) Baseline() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseline, m.state == StateCalibrated
}

// Snapshot returns the baseline as consumed by the curvature estimator.
func (m *Machine) Snapshot() vision.Baseline {
	y, ok := m.Baseline()
	return vision.Baseline{Y: y, Calibrated: ok}
}

// Calibrate anchors the baseline to box. Calling it again re-anchors.
func (m *Machine) Calibrate(box vision.BBox) float64 {
	y := vision.BaselineFromBBox(box)
	m.transition(StateCalibrated, y)
	if m.logger != nil {
		m.logger.Info("calibrated", "baseline_y", y, "bbox_y", box.Y, "bbox_h", box.H)
	}
	return y
}

// Reset clears the baseline. It always succeeds.
func (m *Machine) Reset() { m.transition(StateUncalibrated, 0) }

// transition stores state and baseline together, then notifies listeners
// outside the lock. Resetting an uncalibrated machine notifies nobody.
func (m *Machine) transition(next State, baseline float64) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.baseline = baseline
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	if m.logger != nil {
		m.logger.Debug("calibration state transition", "from", prev.String(), "to", next.String())
	}
	if prev == next && next == StateUncalibrated {
		return
	}
	for _, l := range listeners {
		func() {
			defer recoverLog(m.logger, "calibration listener panic")
			l(prev, next)
		}()
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}

var _ StateSource = (*Machine)(nil)
