package calibration

import "errors"

// State enumerates calibration states.
type State int

const (
	StateUncalibrated State = iota
	StateCalibrated
)

func (s State) String() string {
	switch s {
	case StateUncalibrated:
		return "uncalibrated"
	case StateCalibrated:
		return "calibrated"
	default:
		return "unknown"
	}
}

// Listener is called on each transition, including re-calibration.
type Listener func(prev, next State)

var (
	// ErrNoFrameSource is returned when calibrating without a live frame.
	ErrNoFrameSource = errors.New("calibration: no live frame source")
	// ErrNoColorSelected is returned when calibrating before a color is picked.
	ErrNoColorSelected = errors.New("calibration: no target color selected")
	// ErrObjectNotDetected is returned when no region passes the area threshold.
	ErrObjectNotDetected = errors.New("calibration: object not detected")
)

// StateSource exposes read access for presenters.
type StateSource interface {
	Current() State
	Baseline() (y float64, ok bool)
}
