package session

import (
	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/vision"
)

// EventKind identifies what changed.
type EventKind int

const (
	EventDetection EventKind = iota + 1
	EventCalibration
	EventWeight
	EventColor
	EventTolerance
	EventCleared
	EventSerial
)

func (k EventKind) String() string {
	switch k {
	case EventDetection:
		return "detection"
	case EventCalibration:
		return "calibration"
	case EventWeight:
		return "weight"
	case EventColor:
		return "color"
	case EventTolerance:
		return "tolerance"
	case EventCleared:
		return "cleared"
	case EventSerial:
		return "serial"
	default:
		return "unknown"
	}
}

// Event carries one observable change. Only the fields relevant to Kind are set.
type Event struct {
	Kind        EventKind
	Detected    bool
	Calibration calibration.State
	Baseline    float64
	Weight      float64
	Color       vision.ColorSample
	Tolerance   int
	Serial      sensor.Status
}

// Listener receives session events. Listeners run on the goroutine that
// caused the change and must not block.
type Listener func(Event)
