package model

import (
	"image"
	"time"
)

// DetectionModel holds the latest rendered detection for the view: the
// object's bounding box, the frame size the preview was scaled from and when
// the object was last seen. Updated on the UI tick only; not synchronized.
type DetectionModel struct {
	box       image.Rectangle
	frameSize image.Point
	seq       uint64
	lastSeen  time.Time
}

func NewDetectionModel() *DetectionModel { return &DetectionModel{} }

// Update records the outcome of frame seq. An empty box means not detected.
func (m *DetectionModel) Update(seq uint64, frameSize image.Point, box image.Rectangle, now time.Time) {
	if m == nil {
		return
	}
	m.seq = seq
	m.frameSize = frameSize
	if box.Empty() {
		m.box = image.Rectangle{}
		return
	}
	m.box = box
	m.lastSeen = now
}

// Reset clears the model, e.g. when acquisition stops.
func (m *DetectionModel) Reset() {
	if m == nil {
		return
	}
	*m = DetectionModel{}
}

// Box returns the current object rectangle in frame coordinates (may be empty).
func (m *DetectionModel) Box() image.Rectangle {
	if m == nil {
		return image.Rectangle{}
	}
	return m.box
}

// FrameSize returns the size of the last processed frame.
func (m *DetectionModel) FrameSize() image.Point {
	if m == nil {
		return image.Point{}
	}
	return m.frameSize
}

// Sequence returns the last processed frame sequence.
func (m *DetectionModel) Sequence() uint64 {
	if m == nil {
		return 0
	}
	return m.seq
}

// SinceSeen reports how long ago the object was last detected; zero if never.
func (m *DetectionModel) SinceSeen(now time.Time) time.Duration {
	if m == nil || m.lastSeen.IsZero() {
		return 0
	}
	return now.Sub(m.lastSeen)
}
