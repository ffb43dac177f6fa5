package model

import (
	"sync/atomic"
)

// CaptureModel tracks whether acquisition is enabled and whether the overlay
// shows the segmentation mask. The zero value is disabled and usable.
// Concurrency-safe: Tk callbacks, dashboard handlers and presenter ticks race.
type CaptureModel struct {
	enabled  atomic.Bool
	showMask atomic.Bool
}

// Enabled reports whether acquisition is currently enabled.
func (m *CaptureModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the enabled flag.
func (m *CaptureModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	m.enabled.Store(b)
}

// ShowMask reports whether the overlay tints the mask.
func (m *CaptureModel) ShowMask() bool {
	if m == nil {
		return false
	}
	return m.showMask.Load()
}

// SetShowMask toggles the mask tint.
func (m *CaptureModel) SetShowMask(b bool) {
	if m == nil {
		return
	}
	m.showMask.Store(b)
}
