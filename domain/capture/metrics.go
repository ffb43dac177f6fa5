package capture

import (
	"image"
	"time"
)

// FrameSnapshot carries the latest captured frame and metadata.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Size returns the frame dimensions, or zero when empty.
func (f FrameSnapshot) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Rect.Size()
}

// CaptureStats counts grab outcomes since the service was built.
type CaptureStats struct {
	Grabbed   uint64
	Failed    uint64
	MeanGrab  time.Duration
	LastFrame time.Time
	FrameAge  time.Duration
	Sequence  uint64
}
