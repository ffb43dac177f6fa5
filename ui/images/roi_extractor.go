package images

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ExtractROI crops box grown by pad on every side, clamped to the frame and at
// least 1x1. It returns a copy and the rectangle used, in frame coordinates.
func ExtractROI(frame *image.RGBA, box image.Rectangle, pad int) (image.Image, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errors.New("nil frame")
	}
	if pad < 0 {
		pad = 0
	}
	b := frame.Bounds()
	roi := box.Inset(-pad).Intersect(b)
	if roi.Empty() {
		x := min(max(box.Min.X, b.Min.X), b.Max.X-1)
		y := min(max(box.Min.Y, b.Min.Y), b.Max.Y-1)
		roi = image.Rect(x, y, x+1, y+1)
	}
	return imaging.Crop(frame, roi), roi, nil
}
