package capture

import (
	"errors"
	"image"

	"github.com/vova616/screenshot"
)

// ScreenGrabber captures a region of the primary screen. An empty Region
// captures the whole screen. When Selection is set it is consulted on every
// Open, so a region picked while stopped applies to the next run.
type ScreenGrabber struct {
	Region    image.Rectangle
	Selection func() *image.Rectangle
}

// NewScreenGrabber returns a grabber for region.
func NewScreenGrabber(region image.Rectangle) *ScreenGrabber {
	return &ScreenGrabber{Region: region}
}

func (g *ScreenGrabber) Open() error {
	if g.Selection != nil {
		if r := g.Selection(); r != nil {
			g.Region = *r
		} else {
			g.Region = image.Rectangle{}
		}
	}
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return err
	}
	if !g.Region.Empty() && g.Region.Intersect(screen).Empty() {
		return errors.New("capture: region outside screen bounds")
	}
	return nil
}

func (g *ScreenGrabber) Grab() (*image.RGBA, error) {
	if g.Region.Empty() {
		return screenshot.CaptureScreen()
	}
	img, err := screenshot.CaptureRect(g.Region)
	if err != nil {
		return nil, err
	}
	// Normalise to a zero origin so pixel coordinates match the preview.
	if img.Rect.Min != (image.Point{}) {
		img.Rect = img.Rect.Sub(img.Rect.Min)
	}
	return img, nil
}

func (g *ScreenGrabber) Close() error { return nil }
