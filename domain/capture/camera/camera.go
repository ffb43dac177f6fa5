// Package camera grabs frames from a local video device through OpenCV.
package camera

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var errNotOpen = errors.New("camera: device not open")

// Grabber reads BGR frames from a video device and converts them to RGBA.
type Grabber struct {
	Index  int
	Width  int
	Height int

	mu   sync.Mutex
	cap  *gocv.VideoCapture
	bgr  gocv.Mat
	rgba gocv.Mat
}

// New returns a grabber for device index requesting the default resolution.
func New(index int) *Grabber {
	return &Grabber{Index: index, Width: DefaultWidth, Height: DefaultHeight}
}

func (g *Grabber) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cap != nil {
		return nil
	}
	vc, err := gocv.OpenVideoCapture(g.Index)
	if err != nil {
		return fmt.Errorf("camera: open device %d: %w", g.Index, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("camera: device %d unavailable", g.Index)
	}
	if g.Width > 0 && g.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(g.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(g.Height))
	}
	g.cap = vc
	g.bgr = gocv.NewMat()
	g.rgba = gocv.NewMat()
	return nil
}

// Grab returns a freshly allocated frame; callers may retain it.
func (g *Grabber) Grab() (*image.RGBA, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cap == nil {
		return nil, errNotOpen
	}
	if ok := g.cap.Read(&g.bgr); !ok {
		return nil, errors.New("camera: read failed")
	}
	if g.bgr.Empty() {
		return nil, errors.New("camera: empty frame")
	}
	gocv.CvtColor(g.bgr, &g.rgba, gocv.ColorBGRToRGBA)
	w, h := g.rgba.Cols(), g.rgba.Rows()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, g.rgba.ToBytes())
	return img, nil
}

func (g *Grabber) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cap == nil {
		return nil
	}
	g.bgr.Close()
	g.rgba.Close()
	err := g.cap.Close()
	g.cap = nil
	return err
}
