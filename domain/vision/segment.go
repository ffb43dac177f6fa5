package vision

import (
	"image"
	"log/slog"
	"math"

	"gocv.io/x/gocv"
)

// morphKernel is the structuring element size for open and close.
const morphKernel = 5

// Mask is a binary image in analysis space. Scale maps analysis coordinates
// back to frame coordinates (frame = analysis / Scale).
type Mask struct {
	Img   *image.Gray
	Scale float64
}

// Set reports whether the analysis pixel (x, y) is foreground.
func (m *Mask) Set(x, y int) bool {
	if m == nil || m.Img == nil {
		return false
	}
	if !(image.Point{x, y}.In(m.Img.Rect)) {
		return false
	}
	return m.Img.Pix[m.Img.PixOffset(x, y)] != 0
}

// Bounds returns the analysis rectangle.
func (m *Mask) Bounds() image.Rectangle {
	if m == nil || m.Img == nil {
		return image.Rectangle{}
	}
	return m.Img.Rect
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	if m == nil || m.Img == nil {
		return 0
	}
	n := 0
	for _, p := range m.Img.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// Segmenter thresholds frames against an HSV band with OpenCV and cleans the
// result with an opening followed by a closing. Working Mats are reused
// between calls and reallocated when the frame size changes. Not safe for
// concurrent use.
type Segmenter struct {
	scale  float64
	logger *slog.Logger

	ready  bool
	small  gocv.Mat
	hsv    gocv.Mat
	bin    gocv.Mat
	kernel gocv.Mat

	mask   *image.Gray
	frameW int
	frameH int

	// Morphology toggles the open/close pass. Off for calibration sampling.
	Morphology bool
}

// NewSegmenter returns a segmenter analysing frames at the given scale in (0,1].
func NewSegmenter(scale float64, logger *slog.Logger) *Segmenter {
	if scale <= 0 || scale > 1 {
		scale = 1
	}
	return &Segmenter{scale: scale, logger: logger, Morphology: true}
}

// Scale returns the analysis scale.
func (s *Segmenter) Scale() float64 { return s.scale }

// Release closes the working Mats. The next Segment reallocates them.
func (s *Segmenter) Release() {
	if s.ready {
		s.small.Close()
		s.hsv.Close()
		s.bin.Close()
		s.kernel.Close()
		s.ready = false
	}
	s.mask = nil
	s.frameW, s.frameH = 0, 0
}

func (s *Segmenter) ensure(frameW, frameH int) image.Rectangle {
	if !s.ready {
		s.small = gocv.NewMat()
		s.hsv = gocv.NewMat()
		s.bin = gocv.NewMat()
		s.kernel = gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(morphKernel, morphKernel))
		s.ready = true
	}
	if s.mask != nil && s.frameW == frameW && s.frameH == frameH {
		return s.mask.Rect
	}
	if s.mask != nil && s.logger != nil {
		s.logger.Warn("segment buffers resized",
			"from_w", s.frameW, "from_h", s.frameH,
			"to_w", frameW, "to_h", frameH)
	}
	aw := max(1, int(math.Round(float64(frameW)*s.scale)))
	ah := max(1, int(math.Round(float64(frameH)*s.scale)))
	s.mask = image.NewGray(image.Rect(0, 0, aw, ah))
	s.frameW, s.frameH = frameW, frameH
	return s.mask.Rect
}

// Segment produces the cleaned binary mask for frame. The returned mask
// aliases the working buffer and is valid until the next call.
func (s *Segmenter) Segment(frame *image.RGBA, band HSVRange) *Mask {
	if frame == nil || frame.Rect.Empty() {
		return nil
	}
	fb := frame.Bounds()
	rect := s.ensure(fb.Dx(), fb.Dy())

	src, err := RGBAToBGR(frame)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("segment convert", "error", err)
		}
		return nil
	}
	defer src.Close()

	in := src
	if rect.Dx() != fb.Dx() || rect.Dy() != fb.Dy() {
		gocv.Resize(src, &s.small, rect.Size(), 0, 0, gocv.InterpolationArea)
		in = s.small
	}
	gocv.CvtColor(in, &s.hsv, gocv.ColorBGRToHSV)
	gocv.InRangeWithScalar(s.hsv,
		gocv.NewScalar(float64(band.HMin), float64(band.SMin), float64(band.VMin), 0),
		gocv.NewScalar(float64(band.HMax), float64(band.SMax), float64(band.VMax), 0),
		&s.bin)
	if s.Morphology {
		gocv.MorphologyEx(s.bin, &s.bin, gocv.MorphOpen, s.kernel)
		gocv.MorphologyEx(s.bin, &s.bin, gocv.MorphClose, s.kernel)
	}
	copy(s.mask.Pix, s.bin.ToBytes())
	return &Mask{Img: s.mask, Scale: s.scale}
}
