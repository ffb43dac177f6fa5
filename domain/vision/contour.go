package vision

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// MinContourArea is the area a contour must exceed to be tracked, measured in
// full-resolution pixels.
const MinContourArea = 1000.0

// ChainApprox selects how boundary points are stored.
type ChainApprox int

const (
	// ApproxSimple collapses straight horizontal, vertical and diagonal runs
	// to their end points.
	ApproxSimple ChainApprox = iota
	// ApproxNone keeps every boundary pixel.
	ApproxNone
)

// ParseChainApprox maps a config string onto a ChainApprox, defaulting to simple.
func ParseChainApprox(s string) ChainApprox {
	if s == "none" {
		return ApproxNone
	}
	return ApproxSimple
}

// BBox is an axis-aligned bounding box with inclusive pixel extents.
type BBox struct {
	X, Y, W, H int
}

// Rect converts the box to an image.Rectangle.
func (b BBox) Rect() image.Rectangle { return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H) }

// Empty reports a zero-sized box.
func (b BBox) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Contour is the ordered outer boundary of one connected region.
type Contour []image.Point

// Area is the polygon area enclosed by the boundary points.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	return gocv.ContourArea(pv)
}

// BoundingBox returns the tight box around all points.
func (c Contour) BoundingBox() BBox {
	if len(c) == 0 {
		return BBox{}
	}
	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()
	r := gocv.BoundingRect(pv)
	return BBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Scaled maps analysis coordinates back to frame coordinates.
func (c Contour) Scaled(scale float64) Contour {
	if scale == 1 || scale <= 0 {
		return c
	}
	out := make(Contour, len(c))
	for i, p := range c {
		out[i] = image.Pt(int(math.Round(float64(p.X)/scale)), int(math.Round(float64(p.Y)/scale)))
	}
	return out
}

// Selection is the dominant contour picked for measurement.
type Selection struct {
	Contour Contour
	BBox    BBox
	Area    float64
	Index   int
}

// SelectDominant returns the largest contour by area when it strictly exceeds
// minArea. Ties keep the first contour encountered.
func SelectDominant(contours []Contour, minArea float64) (Selection, bool) {
	best := -1
	bestArea := 0.0
	for i, c := range contours {
		a := c.Area()
		if a > bestArea {
			best, bestArea = i, a
		}
	}
	if best < 0 || bestArea <= minArea {
		return Selection{}, false
	}
	c := contours[best]
	return Selection{Contour: c, BBox: c.BoundingBox(), Area: bestArea, Index: best}, true
}

// FindExternalContours returns the outer boundary of every foreground region
// that is not nested inside a hole of another region, as reported by OpenCV
// with RETR_EXTERNAL. Points are in mask coordinates.
func FindExternalContours(m *Mask, approx ChainApprox) []Contour {
	if m == nil || m.Img == nil || m.Img.Rect.Empty() {
		return nil
	}
	mat, err := GrayToMat(m.Img)
	if err != nil {
		return nil
	}
	defer mat.Close()

	mode := gocv.ChainApproxSimple
	if approx == ApproxNone {
		mode = gocv.ChainApproxNone
	}
	found := gocv.FindContours(mat, gocv.RetrievalExternal, mode)
	defer found.Close()

	off := m.Img.Rect.Min
	contours := make([]Contour, 0, found.Size())
	for _, pts := range found.ToPoints() {
		c := Contour(pts)
		if off != (image.Point{}) {
			for k := range c {
				c[k] = c[k].Add(off)
			}
		}
		contours = append(contours, c)
	}
	return contours
}
