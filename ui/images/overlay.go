package images

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blend"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/curvature-go/domain/pipeline"
	"github.com/soocke/curvature-go/domain/vision"
)

var (
	contourColor  = color.RGBA{0, 255, 0, 255}
	bboxColor     = color.RGBA{255, 255, 0, 255}
	baselineColor = color.RGBA{255, 64, 64, 255}
	pointColor    = color.RGBA{255, 0, 255, 255}
	maskTint      = color.RGBA{0, 200, 255, 255}
	panelColor    = color.RGBA{0, 0, 0, 160}
	textColor     = color.RGBA{255, 255, 255, 255}
)

const dashLen = 6

// OverlayOptions control what is drawn on top of a frame.
type OverlayOptions struct {
	ShowMask  bool
	Color     vision.ColorSample
	HasColor  bool
	Tolerance int
}

// RenderOverlay draws the detection result onto dst, which must be a copy of
// res.Frame with the same bounds.
func RenderOverlay(dst *image.RGBA, res pipeline.FrameResult, o OverlayOptions) {
	if dst == nil {
		return
	}
	if o.ShowMask && res.Mask != nil {
		tintMask(dst, res.Mask)
	}
	if res.Detected || res.Baseline.Calibrated {
		drawGeometry(dst, res)
	}
	if res.Baseline.Calibrated {
		y := dst.Rect.Min.Y + int(res.Baseline.Y+0.5)
		drawText(dst, dst.Rect.Min.X+6, y-4, "Baseline", baselineColor)
	}
	drawInfoPanel(dst, res, o)
}

// drawGeometry strokes the contour, box, top points and baseline with OpenCV
// on a BGR copy of dst and writes the result back.
func drawGeometry(dst *image.RGBA, res pipeline.FrameResult) {
	mat, err := vision.RGBAToBGR(dst)
	if err != nil {
		return
	}
	defer mat.Close()
	if res.Detected {
		if len(res.Selection.Contour) > 0 {
			pv := gocv.NewPointsVectorFromPoints([][]image.Point{res.Selection.Contour})
			gocv.Polylines(&mat, pv, true, contourColor, 1)
			pv.Close()
		}
		drawDashedRect(&mat, res.Selection.BBox.Rect(), bboxColor)
		for _, p := range res.Measurement.TopPoints {
			gocv.Rectangle(&mat, image.Rect(p.X-1, p.Y-1, p.X+1, p.Y+1), pointColor, -1)
		}
	}
	if res.Baseline.Calibrated {
		y := int(res.Baseline.Y + 0.5)
		right := mat.Cols() - 1
		gocv.Line(&mat, image.Pt(0, y), image.Pt(right, y), baselineColor, 1)
		gocv.Line(&mat, image.Pt(0, y+1), image.Pt(right, y+1), baselineColor, 1)
	}
	_ = vision.WriteBGR(mat, dst)
}

func drawInfoPanel(dst *image.RGBA, res pipeline.FrameResult, o OverlayOptions) {
	var lines []string
	switch {
	case !res.Active:
		lines = []string{"No target selected"}
	default:
		lines = append(lines, fmt.Sprintf("Curvature: %.2f mm", res.Measurement.Curvature))
		if o.HasColor {
			lines = append(lines, fmt.Sprintf("RGB: (%d, %d, %d)", o.Color.R, o.Color.G, o.Color.B))
		}
		lines = append(lines, fmt.Sprintf("Tolerance: +/-%d", o.Tolerance))
		if !res.Detected {
			lines = append(lines, "Object not detected")
		} else if !res.Baseline.Calibrated {
			lines = append(lines, "Not calibrated")
		}
	}
	const lineH = 15
	w := 0
	for _, l := range lines {
		w = max(w, font.MeasureString(basicfont.Face7x13, l).Ceil())
	}
	origin := dst.Rect.Min.Add(image.Pt(8, 8))
	panel := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w+12, len(lines)*lineH+8))}
	draw.Draw(dst, panel.Intersect(dst.Rect), image.NewUniform(panelColor), image.Point{}, draw.Over)
	for i, l := range lines {
		drawText(dst, origin.X+6, origin.Y+4+(i+1)*lineH-3, l, textColor)
	}
}

func drawText(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// tintMask blends maskTint at half opacity over frame pixels whose mask bit
// is set. The mask may be smaller than the frame when analysis runs downscaled.
func tintMask(dst *image.RGBA, m *vision.Mask) {
	mb := m.Bounds()
	if mb.Empty() {
		return
	}
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	layer := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		my := min(int(float64(y)*m.Scale), mb.Dy()-1)
		src := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
		row := layer.Pix[y*layer.Stride:]
		copy(row[:4*w], src[:4*w])
		for x := 0; x < w; x++ {
			mx := min(int(float64(x)*m.Scale), mb.Dx()-1)
			if m.Set(mb.Min.X+mx, mb.Min.Y+my) {
				row[x*4], row[x*4+1], row[x*4+2] = maskTint.R, maskTint.G, maskTint.B
			}
		}
	}
	blended := blend.Opacity(dst, layer, 0.5)
	for y := 0; y < h; y++ {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		copy(dst.Pix[off:off+4*w], blended.Pix[y*blended.Stride:y*blended.Stride+4*w])
	}
}

// drawDashedRect strokes r (exclusive max) with dashLen-pixel dashes.
func drawDashedRect(m *gocv.Mat, r image.Rectangle, col color.RGBA) {
	if r.Empty() {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0; x <= x1; x += 2 * dashLen {
		e := min(x+dashLen-1, x1)
		gocv.Line(m, image.Pt(x, y0), image.Pt(e, y0), col, 1)
		gocv.Line(m, image.Pt(x, y1), image.Pt(e, y1), col, 1)
	}
	for y := y0; y <= y1; y += 2 * dashLen {
		e := min(y+dashLen-1, y1)
		gocv.Line(m, image.Pt(x0, y), image.Pt(x0, e), col, 1)
		gocv.Line(m, image.Pt(x1, y), image.Pt(x1, e), col, 1)
	}
}
