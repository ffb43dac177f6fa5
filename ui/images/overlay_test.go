package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/soocke/curvature-go/domain/pipeline"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/vision"
)

func blackFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

func TestRenderOverlay_DrawsBaselineAndBox(t *testing.T) {
	dst := blackFrame(200, 150)
	c := vision.Contour{{50, 60}, {150, 60}, {150, 120}, {50, 120}}
	res := pipeline.FrameResult{
		Active:    true,
		Detected:  true,
		Selection: vision.Selection{Contour: c, BBox: c.BoundingBox()},
		Baseline:  vision.Baseline{Y: 100, Calibrated: true},
	}
	RenderOverlay(dst, res, OverlayOptions{Tolerance: 15})
	if got := dst.RGBAAt(190, 100); got != baselineColor {
		t.Fatalf("baseline not drawn: %v", got)
	}
	if got := dst.RGBAAt(150, 90); got != contourColor && got != bboxColor {
		t.Fatalf("contour edge not drawn: %v", got)
	}
}

func TestRenderOverlay_MaskTint(t *testing.T) {
	dst := blackFrame(200, 200)
	gray := image.NewGray(image.Rect(0, 0, 100, 100))
	gray.SetGray(99, 99, color.Gray{Y: 255})
	res := pipeline.FrameResult{Active: true, Mask: &vision.Mask{Img: gray, Scale: 0.5}}
	RenderOverlay(dst, res, OverlayOptions{ShowMask: true})
	if dst.RGBAAt(199, 199).G == 0 {
		t.Fatalf("mask pixel not tinted")
	}
	if dst.RGBAAt(190, 190).G != 0 {
		t.Fatalf("unmasked pixel tinted")
	}
}

func TestRenderOverlay_InactiveShowsPanelOnly(t *testing.T) {
	dst := blackFrame(200, 100)
	RenderOverlay(dst, pipeline.FrameResult{}, OverlayOptions{})
	lit := false
	for i := 0; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] > 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatalf("expected info panel text")
	}
	RenderOverlay(nil, pipeline.FrameResult{}, OverlayOptions{})
}

func TestRenderChart(t *testing.T) {
	empty := RenderChart(series.Snapshot{}, 10, 10)
	if empty.Rect.Dx() < 2*chartPad {
		t.Fatalf("chart not grown to minimum size: %v", empty.Rect)
	}
	s := series.Snapshot{
		Times:      []float64{0, 0.5, 1.0, 1.5},
		Curvatures: []float64{0, 1, 2, 1},
		Weights:    []float64{0, 100, 200, 300},
	}
	img := RenderChart(s, 400, 200)
	found := false
	for y := 0; y < 200 && !found; y++ {
		for x := chartPad + 1; x < 400-chartPad; x++ {
			if img.RGBAAt(x, y) == WeightColor {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatalf("weight series not plotted")
	}
}

func TestScaleToFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := ScaleToFit(src, 100, 100)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 50 {
		t.Fatalf("unexpected scaled size %v", out.Bounds())
	}
	if ScaleToFit(src, 800, 800) != image.Image(src) {
		t.Fatalf("fitting image must be returned as is")
	}
	if len(EncodePNG(out)) == 0 {
		t.Fatalf("png encode failed")
	}
}
