package images

import (
	"image"
	"image/color"
	"testing"
)

func TestExtractROI_PadsAndCopies(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	frame.SetRGBA(35, 35, color.RGBA{R: 200, A: 255})
	roi, rect, err := ExtractROI(frame, image.Rect(40, 40, 60, 70), 5)
	if err != nil || roi == nil {
		t.Fatalf("expected ROI, got err=%v", err)
	}
	if rect != image.Rect(35, 35, 65, 75) {
		t.Fatalf("unexpected rect %v", rect)
	}
	if roi.Bounds().Dx() != 30 || roi.Bounds().Dy() != 40 {
		t.Fatalf("unexpected roi size %v", roi.Bounds())
	}
	if r, _, _, _ := roi.At(0, 0).RGBA(); r>>8 != 200 {
		t.Fatalf("roi does not start at padded corner")
	}
}

func TestExtractROI_ClampsNearEdge(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 20))
	_, rect, err := ExtractROI(frame, image.Rect(0, 0, 10, 10), 8)
	if err != nil {
		t.Fatalf("roi error: %v", err)
	}
	if rect.Min.X != 0 || rect.Min.Y != 0 || rect.Max.X > 20 || rect.Max.Y > 20 {
		t.Fatalf("rect not clamped: %v", rect)
	}
}

func TestExtractROI_OutsideFrameFallsBackToPixel(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	roi, rect, _ := ExtractROI(frame, image.Rect(50, 50, 60, 60), 0)
	if roi == nil || rect.Dx() != 1 || rect.Dy() != 1 {
		t.Fatalf("expected 1x1 fallback, got %v", rect)
	}
}

func TestExtractROI_NilFrame(t *testing.T) {
	if _, _, err := ExtractROI(nil, image.Rect(0, 0, 1, 1), 0); err == nil {
		t.Fatalf("expected error for nil frame")
	}
}
