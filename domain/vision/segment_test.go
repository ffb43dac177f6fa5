package vision

import (
	"image"
	"image/color"
	"log/slog"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

var red = color.RGBA{R: 255, A: 255}

// newFrame returns a black frame of size w x h.
func newFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 0xff
	}
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func redBand() HSVRange { return BandFor(NewColorSample(255, 0, 0), Tolerance{Hue: 10}) }

func TestSegmenter_ThresholdsBand(t *testing.T) {
	frame := newFrame(100, 100)
	fillRect(frame, image.Rect(20, 20, 60, 80), red)
	seg := NewSegmenter(1, discardLogger)
	seg.Morphology = false
	mask := seg.Segment(frame, redBand())
	if mask == nil {
		t.Fatalf("expected mask")
	}
	if got := mask.Count(); got != 40*60 {
		t.Fatalf("expected %d set pixels, got %d", 40*60, got)
	}
	if !mask.Set(20, 20) || mask.Set(19, 20) || mask.Set(60, 50) {
		t.Fatalf("mask edges wrong")
	}
}

func TestSegmenter_MorphologyRemovesSpeckles(t *testing.T) {
	frame := newFrame(100, 100)
	fillRect(frame, image.Rect(20, 20, 60, 80), red)
	frame.SetRGBA(85, 10, red)
	frame.SetRGBA(5, 90, red)
	seg := NewSegmenter(1, discardLogger)
	mask := seg.Segment(frame, redBand())
	if mask.Set(85, 10) || mask.Set(5, 90) {
		t.Fatalf("isolated pixels should be removed by opening")
	}
	if !mask.Set(40, 50) {
		t.Fatalf("interior of region should survive")
	}
	if mask.Count() < 2000 {
		t.Fatalf("region unexpectedly shrunk: %d", mask.Count())
	}
}

func TestSegmenter_ClosingFillsPinholes(t *testing.T) {
	frame := newFrame(60, 60)
	fillRect(frame, image.Rect(10, 10, 50, 50), red)
	frame.SetRGBA(30, 30, color.RGBA{A: 255})
	seg := NewSegmenter(1, discardLogger)
	mask := seg.Segment(frame, redBand())
	if !mask.Set(30, 30) {
		t.Fatalf("pinhole should be closed")
	}
}

func TestSegmenter_UniformMaskStaysSet(t *testing.T) {
	frame := newFrame(32, 24)
	fillRect(frame, frame.Rect, red)
	mask := NewSegmenter(1, discardLogger).Segment(frame, redBand())
	if mask.Count() != 32*24 {
		t.Fatalf("expected full mask, got %d", mask.Count())
	}
}

func TestSegmenter_ReallocatesOnSizeChange(t *testing.T) {
	seg := NewSegmenter(1, discardLogger)
	m1 := seg.Segment(newFrame(100, 80), redBand())
	if m1.Bounds().Dx() != 100 || m1.Bounds().Dy() != 80 {
		t.Fatalf("unexpected bounds %v", m1.Bounds())
	}
	m2 := seg.Segment(newFrame(40, 30), redBand())
	if m2.Bounds().Dx() != 40 || m2.Bounds().Dy() != 30 {
		t.Fatalf("buffers not resized: %v", m2.Bounds())
	}
}

func TestSegmenter_AnalysisScale(t *testing.T) {
	frame := newFrame(200, 100)
	fillRect(frame, image.Rect(40, 20, 120, 80), red)
	seg := NewSegmenter(0.5, discardLogger)
	mask := seg.Segment(frame, redBand())
	if mask.Bounds().Dx() != 100 || mask.Bounds().Dy() != 50 {
		t.Fatalf("expected 100x50 analysis mask, got %v", mask.Bounds())
	}
	if mask.Scale != 0.5 {
		t.Fatalf("unexpected scale %v", mask.Scale)
	}
	if !mask.Set(40, 25) {
		t.Fatalf("scaled region missing")
	}
}

func TestSegmenter_NilFrame(t *testing.T) {
	if m := NewSegmenter(1, nil).Segment(nil, redBand()); m != nil {
		t.Fatalf("expected nil mask for nil frame")
	}
}

func BenchmarkDetector_640x480(b *testing.B) {
	frame := newFrame(640, 480)
	fillRect(frame, image.Rect(120, 140, 520, 300), red)
	d := NewDetector(NewSegmenter(1, nil), ApproxSimple)
	band := redBand()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if det := d.Detect(frame, band); !det.Found {
			b.Fatalf("expected detection")
		}
	}
}

func TestSegmenter_ReleaseThenReuse(t *testing.T) {
	frame := newFrame(50, 50)
	fillRect(frame, image.Rect(10, 10, 40, 40), red)
	seg := NewSegmenter(1, discardLogger)
	seg.Segment(frame, redBand())
	seg.Release()
	seg.Release()
	if m := seg.Segment(frame, redBand()); m == nil || !m.Set(25, 25) {
		t.Fatalf("segmenter must reallocate after release")
	}
}
