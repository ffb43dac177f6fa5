package model

import (
	"image"
	"testing"
	"time"
)

func TestSessionModel_BasicLifecycle(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)

	m.OnTick(true, 0, base)
	m.OnTick(true, 300, base.Add(5*time.Second))
	run, total := m.Values()
	if run != 5*time.Second || total != 5*time.Second {
		t.Fatalf("expected 5s run & total; got run=%v total=%v", run, total)
	}
	if r := m.Rate(); r != 60 {
		t.Fatalf("expected 60 samples/s, got %v", r)
	}

	m.OnTick(false, 300, base.Add(5*time.Second))
	m.OnTick(false, 300, base.Add(7*time.Second))
	run2, total2 := m.Values()
	if run2 != run || total2 != total {
		t.Fatalf("idle tick changed durations: run=%v total=%v", run2, total2)
	}

	m.OnTick(true, 300, base.Add(10*time.Second))
	m.OnTick(true, 330, base.Add(13*time.Second))
	r3, t3 := m.Values()
	if r3 != 3*time.Second || t3 != 8*time.Second {
		t.Fatalf("second run: run=%v total=%v", r3, t3)
	}
	if r := m.Rate(); r != 10 {
		t.Fatalf("expected 10 samples/s, got %v", r)
	}

	m.OnTick(false, 330, base.Add(13*time.Second))
	if _, tf := m.Values(); tf != 8*time.Second {
		t.Fatalf("final total expected 8s, got %v", tf)
	}
}

func TestSessionModel_ClearMidRun(t *testing.T) {
	m := NewSessionModel()
	base := time.Unix(0, 0)
	m.OnTick(true, 100, base)
	m.OnTick(true, 20, base.Add(2*time.Second))
	if r := m.Rate(); r != 10 {
		t.Fatalf("expected 10 samples/s after clear, got %v", r)
	}
}

func TestDetectionModel(t *testing.T) {
	m := NewDetectionModel()
	now := time.Unix(100, 0)
	m.Update(1, image.Pt(640, 480), image.Rect(10, 10, 50, 40), now)
	if m.Box().Dx() != 40 || m.Sequence() != 1 || m.FrameSize() != image.Pt(640, 480) {
		t.Fatalf("unexpected model state")
	}
	m.Update(2, image.Pt(640, 480), image.Rectangle{}, now.Add(time.Second))
	if !m.Box().Empty() || m.SinceSeen(now.Add(3*time.Second)) != 3*time.Second {
		t.Fatalf("lost detection not tracked")
	}
	m.Reset()
	if m.Sequence() != 0 || m.SinceSeen(now) != 0 {
		t.Fatalf("reset failed")
	}
	var nilModel *DetectionModel
	if !nilModel.Box().Empty() {
		t.Fatalf("nil model must be safe")
	}
}

func TestCaptureModel(t *testing.T) {
	var m CaptureModel
	if m.Enabled() || m.ShowMask() {
		t.Fatalf("zero value must be disabled")
	}
	m.SetEnabled(true)
	m.SetShowMask(true)
	if !m.Enabled() || !m.ShowMask() {
		t.Fatalf("flags not stored")
	}
}
