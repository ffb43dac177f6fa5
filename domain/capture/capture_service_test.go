package capture

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

type fakeGrabber struct {
	mu      sync.Mutex
	opened  int
	closed  int
	grabs   int
	openErr error
	failAll bool
}

func (g *fakeGrabber) Open() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opened++
	return g.openErr
}

func (g *fakeGrabber) Grab() (*image.RGBA, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grabs++
	if g.failAll {
		return nil, errors.New("no signal")
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 3)), nil
}

func (g *fakeGrabber) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed++
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestCaptureService_StartStop(t *testing.T) {
	g := &fakeGrabber{}
	svc := NewCaptureService(nil, g, time.Millisecond)
	if err := svc.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.Start(); err != nil || g.opened != 1 {
		t.Fatalf("second start must be a no-op: err=%v opened=%d", err, g.opened)
	}
	waitFor(t, func() bool { return svc.LatestFrame().Sequence >= 2 })
	snap := svc.LatestFrame()
	if snap.Size() != image.Pt(4, 3) || snap.CapturedAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	svc.Stop()
	svc.Stop()
	if svc.Running() || g.closed != 1 {
		t.Fatalf("stop failed: running=%v closed=%d", svc.Running(), g.closed)
	}
	st := svc.Stats()
	if st.Grabbed == 0 || st.Sequence != st.Grabbed {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCaptureService_OpenError(t *testing.T) {
	g := &fakeGrabber{openErr: errors.New("busy")}
	svc := NewCaptureService(nil, g, time.Millisecond)
	if err := svc.Start(); err == nil {
		t.Fatalf("expected open error")
	}
	if svc.Running() {
		t.Fatalf("service must not run after open failure")
	}
	svc.Stop()
	if g.closed != 0 {
		t.Fatalf("close called without open")
	}
}

func TestCaptureService_NoGrabber(t *testing.T) {
	svc := NewCaptureService(nil, nil, 0)
	if err := svc.Start(); !errors.Is(err, ErrNoGrabber) {
		t.Fatalf("expected ErrNoGrabber, got %v", err)
	}
}

func TestCaptureService_GrabFailuresCounted(t *testing.T) {
	g := &fakeGrabber{failAll: true}
	svc := NewCaptureService(nil, g, time.Millisecond)
	if err := svc.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return svc.Stats().Failed >= 3 })
	svc.Stop()
	if svc.LatestFrame().Image != nil {
		t.Fatalf("no frame expected")
	}
}

func TestCopyFrame_RoundTripsThroughPool(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Pix[5] = 42
	cp := CopyFrame(src)
	if cp == src || cp.Pix[5] != 42 || cp.Rect != src.Rect {
		t.Fatalf("copy mismatch")
	}
	RecycleFrame(cp)
	again := AcquireFrame(image.Rect(0, 0, 2, 2))
	if len(again.Pix) != 16 || again.Stride != 8 {
		t.Fatalf("unexpected pooled frame: len=%d stride=%d", len(again.Pix), again.Stride)
	}
	if CopyFrame(nil) != nil {
		t.Fatalf("nil copy must be nil")
	}
}
