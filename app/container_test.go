package app

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/soocke/curvature-go/config"
	"github.com/soocke/curvature-go/domain/calibration"
)

var discardLogger = slog.New(slog.DiscardHandler)

// stripGrabber yields a frame with a solid red strip large enough to pass
// the contour area threshold.
type stripGrabber struct{}

func (stripGrabber) Open() error  { return nil }
func (stripGrabber) Close() error { return nil }
func (stripGrabber) Grab() (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	for y := 50; y < 100; y++ {
		for x := 40; x < 160; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	return img, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ListenAddr = ""
	cfg.CaptureFPS = 200
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestContainer_MeasuresAfterCalibration(t *testing.T) {
	c := BuildContainer(testConfig(), discardLogger, stripGrabber{}, nil, nil)
	if c.Server != nil || c.ChartPresenter != nil {
		t.Fatalf("server and chart must be absent without address and views")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Shutdown()

	if err := c.CapturePresenter.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	c.Session.SelectColor(255, 0, 0)

	tick := func() { c.Loop.Tick() }
	waitFor(t, "uncalibrated samples", func() bool { tick(); return c.Buffer.Len() > 0 })

	y, err := c.Processor.Calibrate()
	if err != nil {
		t.Fatalf("calibrate: %v", err)
	}
	if y != 55 {
		t.Fatalf("baseline: want 55, got %v", y)
	}
	if c.Calibration.Current() != calibration.StateCalibrated {
		t.Fatalf("machine not calibrated")
	}
	waitFor(t, "calibrated samples", func() bool { tick(); return c.Buffer.Len() > 0 })
	if c.Detection.Box().Empty() {
		t.Fatalf("detection model not updated")
	}

	c.CapturePresenter.Disable()
	if c.CaptureSvc.Running() {
		t.Fatalf("capture still running after disable")
	}
}

func TestContainer_SerialWeightFlowsIntoSamples(t *testing.T) {
	r, w := io.Pipe()
	opener := func(string) (io.ReadCloser, error) { return r, nil }
	cfg := testConfig()
	cfg.SerialPort = "/dev/fake"
	c := BuildContainer(cfg, discardLogger, stripGrabber{}, opener, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)
	defer c.Shutdown()

	if !c.Serial.Connected() || c.Serial.Port() != "/dev/fake" {
		t.Fatalf("configured port not connected")
	}
	go func() { _, _ = io.WriteString(w, "WEIGHT:12.5\n") }()
	waitFor(t, "weight", func() bool { return c.Weight.Load() == 12.5 })

	c.Serial.Disconnect()
	_ = w.Close()
	if c.Weight.Load() != 0 {
		t.Fatalf("weight not zeroed on disconnect")
	}
}

func TestContainer_ApplyConfig(t *testing.T) {
	c := BuildContainer(testConfig(), discardLogger, stripGrabber{}, nil, nil)
	cfg := testConfig()
	cfg.HueTolerance = 40
	cfg.ShowMask = true
	cfg.MMPerPixel = 0.5
	c.ApplyConfig(cfg)
	st := c.Session.Status()
	if st.Tolerance != 40 || st.MMPerPixel != 0.5 || !c.Capture.ShowMask() {
		t.Fatalf("config not applied: %+v", st)
	}
}

func TestRunHeadless_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	c := BuildContainer(cfg, discardLogger, stripGrabber{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunHeadless(ctx, c)
		close(done)
	}()
	waitFor(t, "acquisition", c.CapturePresenter.Enabled)
	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("headless run did not stop")
	}
	if c.CaptureSvc.Running() {
		t.Fatalf("capture left running")
	}
}
