package capture

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	captureStatsLogInterval = 5 * time.Second
	// DefaultInterval paces the loop at roughly 60 frames per second.
	DefaultInterval = 16 * time.Millisecond
	maxGrabFailures = 30
)

// ErrNoGrabber is returned by Start when the service has no frame device.
var ErrNoGrabber = errors.New("capture: no grabber configured")

// CaptureService acquires frames from a Grabber and exposes the latest capture
// alongside instrumentation data. Use NewCaptureService to construct an
// instance.
type CaptureService interface {
	Start() error
	Stop()
	LatestFrame() FrameSnapshot
	Running() bool
	Stats() CaptureStats
}

type captureService struct {
	mu       sync.Mutex // guards Start/Stop and the channels
	grabber  Grabber
	interval time.Duration
	logger   *slog.Logger
	quit     chan struct{}
	done     chan struct{}

	running   atomic.Bool
	latest    atomic.Pointer[FrameSnapshot]
	sequence  atomic.Uint64
	grabbed   atomic.Uint64
	failed    atomic.Uint64
	grabNanos atomic.Int64
}

func newCaptureService(logger *slog.Logger, grabber Grabber, interval time.Duration) *captureService {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &captureService{grabber: grabber, interval: interval, logger: logger}
}

// NewCaptureService constructs a capture service pulling frames from grabber
// every interval.
func NewCaptureService(logger *slog.Logger, grabber Grabber, interval time.Duration) CaptureService {
	return newCaptureService(logger, grabber, interval)
}

func (s *captureService) LatestFrame() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Stats() CaptureStats {
	st := CaptureStats{Grabbed: s.grabbed.Load(), Failed: s.failed.Load()}
	if st.Grabbed > 0 {
		st.MeanGrab = time.Duration(s.grabNanos.Load() / int64(st.Grabbed))
	}
	if snap := s.latest.Load(); snap != nil {
		st.LastFrame = snap.CapturedAt
		st.FrameAge = time.Since(snap.CapturedAt)
		st.Sequence = snap.Sequence
	}
	return st
}

// Start opens the grabber and launches the capture loop. Starting a running
// service is a no-op.
func (s *captureService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return nil
	}
	if s.grabber == nil {
		return ErrNoGrabber
	}
	if err := s.grabber.Open(); err != nil {
		return err
	}
	s.latest.Store(nil)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.loop(s.quit, s.done)
	if s.logger != nil {
		s.logger.Info("capture started", "interval", s.interval)
	}
	return nil
}

// Stop halts the loop, waits for it to exit and releases the grabber.
func (s *captureService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quit == nil {
		return
	}
	close(s.quit)
	<-s.done
	s.quit, s.done = nil, nil
	s.running.Store(false)
	if err := s.grabber.Close(); err != nil && s.logger != nil {
		s.logger.Warn("capture close", "error", err)
	}
	if s.logger != nil {
		s.logger.Info("capture stopped", "grabbed", s.grabbed.Load(), "failed", s.failed.Load())
	}
}

func (s *captureService) loop(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	frameTicker := time.NewTicker(s.interval)
	defer frameTicker.Stop()

	failures := 0
	for {
		select {
		case <-quit:
			return
		case <-logTicker.C:
			s.logStats()
			continue
		case <-frameTicker.C:
		}

		start := time.Now()
		img, err := s.grabber.Grab()
		if err != nil || img == nil {
			s.failed.Add(1)
			failures++
			if s.logger != nil && (failures == 1 || failures%maxGrabFailures == 0) {
				s.logger.Error("capture grab", "error", err, "consecutive", failures)
			}
			continue
		}
		failures = 0
		s.grabNanos.Add(int64(time.Since(start)))
		s.grabbed.Add(1)
		s.latest.Store(&FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: s.sequence.Add(1)})
	}
}

func (s *captureService) logStats() {
	if s.logger == nil {
		return
	}
	st := s.Stats()
	s.logger.Debug("capture stats", "grabbed", st.Grabbed, "failed", st.Failed, "mean_grab", st.MeanGrab, "frame_age", st.FrameAge)
}
