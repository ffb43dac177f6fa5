package presenter

import (
	"context"
	"time"
)

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick/ProcessFrame on the sub-presenters and invokes a
// scheduler callback. The zero value is usable (methods are nil-safe).
type Loop struct {
	Capture     *CapturePresenter
	Calibration *CalibrationPresenter
	Session     *SessionPresenter
	Chart       *ChartPresenter
	Detect      *DetectionPresenter
	Schedule    func()
}

func NewLoop(capture *CapturePresenter, calib *CalibrationPresenter, sess *SessionPresenter, chart *ChartPresenter, detect *DetectionPresenter, schedule func()) *Loop {
	return &Loop{Capture: capture, Calibration: calib, Session: sess, Chart: chart, Detect: detect, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	l.Capture.Tick()
	l.Calibration.Tick()
	l.Session.Tick(now)
	l.Detect.ProcessFrame()
	l.Chart.Tick()
	if l.Schedule != nil {
		l.Schedule()
	}
}

// Drive ticks l every interval until ctx is cancelled. Used when no UI event
// loop exists to schedule ticks.
func Drive(ctx context.Context, l *Loop, interval time.Duration) {
	if l == nil {
		return
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Tick()
		}
	}
}
