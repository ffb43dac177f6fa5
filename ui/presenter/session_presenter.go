package presenter

import (
	"time"

	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/ui/model"
)

// CaptureEnabledModel reports whether capture is enabled.
type CaptureEnabledModel interface{ Enabled() bool }

// StatusSource snapshots the measurement session.
type StatusSource interface {
	Status() session.Status
}

// SerialState reports the weight link.
type SerialState interface {
	Status() sensor.Status
}

// SessionView displays run time, live readings and the serial link.
type SessionView interface {
	SetSession(run, total time.Duration, rate float64)
	SetStatus(st session.Status)
	// SetSerial shows the link state; st.Error carries a transport failure.
	SetSerial(st sensor.Status)
}

// SessionPresenter polls the session each tick and pushes changed values to
// the view.
type SessionPresenter struct {
	sess   *model.SessionModel
	cap    CaptureEnabledModel
	status StatusSource
	serial SerialState
	view   SessionView

	last       session.Status
	hasLast    bool
	lastSerial sensor.Status
	hasSerial  bool
}

// NewSessionPresenter returns a new SessionPresenter. serial may be nil.
func NewSessionPresenter(sess *model.SessionModel, cap CaptureEnabledModel, status StatusSource, serial SerialState, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, cap: cap, status: status, serial: serial, view: view}
}

// Tick advances the session model and pushes values to the view.
func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.cap == nil || p.view == nil || p.status == nil {
		return
	}
	st := p.status.Status()
	p.sess.OnTick(p.cap.Enabled(), st.Samples, now)
	run, total := p.sess.Values()
	p.view.SetSession(run, total, p.sess.Rate())

	if !p.hasLast || st != p.last {
		p.view.SetStatus(st)
		p.last, p.hasLast = st, true
	}
	if p.serial != nil {
		st := p.serial.Status()
		if !p.hasSerial || st != p.lastSerial {
			p.view.SetSerial(st)
			p.lastSerial, p.hasSerial = st, true
		}
	}
}
