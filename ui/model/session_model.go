package model

import (
	"time"
)

// SessionModel tracks acquisition run time: the current run and the total
// across runs, plus the sample rate of the current run. Presenters poll
// Values() and Rate() and update views. The zero value is ready to use.
type SessionModel struct {
	active       bool
	runStart     time.Time
	runDuration  time.Duration
	accumulated  time.Duration
	startSamples int
	runSamples   int
}

// NewSessionModel returns a pointer to a ready-to-use SessionModel.
func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick updates the model from the acquisition state, the buffered sample
// count and the current time. Call from the presenter tick.
func (m *SessionModel) OnTick(running bool, samples int, now time.Time) {
	if m == nil {
		return
	}
	if running {
		if !m.active { // off -> on
			m.active = true
			m.runStart = now
			m.runDuration = 0
			m.startSamples = samples
		}
		m.runDuration = now.Sub(m.runStart)
		if samples < m.startSamples { // history cleared mid-run
			m.startSamples = 0
		}
		m.runSamples = samples - m.startSamples
	} else if m.active { // on -> off
		m.runDuration = now.Sub(m.runStart)
		m.accumulated += m.runDuration
		m.active = false
	}
}

// Values returns the current run duration and the total accumulated duration.
// The total includes the ongoing run when active.
func (m *SessionModel) Values() (run, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	run = m.runDuration
	total = m.accumulated
	if m.active {
		total += run
	}
	return
}

// Rate returns samples per second over the current (or last) run.
func (m *SessionModel) Rate() float64 {
	if m == nil || m.runDuration <= 0 {
		return 0
	}
	return float64(m.runSamples) / m.runDuration.Seconds()
}
