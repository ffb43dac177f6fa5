package view

import (
	"fmt"
	"time"

	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows run durations and the live readings.
type SessionStats interface {
	SetSession(d time.Duration)
	SetTotal(d time.Duration)
	SetRate(perSecond float64)
	SetStatus(st session.Status)
	SetSerial(st sensor.Status)
}

type sessionStats struct {
	sessionLbl   *LabelWidget
	totalLbl     *LabelWidget
	rateLbl      *LabelWidget
	curvatureLbl *LabelWidget
	weightLbl    *LabelWidget
	samplesLbl   *LabelWidget
	colorLbl     *LabelWidget
	serialLbl    *LabelWidget
}

// NewSessionStats creates the stat labels in a grid inside parent, two rows
// starting at row.
func NewSessionStats(parent *FrameWidget, row int) SessionStats {
	s := &sessionStats{
		sessionLbl:   Label(Width(14), Anchor("w")),
		totalLbl:     Label(Width(14), Anchor("w")),
		rateLbl:      Label(Width(14), Anchor("w")),
		samplesLbl:   Label(Width(14), Anchor("w")),
		curvatureLbl: Label(Width(24), Anchor("w")),
		weightLbl:    Label(Width(24), Anchor("w")),
		colorLbl:     Label(Width(24), Anchor("w")),
		serialLbl:    Label(Width(24), Anchor("w")),
	}
	place := func(w *LabelWidget, r, c int) {
		if parent != nil {
			Grid(w, In(parent), Row(r), Column(c), Sticky("w"), Padx("0.2m"))
			return
		}
		Grid(w, Row(r), Column(c), Sticky("w"), Padx("0.2m"))
	}
	place(s.sessionLbl, row, 0)
	place(s.totalLbl, row, 1)
	place(s.rateLbl, row, 2)
	place(s.samplesLbl, row, 3)
	place(s.curvatureLbl, row+1, 0)
	place(s.weightLbl, row+1, 1)
	place(s.colorLbl, row+1, 2)
	place(s.serialLbl, row+1, 3)

	s.SetSession(0)
	s.SetTotal(0)
	s.SetRate(0)
	s.SetStatus(session.Status{CurvatureLevel: "low", WeightLevel: "low"})
	s.SetSerial(sensor.Status{})
	return s
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (s *sessionStats) SetSession(d time.Duration) {
	if s == nil || s.sessionLbl == nil {
		return
	}
	s.sessionLbl.Configure(Txt("Run: " + clock(d)))
}

func (s *sessionStats) SetTotal(d time.Duration) {
	if s == nil || s.totalLbl == nil {
		return
	}
	s.totalLbl.Configure(Txt("Total: " + clock(d)))
}

func (s *sessionStats) SetRate(perSecond float64) {
	if s == nil || s.rateLbl == nil {
		return
	}
	s.rateLbl.Configure(Txt(fmt.Sprintf("Rate: %.1f/s", perSecond)))
}

// SetStatus refreshes the live readings, coloring curvature and weight by level.
func (s *sessionStats) SetStatus(st session.Status) {
	if s == nil || s.curvatureLbl == nil {
		return
	}
	s.curvatureLbl.Configure(
		Txt(fmt.Sprintf("Curvature: %.2f mm", st.Curvature)),
		Foreground(theme.LevelColor(st.CurvatureLevel)),
	)
	s.weightLbl.Configure(
		Txt(fmt.Sprintf("Weight: %.2f kg", st.Weight)),
		Foreground(theme.LevelColor(st.WeightLevel)),
	)
	s.samplesLbl.Configure(Txt(fmt.Sprintf("Samples: %d", st.Samples)))
	if st.ColorSelected {
		s.colorLbl.Configure(Txt(fmt.Sprintf("Color: %s +/-%d", st.ColorHex, st.Tolerance)))
	} else {
		s.colorLbl.Configure(Txt("Color: <none>"))
	}
}

func (s *sessionStats) SetSerial(st sensor.Status) {
	if s == nil || s.serialLbl == nil {
		return
	}
	switch {
	case st.Connected:
		s.serialLbl.Configure(Txt("Scale: "+st.Port), Foreground(theme.Current().Text))
	case st.Error != "":
		s.serialLbl.Configure(Txt("Scale: link lost"), Foreground(theme.Current().Danger))
	default:
		s.serialLbl.Configure(Txt("Scale: disconnected"), Foreground(theme.Current().TextMuted))
	}
}
