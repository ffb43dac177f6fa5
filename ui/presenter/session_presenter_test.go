package presenter

import (
	"context"
	"testing"
	"time"

	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/ui/model"
)

type fakeStatus struct{ st session.Status }

func (f *fakeStatus) Status() session.Status { return f.st }

type fakeLink struct{ st sensor.Status }

func (f *fakeLink) Status() sensor.Status { return f.st }

type mockSessionView struct {
	run, total  time.Duration
	rate        float64
	statusCalls int
	status      session.Status
	serialCalls int
	serial      sensor.Status
}

func (v *mockSessionView) SetSession(run, total time.Duration, rate float64) {
	v.run, v.total, v.rate = run, total, rate
}
func (v *mockSessionView) SetStatus(st session.Status) { v.statusCalls++; v.status = st }
func (v *mockSessionView) SetSerial(st sensor.Status) {
	v.serialCalls++
	v.serial = st
}

func TestSessionPresenter_TickPushesChanges(t *testing.T) {
	capModel := &model.CaptureModel{}
	capModel.SetEnabled(true)
	src := &fakeStatus{st: session.Status{Samples: 0}}
	link := &fakeLink{}
	view := &mockSessionView{}
	p := NewSessionPresenter(model.NewSessionModel(), capModel, src, link, view)

	t0 := time.Unix(1000, 0)
	p.Tick(t0)
	src.st.Samples = 20
	p.Tick(t0.Add(2 * time.Second))
	if view.run != 2*time.Second || view.total != 2*time.Second {
		t.Fatalf("durations: run=%v total=%v", view.run, view.total)
	}
	if view.rate != 10 {
		t.Fatalf("rate: %v", view.rate)
	}
	if view.statusCalls != 2 || view.status.Samples != 20 {
		t.Fatalf("status pushes: %d", view.statusCalls)
	}
	p.Tick(t0.Add(3 * time.Second))
	if view.statusCalls != 2 {
		t.Fatalf("unchanged status pushed again")
	}
	if view.serialCalls != 1 {
		t.Fatalf("serial pushes: %d", view.serialCalls)
	}
	link.st = sensor.Status{Connected: true, Port: "/dev/ttyUSB0"}
	p.Tick(t0.Add(4 * time.Second))
	if view.serialCalls != 2 || view.serial.Port != "/dev/ttyUSB0" {
		t.Fatalf("serial change not pushed")
	}
}

func TestSessionPresenter_SerialFaultReachesView(t *testing.T) {
	capModel := &model.CaptureModel{}
	link := &fakeLink{st: sensor.Status{Connected: true, Port: "COM1"}}
	view := &mockSessionView{}
	p := NewSessionPresenter(model.NewSessionModel(), capModel, &fakeStatus{}, link, view)
	now := time.Unix(2000, 0)
	p.Tick(now)
	link.st = sensor.Status{Error: "device unplugged"}
	p.Tick(now.Add(time.Second))
	if view.serialCalls != 2 || view.serial.Connected || view.serial.Error != "device unplugged" {
		t.Fatalf("transport failure not shown: %+v", view.serial)
	}
	p.Tick(now.Add(2 * time.Second))
	if view.serialCalls != 2 {
		t.Fatalf("unchanged fault pushed again")
	}
}

func TestLoop_TickNilSafe(t *testing.T) {
	var l *Loop
	l.Tick()
	scheduled := 0
	(&Loop{Schedule: func() { scheduled++ }}).Tick()
	if scheduled != 1 {
		t.Fatalf("schedule not invoked")
	}
}

func TestDrive_TicksUntilCancelled(t *testing.T) {
	ticks := make(chan struct{}, 16)
	l := &Loop{Schedule: func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Drive(ctx, l, time.Millisecond)
		close(done)
	}()
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatalf("no tick")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("drive did not stop")
	}
}
