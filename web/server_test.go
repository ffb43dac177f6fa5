package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/domain/vision"
	"github.com/soocke/curvature-go/web/hub"
)

var discardLogger = slog.New(slog.DiscardHandler)

type fakeMeasurer struct {
	sess   *session.Session
	calErr error
	picked image.Point
}

func (f *fakeMeasurer) Calibrate() (float64, error) {
	if f.calErr != nil {
		return 0, f.calErr
	}
	return f.sess.ApplyCalibration(vision.BBox{Y: 100, H: 50}), nil
}

func (f *fakeMeasurer) PickColor(pt image.Point) (vision.ColorSample, error) {
	f.picked = pt
	return f.sess.SelectColor(0, 255, 0), nil
}

func (f *fakeMeasurer) PickColorDisplay(pt, display image.Point) (vision.ColorSample, error) {
	return f.PickColor(vision.DisplayToFrame(pt, display, image.Pt(640, 480)))
}

type fakeAcquisition struct {
	enabled bool
	err     error
}

func (f *fakeAcquisition) Enable() error {
	if f.err != nil {
		return f.err
	}
	f.enabled = true
	return nil
}
func (f *fakeAcquisition) Disable()      { f.enabled = false }
func (f *fakeAcquisition) Enabled() bool { return f.enabled }

type fakeSerial struct {
	port  string
	fault string
}

func (f *fakeSerial) Connect(name string) error {
	if f.port != "" {
		return sensor.ErrAlreadyConnected
	}
	f.port = name
	return nil
}
func (f *fakeSerial) Disconnect()              { f.port = "" }
func (f *fakeSerial) Ports() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil }
func (f *fakeSerial) Status() sensor.Status {
	return sensor.Status{Connected: f.port != "", Port: f.port, Error: f.fault}
}

type fixture struct {
	srv    *Server
	sess   *session.Session
	meas   *fakeMeasurer
	acq    *fakeAcquisition
	serial *fakeSerial
}

func newFixture() *fixture {
	buf := series.NewBuffer(0, nil)
	pub := series.NewPublisher(buf, discardLogger)
	sess := session.New(session.Options{RecordUncalibrated: true}, calibration.NewMachine(discardLogger), buf, pub, nil, discardLogger)
	f := &fixture{sess: sess, meas: &fakeMeasurer{sess: sess}, acq: &fakeAcquisition{}, serial: &fakeSerial{}}
	f.srv = NewServer("127.0.0.1:0", Deps{Session: sess, Measurer: f.meas, Acquisition: f.acq, Serial: f.serial}, discardLogger)
	pub.AddSink(f.srv)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.srv.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(data)
}

func TestIndexServesDashboard(t *testing.T) {
	f := newFixture()
	code, body := f.do(t, "GET", "/", "")
	if code != 200 || !strings.Contains(body, "Curvature Monitor") {
		t.Fatalf("unexpected index: %d", code)
	}
}

func TestSelectColorAndStatus(t *testing.T) {
	f := newFixture()
	if code, _ := f.do(t, "POST", "/api/color", `{"hex":"#ff0000"}`); code != 200 {
		t.Fatalf("select hex: %d", code)
	}
	code, body := f.do(t, "GET", "/api/status", "")
	if code != 200 {
		t.Fatalf("status: %d", code)
	}
	var st StatusPayload
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !st.ColorSelected || st.ColorHex != "#ff0000" || st.Tolerance != vision.DefaultHueTolerance {
		t.Fatalf("unexpected status %+v", st)
	}

	code, body = f.do(t, "POST", "/api/color", `{"r":0,"g":0,"b":255}`)
	if code != 200 || !strings.Contains(body, `"b":255`) {
		t.Fatalf("select rgb: %d %s", code, body)
	}
	if code, _ := f.do(t, "POST", "/api/color", `{"hex":"nope"}`); code != 400 {
		t.Fatalf("bad hex accepted: %d", code)
	}
	if code, _ := f.do(t, "POST", "/api/color", `{"r":300,"g":0,"b":0}`); code != 400 {
		t.Fatalf("out of range channel accepted: %d", code)
	}
	if code, _ := f.do(t, "POST", "/api/color", `{}`); code != 400 {
		t.Fatalf("empty color accepted: %d", code)
	}
}

func TestPickColor(t *testing.T) {
	f := newFixture()
	code, _ := f.do(t, "POST", "/api/color/pick", `{"x":160,"y":120,"display_w":320,"display_h":240}`)
	if code != 200 || f.meas.picked != image.Pt(320, 240) {
		t.Fatalf("display pick not mapped: %d %v", code, f.meas.picked)
	}
	f.do(t, "POST", "/api/color/pick", `{"x":5,"y":6}`)
	if f.meas.picked != image.Pt(5, 6) {
		t.Fatalf("frame pick: %v", f.meas.picked)
	}
}

func TestToleranceClamped(t *testing.T) {
	f := newFixture()
	code, body := f.do(t, "POST", "/api/tolerance", `{"hue":500}`)
	if code != 200 || !strings.Contains(body, `"hue":90`) {
		t.Fatalf("unexpected tolerance response %d %s", code, body)
	}
}

func TestCalibrateErrorsMapToStatus(t *testing.T) {
	f := newFixture()
	cases := []struct {
		err  error
		code int
	}{
		{calibration.ErrNoFrameSource, 503},
		{calibration.ErrNoColorSelected, 409},
		{calibration.ErrObjectNotDetected, 409},
		{errors.New("boom"), 500},
	}
	for _, tc := range cases {
		f.meas.calErr = tc.err
		code, body := f.do(t, "POST", "/api/calibrate", "")
		if code != tc.code || !strings.Contains(body, tc.err.Error()) {
			t.Fatalf("%v: expected %d, got %d %s", tc.err, tc.code, code, body)
		}
	}
	f.meas.calErr = nil
	code, body := f.do(t, "POST", "/api/calibrate", "")
	if code != 200 || !strings.Contains(body, `"baseline_y":105`) {
		t.Fatalf("calibrate: %d %s", code, body)
	}
	if code, _ := f.do(t, "POST", "/api/calibration/reset", ""); code != 200 {
		t.Fatalf("reset: %d", code)
	}
	if f.sess.Calibration().Current() != calibration.StateUncalibrated {
		t.Fatalf("reset not applied")
	}
}

func TestExportAndClear(t *testing.T) {
	f := newFixture()
	if code, _ := f.do(t, "GET", "/api/export", ""); code != 404 {
		t.Fatalf("empty export: %d", code)
	}
	f.sess.SelectColor(255, 0, 0)
	f.sess.Record(vision.Selection{}, false)
	code, body := f.do(t, "GET", "/api/export", "")
	if code != 200 || !strings.HasPrefix(body, strings.Join(series.CSVHeader, ",")) {
		t.Fatalf("export: %d %q", code, body)
	}
	code, body = f.do(t, "GET", "/api/summary", "")
	if code != 200 || !strings.Contains(body, `"count":1`) {
		t.Fatalf("summary: %d %s", code, body)
	}
	f.do(t, "POST", "/api/data/clear", "")
	if f.sess.Buffer().Len() != 0 {
		t.Fatalf("clear not applied")
	}
}

func TestCameraAndSerialRoutes(t *testing.T) {
	f := newFixture()
	if code, _ := f.do(t, "POST", "/api/camera/start", ""); code != 200 || !f.acq.enabled {
		t.Fatalf("camera start: %d", code)
	}
	f.do(t, "POST", "/api/camera/stop", "")
	if f.acq.enabled {
		t.Fatalf("camera stop not applied")
	}
	f.acq.err = errors.New("no device")
	if code, _ := f.do(t, "POST", "/api/camera/start", ""); code != 503 {
		t.Fatalf("camera failure: %d", code)
	}

	code, body := f.do(t, "GET", "/api/serial/ports", "")
	if code != 200 || !strings.Contains(body, "ttyUSB0") {
		t.Fatalf("ports: %d %s", code, body)
	}
	if code, _ := f.do(t, "POST", "/api/serial/connect", `{"port":"/dev/ttyUSB0"}`); code != 200 {
		t.Fatalf("connect: %d", code)
	}
	if code, _ := f.do(t, "POST", "/api/serial/connect", `{"port":"/dev/ttyUSB0"}`); code != 409 {
		t.Fatalf("double connect: %d", code)
	}
	if code, _ := f.do(t, "POST", "/api/serial/connect", `{}`); code != 400 {
		t.Fatalf("missing port: %d", code)
	}
	f.do(t, "POST", "/api/serial/disconnect", "")
	if f.serial.port != "" {
		t.Fatalf("disconnect not applied")
	}
}

func TestStatusReportsSerialFault(t *testing.T) {
	f := newFixture()
	f.serial.fault = "device unplugged"
	code, body := f.do(t, "GET", "/api/status", "")
	if code != 200 || !strings.Contains(body, `"error":"device unplugged"`) {
		t.Fatalf("status: %d %s", code, body)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	f := newFixture()
	if code, _ := f.do(t, "GET", "/ws/series", ""); code != 426 {
		t.Fatalf("expected 426, got %d", code)
	}
}

func TestSeriesWebSocketReceivesSnapshotAndUpdates(t *testing.T) {
	f := newFixture()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.srv.Serve(ctx, ln)

	url := "ws://" + ln.Addr().String() + "/ws/series"
	var ws *websocket.Conn
	deadline := time.Now().Add(2 * time.Second)
	for {
		ws, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	read := func() hub.Envelope {
		t.Helper()
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return env
	}

	if env := read(); env.Kind != "series" {
		t.Fatalf("expected initial series, got %q", env.Kind)
	}

	f.sess.SelectColor(255, 0, 0)
	f.sess.Record(vision.Selection{}, false)
	f.srv.PublishSeries(f.sess.Buffer().Snapshot())
	env := read()
	data, _ := json.Marshal(env.Data)
	var snap series.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Len() != 1 {
		t.Fatalf("expected one sample, got %d", snap.Len())
	}
}
