package view

import (
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/curvature-go/config"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the user actions wired by the app. Nil entries disable the
// corresponding control.
type Handlers struct {
	ToggleCapture    func()
	Calibrate        func()
	ResetCalibration func()
	ClearData        func()
	Export           func()
	ToggleMask       func()
	SelectRegion     func()
	Pick             func(pt, display image.Point)
	SetTolerance     func(hue int)
	ConnectSerial    func(port string)
	DisconnectSerial func()
	OnConfigApplied  func(*config.Config)
	Exit             func()
}

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Session     SessionStats
	ConfigPanel ConfigPanel
	CapturePrev CapturePreview

	// Widgets
	StateLabel   *TLabelWidget
	MessageLabel *LabelWidget
	CaptureBtn   *TButtonWidget
	PortSelect   *TComboboxWidget
	ToleranceTxt *TextWidget
}

// UI abstracts the view operations needed by presenters, decoupling them from
// the concrete RootView.
type UI interface {
	PreviewReset()
	ConfigEditable(bool)
	SetCaptureButton(running bool)
	SetCalibrationLabel(text string, calibrated bool)
	SetSession(run, total time.Duration, rate float64)
	SetStatus(st session.Status)
	SetSerial(st sensor.Status)
	UpdateChart(img image.Image)
	UpdateCapture(img image.Image, frameSize image.Point)
	UpdateDetection(img image.Image)
	SetMessage(text string)
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout. ports lists serial ports for the dropdown.
func (rv *RootView) Build(ports []string, h Handlers) {
	if rv == nil {
		return
	}
	// Row 0-1: stats; row 0 col 4: calibration state
	rv.Session = NewSessionStats(nil, 0)
	rv.StateLabel = TLabel(Txt("Not calibrated"), Style(theme.StyleIdleLabel))
	Grid(rv.StateLabel, Row(0), Column(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.MessageLabel = Label(Txt(""), Anchor("w"))
	Grid(rv.MessageLabel, Row(1), Column(4), Sticky("we"), Padx("0.4m"))

	// Row 2: action buttons
	btnFrame := Frame()
	Grid(btnFrame, Row(2), Column(0), Columnspan(5), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	col := 0
	addBtn := func(label, style string, fn func()) *TButtonWidget {
		if fn == nil {
			return nil
		}
		b := TButton(Txt(label), Style(style), Command(fn))
		Grid(b, In(btnFrame), Row(0), Column(col), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		col++
		return b
	}
	rv.CaptureBtn = addBtn("Start Camera", theme.StylePrimaryButton, h.ToggleCapture)
	addBtn("Calibrate", theme.StylePrimaryButton, h.Calibrate)
	addBtn("Reset Calibration", "TButton", h.ResetCalibration)
	addBtn("Clear Data", theme.StyleDangerButton, h.ClearData)
	addBtn("Export CSV", "TButton", h.Export)
	addBtn("Toggle Mask", "TButton", h.ToggleMask)
	addBtn("Capture Region", "TButton", h.SelectRegion)
	addBtn("Dark Mode", "TButton", func() { theme.ToggleDark() })
	addBtn("Exit", theme.StyleDangerButton, h.Exit)

	// Row 3: tolerance and serial controls
	ctlFrame := Frame()
	Grid(ctlFrame, Row(3), Column(0), Columnspan(5), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	Grid(Label(Txt("Hue tolerance")), In(ctlFrame), Row(0), Column(0), Sticky("w"), Padx("0.2m"))
	rv.ToleranceTxt = Text(Height(1), Width(5))
	Grid(rv.ToleranceTxt, In(ctlFrame), Row(0), Column(1), Sticky("w"), Padx("0.2m"))
	if rv.cfg != nil {
		rv.ToleranceTxt.Insert("1.0", strconv.Itoa(rv.cfg.HueTolerance))
	}
	if h.SetTolerance != nil {
		setTol := Button(Txt("Set"), Command(func() {
			parts := rv.ToleranceTxt.Get("1.0", END)
			text := ""
			for _, p := range parts {
				text += p
			}
			if v, ok := parseIntField(text); ok {
				h.SetTolerance(v)
			}
		}))
		Grid(setTol, In(ctlFrame), Row(0), Column(2), Sticky("w"), Padx("0.2m"))
	}

	if len(ports) == 0 {
		ports = []string{"<none>"}
	}
	Grid(Label(Txt("Scale port")), In(ctlFrame), Row(0), Column(3), Sticky("w"), Padx("0.6m"))
	rv.PortSelect = TCombobox(Values(ports), Width(18))
	Grid(rv.PortSelect, In(ctlFrame), Row(0), Column(4), Sticky("we"), Padx("0.2m"))
	rv.PortSelect.Current(0)
	if h.ConnectSerial != nil {
		connect := Button(Txt("Connect"), Command(func() {
			idx, err := strconv.Atoi(rv.PortSelect.Current(nil))
			if err != nil || idx < 0 || idx >= len(ports) || ports[idx] == "<none>" {
				if rv.logger != nil && err != nil {
					rv.logger.Error("port selection parse error", "error", err)
				}
				return
			}
			h.ConnectSerial(ports[idx])
		}))
		Grid(connect, In(ctlFrame), Row(0), Column(5), Sticky("we"), Padx("0.2m"))
	}
	if h.DisconnectSerial != nil {
		disconnect := Button(Txt("Disconnect"), Command(h.DisconnectSerial))
		Grid(disconnect, In(ctlFrame), Row(0), Column(6), Sticky("we"), Padx("0.2m"))
	}

	// Preview rows, then config panel
	rv.CapturePrev = NewCapturePreview(4, h.Pick)
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, h.OnConfigApplied)
	rv.ConfigPanel.Build(6)
}

// SetMessage shows a transient notice (errors, export path).
func (rv *RootView) SetMessage(text string) {
	if rv != nil && rv.MessageLabel != nil {
		rv.MessageLabel.Configure(Txt(text))
	}
}

// SetCalibrationLabel updates the calibration state label.
func (rv *RootView) SetCalibrationLabel(text string, calibrated bool) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text), Style(theme.CalibrationStyle(calibrated)))
	}
}

// SetConfigEditable toggles config panel editability.
func (rv *RootView) SetConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

// UpdateCapture proxies to the preview. frameSize is unused here; clicks are
// mapped using the displayed size.
func (rv *RootView) UpdateCapture(img image.Image, _ image.Point) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateCapture(img)
	}
}

func (rv *RootView) UpdateDetection(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateDetection(img)
	}
}

func (rv *RootView) UpdateChart(img image.Image) {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.UpdateChart(img)
	}
}

// SetSession updates run and total durations and the sample rate.
func (rv *RootView) SetSession(run, total time.Duration, rate float64) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(run)
	rv.Session.SetTotal(total)
	rv.Session.SetRate(rate)
}

func (rv *RootView) SetStatus(st session.Status) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetStatus(st)
	}
}

// SetSerial shows the scale link and surfaces transport failures in the
// message line.
func (rv *RootView) SetSerial(st sensor.Status) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSerial(st)
	if st.Error != "" {
		rv.SetMessage("Scale link lost: " + st.Error)
	}
}

// --- CapturePresenter view contract methods ---
// PreviewReset clears the capture preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.CapturePrev != nil {
		rv.CapturePrev.Reset()
	}
}

// ConfigEditable redirects to SetConfigEditable to satisfy CaptureView interface.
func (rv *RootView) ConfigEditable(b bool) { rv.SetConfigEditable(b) }

// SetCaptureButton reflects the acquisition state on the toggle button.
func (rv *RootView) SetCaptureButton(running bool) {
	if rv == nil || rv.CaptureBtn == nil {
		return
	}
	if running {
		rv.CaptureBtn.Configure(Txt("Stop Camera"))
		return
	}
	rv.CaptureBtn.Configure(Txt("Start Camera"))
}
