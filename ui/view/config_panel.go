package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/curvature-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel is the settings form. ApplyChanges writes parsed values back
// into *config.Config, validates and saves. Source settings take effect on the
// next acquisition start; measurement settings go to the OnApply callback.
type ConfigPanel interface {
	Build(startRow int) (endRow int)
	SetEditable(enabled bool)
	ApplyChanges()
}

// configField binds one form row to a config value. parse returns false to
// keep the current value.
type configField struct {
	label  string
	format func(*config.Config) string
	parse  func(*config.Config, string) bool
}

func intField(label string, ptr func(*config.Config) *int) configField {
	return configField{
		label:  label,
		format: func(c *config.Config) string { return strconv.Itoa(*ptr(c)) },
		parse: func(c *config.Config, s string) bool {
			v, err := strconv.Atoi(s)
			if err == nil {
				*ptr(c) = v
			}
			return err == nil
		},
	}
}

func floatField(label, verb string, ptr func(*config.Config) *float64) configField {
	return configField{
		label:  label,
		format: func(c *config.Config) string { return fmt.Sprintf(verb, *ptr(c)) },
		parse: func(c *config.Config, s string) bool {
			v, err := strconv.ParseFloat(s, 64)
			if err == nil {
				*ptr(c) = v
			}
			return err == nil
		},
	}
}

func boolField(label string, ptr func(*config.Config) *bool) configField {
	return configField{
		label:  label,
		format: func(c *config.Config) string { return strconv.FormatBool(*ptr(c)) },
		parse: func(c *config.Config, s string) bool {
			v, ok := parseBoolLoose(s)
			if ok {
				*ptr(c) = v
			}
			return ok
		},
	}
}

// stringField keeps the old value on empty input unless allowEmpty is set.
func stringField(label string, allowEmpty bool, ptr func(*config.Config) *string) configField {
	return configField{
		label:  label,
		format: func(c *config.Config) string { return *ptr(c) },
		parse: func(c *config.Config, s string) bool {
			if s == "" && !allowEmpty {
				return false
			}
			*ptr(c) = s
			return true
		},
	}
}

var configFields = []configField{
	stringField("Source (camera/screen)", false, func(c *config.Config) *string { return &c.Source }),
	intField("Camera Index", func(c *config.Config) *int { return &c.CameraIndex }),
	intField("Capture FPS", func(c *config.Config) *int { return &c.CaptureFPS }),
	floatField("Analysis Scale (0.2-1.0)", "%.2f", func(c *config.Config) *float64 { return &c.AnalysisScale }),
	stringField("Contour Points (simple/none)", false, func(c *config.Config) *string { return &c.ChainApprox }),
	floatField("Min Contour Area px", "%.0f", func(c *config.Config) *float64 { return &c.MinContourArea }),
	floatField("mm per Pixel", "%.3f", func(c *config.Config) *float64 { return &c.MMPerPixel }),
	intField("Hue Tolerance (0-90)", func(c *config.Config) *int { return &c.HueTolerance }),
	intField("Max Samples (0 = unbounded)", func(c *config.Config) *int { return &c.MaxSamples }),
	boolField("Record Uncalibrated", func(c *config.Config) *bool { return &c.RecordUncalibrated }),
	boolField("Show Mask", func(c *config.Config) *bool { return &c.ShowMask }),
	stringField("Scale Port", true, func(c *config.Config) *string { return &c.SerialPort }),
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	applyBtn *ButtonWidget
	inputs   []*TextWidget // parallel to configFields
	onApply  func(*config.Config)
}

// NewConfigPanel creates the view bound to cfg. onApply may be nil.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply}
}

func (v *configPanel) Build(startRow int) (row int) {
	row = startRow
	v.inputs = make([]*TextWidget, len(configFields))
	for i, f := range configFields {
		col := (i % 2) * 2
		r := row + i/2
		Grid(Label(Txt(f.label), Anchor("w")), Row(r), Column(col), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(r), Column(col+1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		if v.cfg != nil {
			w.Insert("1.0", f.format(v.cfg))
		}
		v.inputs[i] = w
	}
	row += (len(configFields) + 1) / 2
	v.applyBtn = Button(Txt("Apply Changes"), Command(v.ApplyChanges))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	return row + 1
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.inputs {
		w.Configure(State(state))
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg
	for i, f := range configFields {
		if i >= len(v.inputs) {
			break
		}
		text := strings.TrimSpace(strings.Join(v.inputs[i].Get("1.0", END), ""))
		if !f.parse(&cfg, text) && v.logger != nil {
			v.logger.Warn("config field ignored", "field", f.label, "value", text)
		}
	}
	_ = cfg.Validate()
	*v.cfg = cfg
	if v.onApply != nil {
		v.onApply(v.cfg)
	}
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		return
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
}

func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	return i, err == nil
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
