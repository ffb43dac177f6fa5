// Package theme holds the palette and ttk styles of the monitor window.
package theme

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Light palette.
const (
	ColorBg        = "#f7f9fb"
	ColorSurface   = "#ffffff"
	ColorBorder    = "#d0d7de"
	ColorPrimary   = "#2563eb"
	ColorDanger    = "#dc2626"
	ColorWarning   = "#d97706"
	ColorAccent    = "#10b981"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// Style names for Style(...) options.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStateLabel    = "state.TLabel"
	StyleIdleLabel     = "idle.TLabel"
)

// Colors is the resolved color set for one mode.
type Colors struct {
	AppBg     string
	Surface   string
	Border    string
	Primary   string
	Danger    string
	Warning   string
	Accent    string
	Text      string
	TextMuted string
}

var (
	light = Colors{
		AppBg: ColorBg, Surface: ColorSurface, Border: ColorBorder,
		Primary: ColorPrimary, Danger: ColorDanger, Warning: ColorWarning,
		Accent: ColorAccent, Text: ColorText, TextMuted: ColorTextMuted,
	}
	dark = Colors{
		AppBg: "#0f172a", Surface: "#1e293b", Border: "#334155",
		Primary: "#3b82f6", Danger: "#ef4444", Warning: "#f59e0b",
		Accent: "#34d399", Text: "#f1f5f9", TextMuted: "#94a3b8",
	}
	darkMode bool
)

// Current returns the palette of the active mode.
func Current() Colors {
	if darkMode {
		return dark
	}
	return light
}

// LevelColor maps a reading level ("low", "medium", "high") to green, amber
// or red in the active palette.
func LevelColor(level string) string {
	p := Current()
	switch level {
	case "high":
		return p.Danger
	case "medium":
		return p.Warning
	default:
		return p.Accent
	}
}

// CalibrationStyle picks the label style for the calibration state.
func CalibrationStyle(calibrated bool) string {
	if calibrated {
		return StyleStateLabel
	}
	return StyleIdleLabel
}

// InitStyles applies styles for the current mode.
func InitStyles() { apply(Current()) }

// ToggleDark flips dark mode, reapplies styles and returns the new mode.
func ToggleDark() bool {
	darkMode = !darkMode
	apply(Current())
	return darkMode
}

func apply(p Colors) {
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))

	button := func(name, bg string) {
		StyleConfigure(name, Background(bg), Foreground("white"), Padding("4p 3p"), Borderwidth(1), Relief("ridge"))
	}
	button(StylePrimaryButton, p.Primary)
	button(StyleDangerButton, p.Danger)

	badge := func(name, bg string) {
		StyleConfigure(name, Background(bg), Foreground("white"), Padding("4p 2p"), Borderwidth(1), Relief("groove"))
	}
	badge(StyleStateLabel, p.Accent)
	badge(StyleIdleLabel, p.Warning)
}
