package theme

import (
	"os"
	"runtime"
	"testing"
)

func needDisplay(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		t.Skip("no display")
	}
}

func TestLevelColor_FollowsMode(t *testing.T) {
	needDisplay(t)
	defer func() { darkMode = false }()

	for _, dm := range []bool{false, true} {
		darkMode = dm
		c := Current()
		cases := map[string]string{"high": c.Danger, "medium": c.Warning, "low": c.Accent, "": c.Accent}
		for level, want := range cases {
			if got := LevelColor(level); got != want {
				t.Errorf("dark=%v LevelColor(%q) = %s, want %s", dm, level, got, want)
			}
		}
	}
	if light == dark {
		t.Error("light and dark colors must differ")
	}
}

func TestCalibrationStyle(t *testing.T) {
	needDisplay(t)
	if CalibrationStyle(true) != StyleStateLabel || CalibrationStyle(false) != StyleIdleLabel {
		t.Error("unexpected calibration styles")
	}
}
