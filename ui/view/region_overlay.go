package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/soocke/curvature-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// RegionOverlay is a transparent, resizable window used to pick the screen
// region captured by the screen source.
type RegionOverlay interface {
	OpenOrFocus()
	Clear()
	ActiveRect() *image.Rectangle
}

type regionOverlay struct {
	logger    *slog.Logger
	cfg       *config.Config
	cfgPath   string
	selection atomic.Value // image.Rectangle
	win       *ToplevelWidget
}

// NewRegionOverlay restores the last saved region from cfg.
func NewRegionOverlay(cfg *config.Config, cfgPath string, logger *slog.Logger) RegionOverlay {
	v := &regionOverlay{logger: logger, cfg: cfg, cfgPath: cfgPath}
	if cfg != nil && cfg.ScreenRegionW > 0 && cfg.ScreenRegionH > 0 {
		v.selection.Store(image.Rect(cfg.ScreenRegionX, cfg.ScreenRegionY, cfg.ScreenRegionX+cfg.ScreenRegionW, cfg.ScreenRegionY+cfg.ScreenRegionH))
	}
	return v
}

func (v *regionOverlay) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Capture Region")
	v.win = win
	initW, initH := 640, 480
	x, y := 100, 100
	if r := v.ActiveRect(); r != nil {
		initW, initH, x, y = r.Dx(), r.Dy(), r.Min.X, r.Min.Y
	}
	WmGeometry(win.Window, fmt.Sprintf("%dx%d+%d+%d", initW, initH, x, y))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.4)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(0), Sticky("nsew"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Sticky("we"))
	confirm := win.Button(Txt("Confirm [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.destroy))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clear := win.Button(Txt("Full Screen"), Command(func() { v.Clear(); v.destroy() }))
	Grid(clear, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.destroy))
}

func (v *regionOverlay) Clear() {
	v.selection.Store(image.Rectangle{})
	if v.cfg != nil {
		v.cfg.ScreenRegionW, v.cfg.ScreenRegionH = 0, 0
		v.save()
	}
}

func (v *regionOverlay) confirm() {
	if v.win == nil {
		return
	}
	if rect, ok := parseGeometry(WmGeometry(v.win.Window)); ok {
		v.selection.Store(rect)
		if v.cfg != nil {
			v.cfg.ScreenRegionX, v.cfg.ScreenRegionY = rect.Min.X, rect.Min.Y
			v.cfg.ScreenRegionW, v.cfg.ScreenRegionH = rect.Dx(), rect.Dy()
			v.save()
		}
		if v.logger != nil {
			v.logger.Info("capture region selected", "region", rect.String())
		}
	}
	v.destroy()
}

func (v *regionOverlay) save() {
	if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
		v.logger.Error("config save failed", "error", err)
	}
}

func (v *regionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *regionOverlay) ActiveRect() *image.Rectangle {
	r, ok := v.selection.Load().(image.Rectangle)
	if !ok || r.Empty() {
		return nil
	}
	return &r
}

// geomRe matches Tk geometry strings "WIDTHxHEIGHT+X+Y".
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

func parseGeometry(g string) (image.Rectangle, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
