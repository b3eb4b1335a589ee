package timeline

import (
	"fmt"
	"math"
)

// Zoom defaults, in pixels per second.
const (
	DefaultZoom     = 20.0
	DefaultZoomMin  = 5.0
	DefaultZoomMax  = 100.0
	DefaultZoomStep = 1.2
)

// TimeToPixel maps seconds to a horizontal offset at zoom pixels per second.
func TimeToPixel(t, zoom float64) float64 {
	return t * zoom
}

// PixelToTime maps a horizontal offset back to seconds, clamped at zero.
func PixelToTime(x, zoom float64) float64 {
	if zoom <= 0 {
		return 0
	}
	return math.Max(0, x/zoom)
}

// SeekFromPointer converts a pointer position to a playhead time. originX is
// the left edge of the track area and scrollLeft its horizontal scroll.
// There is no upper clamp.
func SeekFromPointer(pointerX, originX, scrollLeft, zoom float64) float64 {
	return PixelToTime(pointerX-originX+scrollLeft, zoom)
}

// ZoomRange bounds zoom and sets its multiplicative step.
type ZoomRange struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultZoomRange returns the stock [5, 100] range with a 1.2 step.
func DefaultZoomRange() ZoomRange {
	return ZoomRange{Min: DefaultZoomMin, Max: DefaultZoomMax, Step: DefaultZoomStep}
}

// Clamp bounds z to the range.
func (r ZoomRange) Clamp(z float64) float64 {
	return math.Min(math.Max(z, r.Min), r.Max)
}

// In zooms in one step.
func (r ZoomRange) In(z float64) float64 {
	return math.Min(z*r.Step, r.Max)
}

// Out zooms out one step.
func (r ZoomRange) Out(z float64) float64 {
	return math.Max(z/r.Step, r.Min)
}

// RulerTick is one ruler mark.
type RulerTick struct {
	Second int     `json:"second"`
	X      float64 `json:"x"`
	Major  bool    `json:"major"`
	Label  string  `json:"label,omitempty"`
}

// RulerMajorStep is the number of seconds between labelled ticks.
const RulerMajorStep = 5

// rulerOverscan is how many seconds of ticks are drawn past the end.
const rulerOverscan = 30

// minorTickZoom is the zoom below which only major ticks are drawn.
const minorTickZoom = 10.0

// RulerTicks generates one tick per second up to the duration rounded up to
// a major step plus overscan. Minor ticks are dropped when zoomed out.
func RulerTicks(duration, zoom float64) []RulerTick {
	if duration < 0 {
		duration = 0
	}
	last := int(math.Ceil(duration/RulerMajorStep))*RulerMajorStep + rulerOverscan
	ticks := make([]RulerTick, 0, last+1)
	for i := 0; i <= last; i++ {
		major := i%RulerMajorStep == 0
		if !major && zoom < minorTickZoom {
			continue
		}
		t := RulerTick{Second: i, X: TimeToPixel(float64(i), zoom), Major: major}
		if major {
			t.Label = FormatRulerLabel(float64(i))
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// FormatRulerLabel renders whole seconds as m:ss.
func FormatRulerLabel(t float64) string {
	mins := int(t) / 60
	secs := int(math.Mod(t, 60))
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// FormatClock renders t as m:ss.ss, the timeline header format.
func FormatClock(t float64) string {
	mins := int(math.Floor(t / 60))
	return fmt.Sprintf("%d:%05.2f", mins, math.Mod(t, 60))
}

// FormatTimecode renders t as mm:ss.ss, the preview overlay format.
func FormatTimecode(t float64) string {
	mins := int(math.Floor(t / 60))
	return fmt.Sprintf("%02d:%05.2f", mins, math.Mod(t, 60))
}
