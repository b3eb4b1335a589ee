package timeline

import "math"

// Playback cadence defaults.
const (
	DefaultTickStep = 0.1 // seconds added per tick
)

// tickPrecision is the resolution playhead arithmetic is rounded to, so that
// repeated 0.1s steps land exactly on whole durations.
const tickPrecision = 1e6

// Tick advances a playing project by step seconds. A project whose playhead
// has reached its duration stops and rewinds to zero instead of advancing.
// A stopped project is returned unchanged.
func Tick(p Project, step float64) Project {
	if !p.IsPlaying {
		return p
	}
	if p.CurrentTime >= p.Duration {
		p.IsPlaying = false
		p.CurrentTime = 0
		return p
	}
	p.CurrentTime = math.Round((p.CurrentTime+step)*tickPrecision) / tickPrecision
	return p
}

// SetPlaying sets the play flag.
func SetPlaying(p Project, playing bool) Project {
	p.IsPlaying = playing
	return p
}
