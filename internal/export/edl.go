// Package export renders timeline projects into interchange formats.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/starford/montage/internal/timeline"
)

// DefaultFrameRate is used when the requested rate is not positive.
const DefaultFrameRate = 30.0

const (
	reelName     = "AX"
	maxClipName  = 64
	defaultTitle = "Untitled"
)

// Event is one cut in an edit decision list. Times are in seconds.
type Event struct {
	ClipName  string
	MediaPath string
	Channel   string
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
	RecordOut float64
}

// Events lists the media clips of p as cuts ordered by record time. Text
// clips and clips on muted tracks are left out. Ties keep track order.
func Events(p timeline.Project) []Event {
	var events []Event
	for _, t := range p.Tracks {
		if t.IsMuted {
			continue
		}
		channel := "V"
		if t.Kind == timeline.TrackAudio {
			channel = "A"
		}
		for _, c := range t.Clips {
			if c.Kind == timeline.KindText {
				continue
			}
			speed := c.Properties.Speed
			if speed <= 0 || !c.Kind.IsTimed() {
				speed = 1
			}
			events = append(events, Event{
				ClipName:  c.Name,
				MediaPath: c.MediaSrc,
				Channel:   channel,
				SourceIn:  0,
				SourceOut: c.Duration * speed,
				RecordIn:  c.Start,
				RecordOut: c.End(),
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].RecordIn < events[j].RecordIn
	})
	return events
}

// GenerateEDL renders p as a CMX3600 edit decision list.
func GenerateEDL(p timeline.Project, title string, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	fps := int(math.Round(frameRate))
	dropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01
	timecode := func(sec float64) string { return toTimecode(sec, fps) }
	if dropFrame {
		timecode = func(sec float64) string { return toDropTimecode(sec, fps) }
	}

	title = SanitizeName(title, maxClipName)
	if title == "" {
		title = defaultTitle
	}

	lines := []string{"TITLE: " + title}
	if dropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range Events(p) {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s",
				i+1, reelName, ev.Channel,
				timecode(ev.SourceIn), timecode(ev.SourceOut),
				timecode(ev.RecordIn), timecode(ev.RecordOut)),
			"* FROM CLIP NAME:  "+SanitizeName(ev.ClipName, maxClipName),
		)
		if ev.MediaPath != "" {
			lines = append(lines, "* MEDIA PATH:  "+ev.MediaPath)
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// toTimecode renders seconds as HH:MM:SS:FF.
func toTimecode(sec float64, fps int) string {
	if sec < 0 {
		sec = 0
	}
	totalFrames := int(math.Round(sec * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", totalMinutes/60, totalMinutes%60, seconds, frames)
}

// toDropTimecode renders seconds as HH:MM:SS;FF in drop-frame counting for
// the NTSC rate whose nominal rate is fps (30 or 60). Frame numbers 0 and 1
// (0 to 3 at 60) are skipped at the start of every minute not divisible
// by ten.
func toDropTimecode(sec float64, fps int) string {
	if sec < 0 {
		sec = 0
	}
	drop := fps / 15
	perMinute := fps*60 - drop
	perTenMinutes := perMinute*10 + drop

	frames := int(math.Round(sec * float64(fps) * 1000 / 1001))
	tens, rem := frames/perTenMinutes, frames%perTenMinutes
	frames += drop * 9 * tens
	if rem > drop {
		frames += drop * ((rem - drop) / perMinute)
	}

	ff := frames % fps
	totalSeconds := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d;%02d", totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, ff)
}
