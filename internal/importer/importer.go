// Package importer turns foreign project formats into timeline projects.
package importer

import (
	"errors"

	"github.com/google/uuid"

	"github.com/starford/montage/internal/timeline"
)

// ErrNoProject is returned, possibly wrapped, when the input cannot yield a
// complete project. Adapters never return a partial project.
var ErrNoProject = errors.New("no project")

// Duration rules for imported projects, in seconds.
const (
	DefaultPadding = 5.0
	DefaultFloor   = 60.0
)

// Adapter converts one foreign format into a project snapshot.
type Adapter interface {
	Name() string
	Import(data []byte) (*timeline.Project, error)
}

// newID generates track and clip ids for imported content.
var newID = uuid.NewString

// Finalize assembles tracks into a stopped, unselected project whose
// duration is max(latest clip end + padding, floor).
func Finalize(tracks []timeline.Track, padding, floor float64) timeline.Project {
	maxEnd := 0.0
	for _, t := range tracks {
		for _, c := range t.Clips {
			if end := c.End(); end > maxEnd {
				maxEnd = end
			}
		}
	}
	duration := maxEnd + padding
	if duration < floor {
		duration = floor
	}
	p := timeline.Project{
		Tracks:   tracks,
		Duration: duration,
	}
	return p.Reindex()
}

// SourceLookup resolves a clip name to a media locator.
type SourceLookup func(name string) (string, bool)

// Relink fills the empty media source of video, audio and image clips by
// looking their names up. It returns the new project and how many clips
// were linked; p is returned unchanged when nothing matched.
func Relink(p timeline.Project, lookup SourceLookup) (timeline.Project, int) {
	if lookup == nil {
		return p, 0
	}
	var out timeline.Project
	linked := 0
	for ti, t := range p.Tracks {
		for ci, c := range t.Clips {
			if c.MediaSrc != "" || c.Kind == timeline.KindText {
				continue
			}
			src, ok := lookup(c.Name)
			if !ok || src == "" {
				continue
			}
			if linked == 0 {
				out = p.Clone()
			}
			out.Tracks[ti].Clips[ci].MediaSrc = src
			linked++
		}
	}
	if linked == 0 {
		return p, 0
	}
	return out, linked
}

// MissingSources lists the distinct names of clips that still need media.
func MissingSources(p timeline.Project) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, t := range p.Tracks {
		for _, c := range t.Clips {
			if c.MediaSrc != "" || c.Kind == timeline.KindText {
				continue
			}
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			names = append(names, c.Name)
		}
	}
	return names
}
