package timeline

import (
	"math"

	"github.com/google/uuid"
)

// newID generates clip and track ids. Tests swap it for a deterministic source.
var newID = uuid.NewString

// AddTrack appends an empty visual track with a fresh id.
func AddTrack(p Project) Project {
	return AddTrackOfKind(p, TrackVisual)
}

// AddTrackOfKind appends an empty track of the given kind. Unknown kinds
// produce a visual track.
func AddTrackOfKind(p Project, kind TrackKind) Project {
	if !kind.Valid() {
		kind = TrackVisual
	}
	tracks := make([]Track, len(p.Tracks), len(p.Tracks)+1)
	copy(tracks, p.Tracks)
	p.Tracks = append(tracks, Track{ID: newID(), Kind: kind, Clips: []Clip{}})
	return p.reindexed()
}

// FindClip returns the clip with the given id. The first match across
// tracks wins.
func FindClip(p Project, clipID string) (Clip, bool) {
	loc, ok := p.locate(clipID)
	if !ok {
		return Clip{}, false
	}
	return p.Tracks[loc.track].Clips[loc.clip], true
}

// SelectedClip resolves the current selection. A dangling selection id
// resolves to no clip.
func SelectedClip(p Project) (Clip, bool) {
	return FindClip(p, p.SelectedClipID)
}

// FindTrack returns the track with the given id.
func FindTrack(p Project, trackID string) (Track, bool) {
	i := p.trackIndex(trackID)
	if i < 0 {
		return Track{}, false
	}
	return p.Tracks[i], true
}

// SelectClip sets the selection without validating it. An empty id clears it.
func SelectClip(p Project, clipID string) Project {
	p.SelectedClipID = clipID
	return p
}

// UpdateClipProperties merges patch into the properties of clip clipID.
// An unknown id returns p unchanged.
func UpdateClipProperties(p Project, clipID string, patch PropertiesPatch) Project {
	loc, ok := p.locate(clipID)
	if !ok {
		return p
	}
	return p.withClip(loc, func(c Clip) Clip {
		c.Properties = patch.Apply(c.Properties)
		return c
	})
}

// RemoveClip deletes clip clipID and clears the selection if it pointed at
// it. An unknown id returns p unchanged.
func RemoveClip(p Project, clipID string) Project {
	loc, ok := p.locate(clipID)
	if !ok {
		return p
	}
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	old := tracks[loc.track].Clips
	clips := make([]Clip, 0, len(old)-1)
	clips = append(clips, old[:loc.clip]...)
	clips = append(clips, old[loc.clip+1:]...)
	tracks[loc.track].Clips = clips
	p.Tracks = tracks
	if p.SelectedClipID == clipID {
		p.SelectedClipID = ""
	}
	return p.reindexed()
}

// SetTrackMuted sets the mute flag of a track. Unknown ids are a no-op.
func SetTrackMuted(p Project, trackID string, muted bool) Project {
	return p.withTrack(trackID, func(t Track) Track {
		t.IsMuted = muted
		return t
	})
}

// SetTrackLocked sets the lock flag of a track. Unknown ids are a no-op.
func SetTrackLocked(p Project, trackID string, locked bool) Project {
	return p.withTrack(trackID, func(t Track) Track {
		t.IsLocked = locked
		return t
	})
}

// Seek moves the playhead. Negative times clamp to zero; times beyond the
// project duration are kept and handled by the next tick.
func Seek(p Project, t float64) Project {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	p.CurrentTime = t
	return p
}

// ExtendDuration grows the project duration to cover end plus padding.
// It never shrinks the duration.
func ExtendDuration(p Project, end, padding float64) Project {
	if want := end + padding; want > p.Duration {
		p.Duration = want
	}
	return p
}

// withClip returns p with the clip at loc replaced by fn's result. Only the
// touched track and clip slices are copied.
func (p Project) withClip(loc clipLoc, fn func(Clip) Clip) Project {
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	clips := make([]Clip, len(tracks[loc.track].Clips))
	copy(clips, tracks[loc.track].Clips)
	clips[loc.clip] = fn(clips[loc.clip])
	tracks[loc.track].Clips = clips
	p.Tracks = tracks
	return p
}

func (p Project) withTrack(trackID string, fn func(Track) Track) Project {
	i := p.trackIndex(trackID)
	if i < 0 {
		return p
	}
	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	tracks[i] = fn(tracks[i])
	p.Tracks = tracks
	return p
}
