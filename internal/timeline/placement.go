package timeline

// Placement defaults, in seconds.
const (
	DefaultMediaDuration = 10.0
	DefaultStillDuration = 5.0
	DefaultPadding       = 5.0
)

// Policy holds the placement fallbacks. The zero value is not useful; start
// from DefaultPolicy.
type Policy struct {
	// MediaDuration is used for video and audio assets of unknown length.
	MediaDuration float64
	// StillDuration is used for image and text assets of unknown length.
	StillDuration float64
	// Padding is added past a placed clip's end when the project grows to fit it.
	Padding float64
}

// DefaultPolicy returns the stock placement policy.
func DefaultPolicy() Policy {
	return Policy{
		MediaDuration: DefaultMediaDuration,
		StillDuration: DefaultStillDuration,
		Padding:       DefaultPadding,
	}
}

// ResolveDuration picks a clip length for asset: its own duration when known
// and positive, else the kind fallback.
func (pol Policy) ResolveDuration(a Asset) float64 {
	if a.Duration != nil && *a.Duration > 0 {
		return *a.Duration
	}
	if a.Kind.IsTimed() {
		return pol.MediaDuration
	}
	return pol.StillDuration
}

// NewClip builds the clip an asset becomes when placed on trackID at start.
func (pol Policy) NewClip(trackID string, start float64, a Asset) Clip {
	if start < 0 {
		start = 0
	}
	c := Clip{
		ID:         newID(),
		TrackID:    trackID,
		Kind:       a.Kind,
		Name:       a.Name,
		Start:      start,
		Duration:   pol.ResolveDuration(a),
		MediaSrc:   a.URL,
		Properties: DefaultProperties(),
	}
	if a.Kind == KindText {
		c.TextContent = a.Name
	}
	return c
}

// Place appends a clip for asset to track trackID, selects it and grows the
// project duration to fit. It reports false, returning p unchanged, when the
// track does not exist or is locked.
func (pol Policy) Place(p Project, trackID string, start float64, a Asset) (Project, bool) {
	ti := p.trackIndex(trackID)
	if ti < 0 || p.Tracks[ti].IsLocked {
		return p, false
	}
	clip := pol.NewClip(trackID, start, a)

	tracks := make([]Track, len(p.Tracks))
	copy(tracks, p.Tracks)
	clips := make([]Clip, len(tracks[ti].Clips), len(tracks[ti].Clips)+1)
	copy(clips, tracks[ti].Clips)
	tracks[ti].Clips = append(clips, clip)

	p.Tracks = tracks
	p.SelectedClipID = clip.ID
	p = ExtendDuration(p, clip.End(), pol.Padding)
	return p.reindexed(), true
}

// Add places asset at the playhead on the first track matching its kind.
// It reports false when no such track exists.
func (pol Policy) Add(p Project, a Asset) (Project, bool) {
	t, ok := TargetTrack(p, a.Kind)
	if !ok {
		return p, false
	}
	return pol.Place(p, t.ID, p.CurrentTime, a)
}

// TargetTrack returns the first track that accepts clips of kind: audio
// tracks for audio, visual tracks for everything else.
func TargetTrack(p Project, kind ClipKind) (Track, bool) {
	want := kind.TrackKind()
	for _, t := range p.Tracks {
		if t.Kind == want {
			return t, true
		}
	}
	return Track{}, false
}

// PlaceAsset places asset with the default policy. See Policy.Place.
func PlaceAsset(p Project, trackID string, start float64, a Asset) Project {
	out, _ := DefaultPolicy().Place(p, trackID, start, a)
	return out
}

// AddAsset adds asset at the playhead with the default policy. See Policy.Add.
func AddAsset(p Project, a Asset) Project {
	out, _ := DefaultPolicy().Add(p, a)
	return out
}
