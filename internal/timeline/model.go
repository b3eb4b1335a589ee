// Package timeline holds the editing data model and the temporal-composition
// engine: clip placement, time/pixel mapping, playhead ticks and active-clip
// resolution. Every operation is a pure Project -> Project transition.
package timeline

// TrackKind is the lane type of a Track.
type TrackKind string

// Track kinds.
const (
	TrackVisual TrackKind = "visual"
	TrackAudio  TrackKind = "audio"
)

// Valid reports whether k is a known track kind.
func (k TrackKind) Valid() bool {
	return k == TrackVisual || k == TrackAudio
}

// ClipKind is the content type of a Clip or Asset.
type ClipKind string

// Clip kinds.
const (
	KindVideo ClipKind = "video"
	KindAudio ClipKind = "audio"
	KindText  ClipKind = "text"
	KindImage ClipKind = "image"
)

// Valid reports whether k is a known clip kind.
func (k ClipKind) Valid() bool {
	switch k {
	case KindVideo, KindAudio, KindText, KindImage:
		return true
	}
	return false
}

// IsTimed reports whether the kind carries its own media length.
func (k ClipKind) IsTimed() bool {
	return k == KindVideo || k == KindAudio
}

// TrackKind returns the lane kind a clip of this kind is placed on.
func (k ClipKind) TrackKind() TrackKind {
	if k == KindAudio {
		return TrackAudio
	}
	return TrackVisual
}

// ClipProperties is the per-clip transform and audio value object.
// Every clip carries all fields; fields irrelevant to a kind are ignored.
type ClipProperties struct {
	Opacity   float64 `json:"opacity"`
	Scale     float64 `json:"scale"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
	Rotation  float64 `json:"rotation"`
	Volume    float64 `json:"volume"`
	Speed     float64 `json:"speed"`
}

// DefaultProperties returns the properties a freshly placed clip starts with.
func DefaultProperties() ClipProperties {
	return ClipProperties{
		Opacity: 100,
		Scale:   100,
		Volume:  100,
		Speed:   1,
	}
}

// PropertiesPatch is a partial ClipProperties update. Nil fields are left untouched.
type PropertiesPatch struct {
	Opacity   *float64 `json:"opacity,omitempty"`
	Scale     *float64 `json:"scale,omitempty"`
	PositionX *float64 `json:"positionX,omitempty"`
	PositionY *float64 `json:"positionY,omitempty"`
	Rotation  *float64 `json:"rotation,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
}

// Empty reports whether the patch sets no field.
func (pp PropertiesPatch) Empty() bool {
	return pp.Opacity == nil && pp.Scale == nil && pp.PositionX == nil &&
		pp.PositionY == nil && pp.Rotation == nil && pp.Volume == nil && pp.Speed == nil
}

// Apply merges the patch into props and returns the result.
func (pp PropertiesPatch) Apply(props ClipProperties) ClipProperties {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&props.Opacity, pp.Opacity)
	set(&props.Scale, pp.Scale)
	set(&props.PositionX, pp.PositionX)
	set(&props.PositionY, pp.PositionY)
	set(&props.Rotation, pp.Rotation)
	set(&props.Volume, pp.Volume)
	set(&props.Speed, pp.Speed)
	return props
}

// Clip is a timed placement of content on a track.
type Clip struct {
	ID          string         `json:"id"`
	TrackID     string         `json:"trackId"`
	Kind        ClipKind       `json:"kind"`
	Name        string         `json:"name"`
	Start       float64        `json:"start"`
	Duration    float64        `json:"duration"`
	MediaSrc    string         `json:"mediaSrc,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
	Properties  ClipProperties `json:"properties"`
}

// End returns the timeline-absolute end of the clip (exclusive).
func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// LiveAt reports whether the clip covers time t, using a half-open interval.
func (c Clip) LiveAt(t float64) bool {
	return c.Start <= t && t < c.End()
}

// Track is an ordered lane of clips. Every clip in Clips has TrackID == ID.
type Track struct {
	ID       string    `json:"id"`
	Kind     TrackKind `json:"kind"`
	IsMuted  bool      `json:"isMuted"`
	IsLocked bool      `json:"isLocked"`
	Clips    []Clip    `json:"clips"`
}

// Asset is an already-described media record handed to placement.
// Duration is nil when the media length is unknown.
type Asset struct {
	ID        string   `json:"id"`
	Kind      ClipKind `json:"kind"`
	URL       string   `json:"url"`
	Name      string   `json:"name"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

// Project is one immutable snapshot of the editing state.
// Track order is z-order: later tracks composite above earlier ones.
type Project struct {
	Tracks         []Track `json:"tracks"`
	CurrentTime    float64 `json:"currentTime"`
	Duration       float64 `json:"duration"`
	SelectedClipID string  `json:"selectedClipId,omitempty"`
	IsPlaying      bool    `json:"isPlaying"`

	index clipIndex
}

// Default project skeleton values.
const (
	DefaultDuration = 60.0
	visualTrackID   = "1"
	audioTrackID    = "2"
)

// NewProject returns the session skeleton: one visual and one audio track.
func NewProject() Project {
	p := Project{
		Tracks: []Track{
			{ID: visualTrackID, Kind: TrackVisual, Clips: []Clip{}},
			{ID: audioTrackID, Kind: TrackAudio, Clips: []Clip{}},
		},
		Duration: DefaultDuration,
	}
	return p.reindexed()
}

// Clone returns a deep copy of p. Operations never need it; callers that
// hand a snapshot to code outside this package may.
func (p Project) Clone() Project {
	out := p
	out.Tracks = make([]Track, len(p.Tracks))
	for i, t := range p.Tracks {
		clips := make([]Clip, len(t.Clips))
		copy(clips, t.Clips)
		out.Tracks[i] = t
		out.Tracks[i].Clips = clips
	}
	return out
}

// ClipCount returns the number of clips across all tracks.
func (p Project) ClipCount() int {
	n := 0
	for _, t := range p.Tracks {
		n += len(t.Clips)
	}
	return n
}

// Reindex returns p with a fresh clip index. Projects decoded or assembled
// outside this package work without one but fall back to linear lookup.
func (p Project) Reindex() Project {
	return p.reindexed()
}
