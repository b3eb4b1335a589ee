package timeline

// PlaceholderSrc is shown for image and video clips without a media locator.
const PlaceholderSrc = "https://picsum.photos/1280/720"

// Transform is the visual subset of ClipProperties applied to a frame.
type Transform struct {
	Opacity   float64 `json:"opacity"`
	Scale     float64 `json:"scale"`
	Rotation  float64 `json:"rotation"`
	PositionX float64 `json:"positionX"`
	PositionY float64 `json:"positionY"`
}

func transformOf(p ClipProperties) Transform {
	return Transform{
		Opacity:   p.Opacity,
		Scale:     p.Scale,
		Rotation:  p.Rotation,
		PositionX: p.PositionX,
		PositionY: p.PositionY,
	}
}

// FrameKind tags the Frame variants.
type FrameKind string

// Frame variants.
const (
	FrameText  FrameKind = "text"
	FrameMedia FrameKind = "media"
	FrameAudio FrameKind = "audio"
)

// Frame is what the primary clip asks the renderer to draw. It is one of
// TextFrame, MediaFrame or AudioFrame.
type Frame interface {
	FrameKind() FrameKind
	ClipID() string
}

// TextFrame draws text with a transform.
type TextFrame struct {
	Clip      string    `json:"clipId"`
	Text      string    `json:"text"`
	Transform Transform `json:"transform"`
}

// MediaFrame draws an image or the current video frame of Src.
type MediaFrame struct {
	Clip      string    `json:"clipId"`
	Kind      ClipKind  `json:"kind"`
	Src       string    `json:"src"`
	Offset    float64   `json:"offset"`
	Transform Transform `json:"transform"`
}

// AudioFrame carries no pixels; it signals that audio is playing.
type AudioFrame struct {
	Clip string `json:"clipId"`
}

func (f TextFrame) FrameKind() FrameKind  { return FrameText }
func (f MediaFrame) FrameKind() FrameKind { return FrameMedia }
func (f AudioFrame) FrameKind() FrameKind { return FrameAudio }

func (f TextFrame) ClipID() string  { return f.Clip }
func (f MediaFrame) ClipID() string { return f.Clip }
func (f AudioFrame) ClipID() string { return f.Clip }

// AudioClipView is one live audio clip the renderer mixes at a time.
type AudioClipView struct {
	ClipID  string  `json:"clipId"`
	TrackID string  `json:"trackId"`
	Src     string  `json:"src"`
	Volume  float64 `json:"volume"`
	Speed   float64 `json:"speed"`
	// Offset is the position inside the source media, in seconds.
	Offset float64 `json:"offset"`
}

// LiveClips returns the clips live at t on non-muted tracks of kind, in
// track order then clip order.
func LiveClips(p Project, kind TrackKind, t float64) []Clip {
	var out []Clip
	for _, tr := range p.Tracks {
		if tr.Kind != kind || tr.IsMuted {
			continue
		}
		for _, c := range tr.Clips {
			if c.LiveAt(t) {
				out = append(out, c)
			}
		}
	}
	return out
}

// PrimaryClip returns the clip driving the preview at t: the last live clip
// on a visual track. Later tracks and later clips win ties.
func PrimaryClip(p Project, t float64) (Clip, bool) {
	live := LiveClips(p, TrackVisual, t)
	if len(live) == 0 {
		return Clip{}, false
	}
	return live[len(live)-1], true
}

// ResolveActiveVisual resolves the frame at t. It reports false for the
// "no frame" state, which is not an error.
func ResolveActiveVisual(p Project, t float64) (Frame, bool) {
	c, ok := PrimaryClip(p, t)
	if !ok {
		return nil, false
	}
	switch c.Kind {
	case KindText:
		text := c.TextContent
		if text == "" {
			text = c.Name
		}
		return TextFrame{Clip: c.ID, Text: text, Transform: transformOf(c.Properties)}, true
	case KindImage, KindVideo:
		src := c.MediaSrc
		if src == "" {
			src = PlaceholderSrc
		}
		f := MediaFrame{Clip: c.ID, Kind: c.Kind, Src: src, Transform: transformOf(c.Properties)}
		if c.Kind == KindVideo {
			f.Offset = sourceOffset(c, t)
		}
		return f, true
	default:
		return AudioFrame{Clip: c.ID}, true
	}
}

// ResolveActiveAudio returns every live audio clip at t for mixing.
func ResolveActiveAudio(p Project, t float64) []AudioClipView {
	live := LiveClips(p, TrackAudio, t)
	out := make([]AudioClipView, 0, len(live))
	for _, c := range live {
		out = append(out, AudioClipView{
			ClipID:  c.ID,
			TrackID: c.TrackID,
			Src:     c.MediaSrc,
			Volume:  c.Properties.Volume,
			Speed:   c.Properties.Speed,
			Offset:  sourceOffset(c, t),
		})
	}
	return out
}

func sourceOffset(c Clip, t float64) float64 {
	speed := c.Properties.Speed
	if speed <= 0 {
		speed = 1
	}
	return (t - c.Start) * speed
}

// FrameNone is the preview kind when no visual clip is live.
const FrameNone FrameKind = "none"

// Preview bundles everything a renderer needs at one instant.
type Preview struct {
	Time      float64         `json:"time"`
	Timecode  string          `json:"timecode"`
	FrameKind FrameKind       `json:"frameKind"`
	Frame     Frame           `json:"frame,omitempty"`
	Audio     []AudioClipView `json:"audio"`
}

// ResolvePreview resolves both the visual frame and the audio set at t.
func ResolvePreview(p Project, t float64) Preview {
	pv := Preview{
		Time:      t,
		Timecode:  FormatTimecode(t),
		FrameKind: FrameNone,
		Audio:     ResolveActiveAudio(p, t),
	}
	if f, ok := ResolveActiveVisual(p, t); ok {
		pv.Frame = f
		pv.FrameKind = f.FrameKind()
	}
	return pv
}
