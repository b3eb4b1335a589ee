package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/montage/internal/timeline"
)

// microsPerSecond converts CapCut's microsecond ranges to seconds.
const microsPerSecond = 1e6

// Fallback names for CapCut materials.
const (
	textLayerName    = "Text Layer"
	videoAssetName   = "Video Asset"
	audioAssetName   = "Audio Asset"
	unknownVideoName = "Unknown Video"
	unknownAudioName = "Unknown Audio"
)

// CapCut imports draft_content.json files written by CapCut (JianYing).
type CapCut struct {
	// Padding and Floor control the imported duration. Zero values use
	// DefaultPadding and DefaultFloor.
	Padding float64
	Floor   float64
}

type capcutDraft struct {
	Materials *capcutMaterials `json:"materials"`
	Tracks    []capcutTrack    `json:"tracks"`
}

type capcutMaterials struct {
	Videos []capcutMedia `json:"videos"`
	Audios []capcutMedia `json:"audios"`
	Texts  []capcutText  `json:"texts"`
}

type capcutMedia struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Duration int64  `json:"duration"`
	Type     string `json:"type"`
}

type capcutText struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type capcutTrack struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Segments []capcutSegment `json:"segments"`
}

type capcutSegment struct {
	ID         string           `json:"id"`
	MaterialID string           `json:"material_id"`
	Target     *capcutTimerange `json:"target_timerange"`
}

type capcutTimerange struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

type material struct {
	kind    timeline.ClipKind
	name    string
	content string
}

// Name implements Adapter.
func (CapCut) Name() string { return "capcut" }

// Import implements Adapter.
func (a CapCut) Import(data []byte) (*timeline.Project, error) {
	var draft capcutDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("capcut: decode draft: %w: %v", ErrNoProject, err)
	}
	if draft.Materials == nil {
		return nil, fmt.Errorf("capcut: draft has no materials: %w", ErrNoProject)
	}
	materials := draft.Materials.index()

	var tracks []timeline.Track
	for _, ct := range draft.Tracks {
		if len(ct.Segments) == 0 {
			continue
		}
		trackID := newID()
		kind := timeline.TrackVisual
		if m, ok := materials[ct.Segments[0].MaterialID]; ok && m.kind == timeline.KindAudio {
			kind = timeline.TrackAudio
		}

		clips := make([]timeline.Clip, 0, len(ct.Segments))
		for _, seg := range ct.Segments {
			m, ok := materials[seg.MaterialID]
			if !ok {
				continue
			}
			if seg.Target == nil {
				return nil, fmt.Errorf("capcut: segment %q has no target range: %w", seg.ID, ErrNoProject)
			}
			if seg.Target.Duration <= 0 {
				continue
			}
			content := m.content
			if content == "" {
				content = m.name
			}
			c := timeline.Clip{
				ID:         newID(),
				TrackID:    trackID,
				Kind:       m.kind,
				Name:       m.name,
				Start:      float64(seg.Target.Start) / microsPerSecond,
				Duration:   float64(seg.Target.Duration) / microsPerSecond,
				Properties: timeline.DefaultProperties(),
			}
			if m.kind == timeline.KindText {
				c.TextContent = content
			}
			clips = append(clips, c)
		}
		tracks = append(tracks, timeline.Track{ID: trackID, Kind: kind, Clips: clips})
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("capcut: draft has no usable tracks: %w", ErrNoProject)
	}

	padding, floor := a.Padding, a.Floor
	if padding <= 0 {
		padding = DefaultPadding
	}
	if floor <= 0 {
		floor = DefaultFloor
	}
	p := Finalize(tracks, padding, floor)
	return &p, nil
}

func (m *capcutMaterials) index() map[string]material {
	out := make(map[string]material, len(m.Videos)+len(m.Audios)+len(m.Texts))
	for _, v := range m.Videos {
		kind := timeline.KindVideo
		if v.Type == "photo" {
			kind = timeline.KindImage
		}
		out[v.ID] = material{kind: kind, name: mediaName(v.Path, videoAssetName, unknownVideoName)}
	}
	for _, v := range m.Audios {
		out[v.ID] = material{kind: timeline.KindAudio, name: mediaName(v.Path, audioAssetName, unknownAudioName)}
	}
	for _, t := range m.Texts {
		out[t.ID] = material{kind: timeline.KindText, name: textLayerName, content: textContent(t.Content)}
	}
	return out
}

// mediaName returns the file name of a Windows or POSIX path.
func mediaName(path, noPath, noName string) string {
	if path == "" {
		return noPath
	}
	i := strings.LastIndexAny(path, `/\`)
	name := path[i+1:]
	if name == "" {
		return noName
	}
	return name
}

// textContent unwraps CapCut's rich text document, which stores the plain
// text under "text". Anything else is taken verbatim.
func textContent(raw string) string {
	if raw == "" {
		return textLayerName
	}
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var doc struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil && doc.Text != nil && *doc.Text != "" {
			return *doc.Text
		}
	}
	return raw
}
