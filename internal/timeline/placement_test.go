package timeline

import (
	"reflect"
	"testing"
)

func TestResolveDuration(t *testing.T) {
	pol := DefaultPolicy()
	tests := []struct {
		name  string
		asset Asset
		want  float64
	}{
		{name: "image unknown", asset: testAsset(KindImage, "a.png", nil), want: 5},
		{name: "text unknown", asset: testAsset(KindText, "hi", nil), want: 5},
		{name: "video unknown", asset: testAsset(KindVideo, "a.mp4", nil), want: 10},
		{name: "audio unknown", asset: testAsset(KindAudio, "a.mp3", nil), want: 10},
		{name: "video known", asset: testAsset(KindVideo, "a.mp4", seconds(7.5)), want: 7.5},
		{name: "image known", asset: testAsset(KindImage, "a.png", seconds(2)), want: 2},
		{name: "zero falls back", asset: testAsset(KindVideo, "z.mp4", seconds(0)), want: 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := pol.ResolveDuration(tc.asset); got != tc.want {
				t.Errorf("ResolveDuration = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlaceAsset_BuildsClip(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 3, testAsset(KindVideo, "a.mp4", seconds(7.5)))

	clips := p.Tracks[0].Clips
	if len(clips) != 1 {
		t.Fatalf("clips = %d, want 1", len(clips))
	}
	c := clips[0]
	want := Clip{
		ID:         "id-1",
		TrackID:    "1",
		Kind:       KindVideo,
		Name:       "a.mp4",
		Start:      3,
		Duration:   7.5,
		MediaSrc:   "/media/a.mp4",
		Properties: DefaultProperties(),
	}
	if !reflect.DeepEqual(c, want) {
		t.Errorf("clip = %+v\nwant %+v", c, want)
	}
	if p.SelectedClipID != "id-1" {
		t.Errorf("selection = %q, want id-1", p.SelectedClipID)
	}
}

func TestPlaceAsset_TextUsesName(t *testing.T) {
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindText, "Title card", nil))
	c, _ := SelectedClip(p)
	if c.TextContent != "Title card" {
		t.Errorf("text content = %q", c.TextContent)
	}
	if c.Duration != 5 {
		t.Errorf("duration = %v, want 5", c.Duration)
	}
}

func TestPlaceAsset_UnknownTrackIsNoop(t *testing.T) {
	p := NewProject()
	next := PlaceAsset(p, "nope", 0, testAsset(KindImage, "a.png", nil))
	if !reflect.DeepEqual(next, p) {
		t.Errorf("placement on unknown track changed the project")
	}
	if len(next.Tracks) != 2 || next.ClipCount() != 0 {
		t.Errorf("tracks = %d, clips = %d", len(next.Tracks), next.ClipCount())
	}
}

func TestPlace_LockedTrackRefused(t *testing.T) {
	p := SetTrackLocked(NewProject(), "1", true)
	next, ok := DefaultPolicy().Place(p, "1", 0, testAsset(KindImage, "a.png", nil))
	if ok || next.ClipCount() != 0 {
		t.Errorf("locked track accepted a clip")
	}
}

func TestPlaceAsset_ExtendsDuration(t *testing.T) {
	p := NewProject()
	p = PlaceAsset(p, "1", 58, testAsset(KindVideo, "long.mp4", seconds(10)))
	if p.Duration != 73 {
		t.Errorf("duration = %v, want 73 (58+10+5)", p.Duration)
	}

	// A clip well inside the timeline never shrinks it.
	p = PlaceAsset(p, "1", 0, testAsset(KindImage, "a.png", nil))
	if p.Duration != 73 {
		t.Errorf("duration = %v, want 73", p.Duration)
	}
}

func TestPlaceAsset_DoesNotMutateInput(t *testing.T) {
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindImage, "a.png", nil))
	before := p.Clone()
	_ = PlaceAsset(p, "1", 5, testAsset(KindImage, "b.png", nil))
	if !reflect.DeepEqual(p.Tracks, before.Tracks) {
		t.Error("input tracks mutated by placement")
	}
}

func TestAddAsset_PicksTrackByKind(t *testing.T) {
	sequentialIDs(t)
	p := Seek(NewProject(), 4)

	p = AddAsset(p, testAsset(KindAudio, "song.mp3", nil))
	if len(p.Tracks[1].Clips) != 1 || p.Tracks[1].Clips[0].Start != 4 {
		t.Errorf("audio asset not on audio track at playhead: %+v", p.Tracks[1])
	}

	for _, k := range []ClipKind{KindVideo, KindImage, KindText} {
		p = AddAsset(p, testAsset(k, string(k), nil))
	}
	if len(p.Tracks[0].Clips) != 3 {
		t.Errorf("visual clips = %d, want 3", len(p.Tracks[0].Clips))
	}
}

func TestAddAsset_NoMatchingTrackIsNoop(t *testing.T) {
	p := Project{Tracks: []Track{{ID: "v", Kind: TrackVisual}}, Duration: 60}
	next, ok := DefaultPolicy().Add(p, testAsset(KindAudio, "song.mp3", nil))
	if ok {
		t.Fatal("expected no eligible track")
	}
	if !reflect.DeepEqual(next, p) {
		t.Error("project changed without an eligible track")
	}
}

func TestAddAsset_FirstMatchingTrack(t *testing.T) {
	p := AddTrack(NewProject())
	p = AddAsset(p, testAsset(KindImage, "a.png", nil))
	if len(p.Tracks[0].Clips) != 1 || len(p.Tracks[2].Clips) != 0 {
		t.Errorf("clip not on first visual track")
	}
}
