package timeline

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// sequentialIDs makes newID deterministic for the duration of a test.
func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = prev })
}

func testAsset(kind ClipKind, name string, duration *float64) Asset {
	return Asset{ID: "asset-" + name, Kind: kind, URL: "/media/" + name, Name: name, Duration: duration}
}

func seconds(v float64) *float64 { return &v }

func TestNewProject_Skeleton(t *testing.T) {
	p := NewProject()
	if len(p.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(p.Tracks))
	}
	if p.Tracks[0].Kind != TrackVisual || p.Tracks[1].Kind != TrackAudio {
		t.Errorf("kinds = %s, %s", p.Tracks[0].Kind, p.Tracks[1].Kind)
	}
	if p.Duration != DefaultDuration || p.CurrentTime != 0 || p.IsPlaying {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if p.SelectedClipID != "" {
		t.Errorf("selection = %q, want none", p.SelectedClipID)
	}
}

func TestAddTrack_AppendsVisual(t *testing.T) {
	sequentialIDs(t)
	p := NewProject()
	next := AddTrack(p)

	if len(p.Tracks) != 2 {
		t.Fatalf("input mutated: %d tracks", len(p.Tracks))
	}
	if len(next.Tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(next.Tracks))
	}
	added := next.Tracks[2]
	if added.ID != "id-1" || added.Kind != TrackVisual || len(added.Clips) != 0 {
		t.Errorf("added track = %+v", added)
	}
}

func TestAddTrackOfKind_UnknownKindIsVisual(t *testing.T) {
	p := AddTrackOfKind(NewProject(), TrackKind("bogus"))
	if got := p.Tracks[len(p.Tracks)-1].Kind; got != TrackVisual {
		t.Errorf("kind = %s, want visual", got)
	}
	p = AddTrackOfKind(p, TrackAudio)
	if got := p.Tracks[len(p.Tracks)-1].Kind; got != TrackAudio {
		t.Errorf("kind = %s, want audio", got)
	}
}

func TestUpdateClipProperties_UnknownIDIsNoop(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindVideo, "a.mp4", nil))
	opacity := 10.0

	for _, id := range []string{"missing", "", "id-999"} {
		got := UpdateClipProperties(p, id, PropertiesPatch{Opacity: &opacity})
		if !reflect.DeepEqual(got, p) {
			t.Errorf("UpdateClipProperties(%q) changed the project", id)
		}
	}
}

func TestUpdateClipProperties_MergesPatch(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindVideo, "a.mp4", nil))
	clipID := p.SelectedClipID
	opacity, rotation := 40.0, 90.0

	next := UpdateClipProperties(p, clipID, PropertiesPatch{Opacity: &opacity, Rotation: &rotation})

	c, ok := FindClip(next, clipID)
	if !ok {
		t.Fatal("clip not found after update")
	}
	want := DefaultProperties()
	want.Opacity = 40
	want.Rotation = 90
	if c.Properties != want {
		t.Errorf("properties = %+v, want %+v", c.Properties, want)
	}
	if c.Name != "a.mp4" || c.Start != 0 || c.Duration != DefaultMediaDuration {
		t.Errorf("non-property fields changed: %+v", c)
	}

	orig, _ := FindClip(p, clipID)
	if orig.Properties != DefaultProperties() {
		t.Errorf("input snapshot mutated: %+v", orig.Properties)
	}
}

func TestUpdateClipProperties_ScansAllTracks(t *testing.T) {
	sequentialIDs(t)
	p := NewProject()
	p = AddTrack(p)
	lastTrack := p.Tracks[2].ID
	p = PlaceAsset(p, lastTrack, 0, testAsset(KindImage, "b.png", nil))
	clipID := p.SelectedClipID

	// Drop the index to force the linear path as well.
	scan := p
	scan.index = nil

	volume := 5.0
	for name, proj := range map[string]Project{"indexed": p, "scan": scan} {
		next := UpdateClipProperties(proj, clipID, PropertiesPatch{Volume: &volume})
		c, _ := FindClip(next, clipID)
		if c.Properties.Volume != 5 {
			t.Errorf("%s: volume = %v, want 5", name, c.Properties.Volume)
		}
	}
}

func TestSelectClip_ThenFind(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 2, testAsset(KindImage, "pic.png", nil))
	clipID := p.SelectedClipID
	p = SelectClip(p, "")
	if p.SelectedClipID != "" {
		t.Fatal("selection not cleared")
	}

	p = SelectClip(p, clipID)
	if p.SelectedClipID != clipID {
		t.Fatalf("selection = %q, want %q", p.SelectedClipID, clipID)
	}
	c, ok := SelectedClip(p)
	if !ok {
		t.Fatal("selected clip not found")
	}
	want, _ := FindClip(p, clipID)
	if !reflect.DeepEqual(c, want) || c.ID != clipID || c.Start != 2 {
		t.Errorf("selected clip = %+v", c)
	}
}

func TestSelectClip_DanglingTolerated(t *testing.T) {
	p := SelectClip(NewProject(), "ghost")
	if p.SelectedClipID != "ghost" {
		t.Fatalf("selection = %q", p.SelectedClipID)
	}
	if _, ok := SelectedClip(p); ok {
		t.Error("dangling selection should resolve to no clip")
	}
}

func TestFindClip_FirstMatchWins(t *testing.T) {
	p := Project{Tracks: []Track{
		{ID: "a", Kind: TrackVisual, Clips: []Clip{{ID: "dup", TrackID: "a", Name: "first"}}},
		{ID: "b", Kind: TrackVisual, Clips: []Clip{{ID: "dup", TrackID: "b", Name: "second"}}},
	}}
	c, ok := FindClip(p, "dup")
	if !ok || c.Name != "first" {
		t.Errorf("FindClip = %+v, %v; want first", c, ok)
	}
	c, ok = FindClip(p.reindexed(), "dup")
	if !ok || c.Name != "first" {
		t.Errorf("indexed FindClip = %+v, %v; want first", c, ok)
	}
}

func TestFindClip_StaleIndexFallsBack(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindText, "hello", nil))
	clipID := p.SelectedClipID

	// Rearrange tracks outside the package API; the index now points nowhere.
	moved := p
	moved.Tracks = []Track{p.Tracks[1], p.Tracks[0]}

	c, ok := FindClip(moved, clipID)
	if !ok || c.ID != clipID {
		t.Errorf("FindClip with stale index = %+v, %v", c, ok)
	}
}

func TestRemoveClip(t *testing.T) {
	sequentialIDs(t)
	p := NewProject()
	p = PlaceAsset(p, "1", 0, testAsset(KindImage, "a.png", nil))
	first := p.SelectedClipID
	p = PlaceAsset(p, "1", 5, testAsset(KindImage, "b.png", nil))
	second := p.SelectedClipID

	next := RemoveClip(p, second)
	if next.SelectedClipID != "" {
		t.Errorf("selection = %q, want cleared", next.SelectedClipID)
	}
	if _, ok := FindClip(next, second); ok {
		t.Error("removed clip still found")
	}
	if _, ok := FindClip(next, first); !ok {
		t.Error("sibling clip lost")
	}
	if len(p.Tracks[0].Clips) != 2 {
		t.Error("input snapshot mutated")
	}

	if got := RemoveClip(next, "ghost"); !reflect.DeepEqual(got, next) {
		t.Error("removing unknown id changed the project")
	}
}

func TestTrackFlags(t *testing.T) {
	p := SetTrackMuted(NewProject(), "1", true)
	p = SetTrackLocked(p, "2", true)
	if !p.Tracks[0].IsMuted || p.Tracks[0].IsLocked {
		t.Errorf("track 1 = %+v", p.Tracks[0])
	}
	if !p.Tracks[1].IsLocked || p.Tracks[1].IsMuted {
		t.Errorf("track 2 = %+v", p.Tracks[1])
	}
	if got := SetTrackMuted(p, "ghost", true); !reflect.DeepEqual(got, p) {
		t.Error("unknown track changed the project")
	}
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "inside", in: 12.5, want: 12.5},
		{name: "negative clamps", in: -3, want: 0},
		{name: "past duration kept", in: 500, want: 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Seek(NewProject(), tc.in).CurrentTime; got != tc.want {
				t.Errorf("Seek(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClone_Independent(t *testing.T) {
	sequentialIDs(t)
	p := PlaceAsset(NewProject(), "1", 0, testAsset(KindImage, "a.png", nil))
	c := p.Clone()
	c.Tracks[0].Clips[0].Name = "changed"
	if p.Tracks[0].Clips[0].Name != "a.png" {
		t.Error("clone shares clip storage with original")
	}
}

func TestClone_KeepsEmptyClipLists(t *testing.T) {
	c := NewProject().Clone()
	if c.Tracks[1].Clips == nil {
		t.Fatal("empty clip list became nil")
	}
	data, err := json.Marshal(c.Tracks[1])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"clips":[]`) {
		t.Errorf("track json = %s", data)
	}
}
