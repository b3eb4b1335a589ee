package importer

import (
	"reflect"
	"testing"

	"github.com/starford/montage/internal/timeline"
)

func TestFinalize(t *testing.T) {
	tracks := []timeline.Track{
		{ID: "a", Kind: timeline.TrackVisual, Clips: []timeline.Clip{{ID: "1", TrackID: "a", Start: 50, Duration: 30}}},
		{ID: "b", Kind: timeline.TrackAudio, Clips: []timeline.Clip{{ID: "2", TrackID: "b", Start: 0, Duration: 10}}},
	}
	p := Finalize(tracks, 5, 60)
	if p.Duration != 85 {
		t.Errorf("duration = %v, want 85", p.Duration)
	}
	if p := Finalize(nil, 5, 60); p.Duration != 60 {
		t.Errorf("empty duration = %v, want floor 60", p.Duration)
	}
}

func relinkProject() timeline.Project {
	p := timeline.Project{Tracks: []timeline.Track{
		{ID: "v", Kind: timeline.TrackVisual, Clips: []timeline.Clip{
			{ID: "1", TrackID: "v", Kind: timeline.KindVideo, Name: "beach.mp4"},
			{ID: "2", TrackID: "v", Kind: timeline.KindText, Name: "Text Layer", TextContent: "hi"},
			{ID: "3", TrackID: "v", Kind: timeline.KindImage, Name: "logo.png", MediaSrc: "/media/old.png"},
			{ID: "4", TrackID: "v", Kind: timeline.KindVideo, Name: "beach.mp4"},
		}},
		{ID: "a", Kind: timeline.TrackAudio, Clips: []timeline.Clip{
			{ID: "5", TrackID: "a", Kind: timeline.KindAudio, Name: "theme.mp3"},
		}},
	}, Duration: 60}
	return p.Reindex()
}

func TestRelink(t *testing.T) {
	p := relinkProject()
	lookup := func(name string) (string, bool) {
		switch name {
		case "beach.mp4":
			return "/media/beach.mp4", true
		case "logo.png":
			return "/media/logo.png", true
		}
		return "", false
	}

	next, n := Relink(p, lookup)
	if n != 2 {
		t.Errorf("linked = %d, want 2", n)
	}
	clips := next.Tracks[0].Clips
	if clips[0].MediaSrc != "/media/beach.mp4" || clips[3].MediaSrc != "/media/beach.mp4" {
		t.Errorf("video not linked: %+v", clips)
	}
	if clips[2].MediaSrc != "/media/old.png" {
		t.Errorf("existing source overwritten: %q", clips[2].MediaSrc)
	}
	if clips[1].MediaSrc != "" {
		t.Errorf("text clip linked: %q", clips[1].MediaSrc)
	}
	if p.Tracks[0].Clips[0].MediaSrc != "" {
		t.Error("input project mutated")
	}
	if got := MissingSources(next); !reflect.DeepEqual(got, []string{"theme.mp3"}) {
		t.Errorf("missing = %v", got)
	}
}

func TestRelink_NothingMatched(t *testing.T) {
	p := relinkProject()
	next, n := Relink(p, func(string) (string, bool) { return "", false })
	if n != 0 || !reflect.DeepEqual(next, p) {
		t.Errorf("Relink changed the project with no matches (n=%d)", n)
	}
	if got := MissingSources(p); !reflect.DeepEqual(got, []string{"beach.mp4", "theme.mp3"}) {
		t.Errorf("missing = %v", got)
	}
}
