package session

import (
	"sync"
	"testing"
	"time"

	"github.com/starford/montage/internal/timeline"
)

func TestNew_DefaultSkeleton(t *testing.T) {
	s := New()
	p := s.Snapshot()
	if len(p.Tracks) != 2 {
		t.Fatalf("tracks = %d, want 2", len(p.Tracks))
	}
	if s.Zoom() != timeline.DefaultZoom {
		t.Errorf("zoom = %v", s.Zoom())
	}
}

func TestUpdate_ReplacesSnapshot(t *testing.T) {
	s := New()
	before := s.Snapshot()
	after := s.Update(timeline.AddTrack)

	if len(after.Tracks) != 3 || len(s.Snapshot().Tracks) != 3 {
		t.Fatalf("update not installed")
	}
	if len(before.Tracks) != 2 {
		t.Error("earlier snapshot changed")
	}
}

func TestUpdate_NotifiesObserver(t *testing.T) {
	var gotPrev, gotNext timeline.Project
	calls := 0
	s := New(WithOnChange(func(prev, next timeline.Project) {
		calls++
		gotPrev, gotNext = prev, next
	}))

	s.Update(func(p timeline.Project) timeline.Project { return timeline.Seek(p, 4) })

	if calls != 1 {
		t.Fatalf("observer calls = %d, want 1", calls)
	}
	if gotPrev.CurrentTime != 0 || gotNext.CurrentTime != 4 {
		t.Errorf("prev=%v next=%v", gotPrev.CurrentTime, gotNext.CurrentTime)
	}
}

func TestUpdate_Serialized(t *testing.T) {
	s := New(WithProject(timeline.Project{Duration: 1000}))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(p timeline.Project) timeline.Project {
				p.CurrentTime++
				return p
			})
		}()
	}
	wg.Wait()
	if got := s.Snapshot().CurrentTime; got != 50 {
		t.Errorf("currentTime = %v, want 50 (lost updates)", got)
	}
}

func TestZoom(t *testing.T) {
	s := New(WithZoom(500))
	if s.Zoom() != timeline.DefaultZoomMax {
		t.Fatalf("initial zoom not clamped: %v", s.Zoom())
	}
	if z := s.ZoomIn(); z != timeline.DefaultZoomMax {
		t.Errorf("ZoomIn at max = %v", z)
	}
	if z := s.SetZoom(1); z != timeline.DefaultZoomMin {
		t.Errorf("SetZoom(1) = %v", z)
	}
	if z := s.ZoomOut(); z != timeline.DefaultZoomMin {
		t.Errorf("ZoomOut at min = %v", z)
	}
}

func TestUpdate_ObserverSeesInstallOrder(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []float64
		once sync.Once
	)
	s := New(WithOnChange(func(_, next timeline.Project) {
		if next.CurrentTime == 1 {
			once.Do(func() { close(entered) })
			<-gate
		}
		mu.Lock()
		seen = append(seen, next.CurrentTime)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Update(func(p timeline.Project) timeline.Project { return timeline.Seek(p, 1) })
	}()
	<-entered
	go func() {
		defer wg.Done()
		s.Update(func(p timeline.Project) timeline.Project { return timeline.Seek(p, 2) })
	}()

	// The second update installs its snapshot while the first observer
	// call is still held.
	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().CurrentTime != 2 {
		if time.Now().After(deadline) {
			t.Fatal("second update did not install")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Errorf("observer order = %v, want [1 2]", seen)
	}
}
