package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/montage/internal/timeline"
)

// drain collects the event types currently buffered for ch.
func drain(ch chan []byte) []string {
	var types []string
	for {
		select {
		case msg := <-ch:
			line, _, _ := strings.Cut(string(msg), "\n")
			types = append(types, strings.TrimPrefix(line, "event: "))
		default:
			return types
		}
	}
}

func count(types []string, want string) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishAssetEvent("created", "abc", "clips/a.mp4")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: asset.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"clips/a.mp4"`) || !strings.Contains(s, `"id":"abc"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishProjectChange_Classification(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	p := timeline.NewProject()
	playing := timeline.SetPlaying(p, true)
	ticked := timeline.Tick(playing, 0.1)
	edited := timeline.AddTrack(ticked)

	b.PublishProjectChange(p, playing)
	b.PublishProjectChange(playing, ticked)
	b.PublishProjectChange(ticked, edited)
	time.Sleep(50 * time.Millisecond)

	types := drain(ch)
	if n := count(types, TypePlayheadMoved); n != 2 {
		t.Errorf("playhead events = %d, want 2 (%v)", n, types)
	}
	if n := count(types, TypeProjectUpdated); n != 1 {
		t.Errorf("project events = %d, want 1 (%v)", n, types)
	}
	if n := count(types, TypeFrameUpdated); n != 1 {
		t.Errorf("frame events = %d, want 1 throttled (%v)", n, types)
	}
}

func TestFrameThrottle_TrailingFrame(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	p := timeline.SetPlaying(timeline.NewProject(), true)
	last := p
	for range 5 {
		next := timeline.Tick(last, 0.1)
		b.PublishProjectChange(last, next)
		last = next
	}
	time.Sleep(20 * time.Millisecond)
	if n := count(drain(ch), TypeFrameUpdated); n != 1 {
		t.Fatalf("frames before throttle window = %d, want 1", n)
	}

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: frame.updated") || !strings.Contains(s, `"time":0.5`) {
			t.Errorf("trailing frame = %q, want latest state", s)
		}
	case <-time.After(time.Second):
		t.Fatal("trailing frame never sent")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeProjectUpdated, Data: timeline.NewProject()})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: project.updated") || !strings.Contains(body, `"tracks":[`) {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "x", Data: nil})
	b.PublishAssetEvent("deleted", "id", "x.mp4")
	b.PublishProjectChange(timeline.NewProject(), timeline.NewProject())
}
