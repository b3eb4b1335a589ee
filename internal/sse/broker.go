// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/montage/internal/timeline"
)

// Event types.
const (
	TypeProjectUpdated = "project.updated"
	TypePlayheadMoved  = "playhead.moved"
	TypeFrameUpdated   = "frame.updated"
	TypeAssetPrefix    = "asset."
)

// DefaultFrameThrottle bounds how often frame.updated is sent.
const DefaultFrameThrottle = 250 * time.Millisecond

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Playhead is the payload of playhead.moved.
type Playhead struct {
	CurrentTime float64 `json:"currentTime"`
	Timecode    string  `json:"timecode"`
	IsPlaying   bool    `json:"isPlaying"`
}

// AssetChange is the payload of asset.* events.
type AssetChange struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

type projectChange struct {
	prev, next timeline.Project
}

type assetEvent struct {
	kind   string
	change AssetChange
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, frame throttle timestamp and the pending trailing frame). Public
// methods communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	frameMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	projectCh     chan projectChange
	assetCh       chan assetEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given frame throttle interval.
func NewBroker(frameThrottle time.Duration) *Broker {
	if frameThrottle <= 0 {
		frameThrottle = DefaultFrameThrottle
	}

	b := &Broker{
		frameMin:      frameThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		projectCh:     make(chan projectChange, 256),
		assetCh:       make(chan assetEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastFrame time.Time
		pending   *timeline.Preview
	)
	trailing := time.NewTimer(time.Hour)
	trailing.Stop()
	defer trailing.Stop()

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	// frame sends pv now when the throttle allows, else keeps it as the
	// trailing frame so the last state is never lost.
	frame := func(pv timeline.Preview) {
		now := time.Now()
		if wait := b.frameMin - now.Sub(lastFrame); wait > 0 {
			if pending == nil {
				trailing.Reset(wait)
			}
			pending = &pv
			return
		}
		lastFrame = now
		pending = nil
		broadcast(Event{Type: TypeFrameUpdated, Data: pv})
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.projectCh:
			prev, next := req.prev, req.next
			if structural(prev, next) {
				broadcast(Event{Type: TypeProjectUpdated, Data: next})
			}
			if prev.CurrentTime != next.CurrentTime || prev.IsPlaying != next.IsPlaying {
				broadcast(Event{Type: TypePlayheadMoved, Data: Playhead{
					CurrentTime: next.CurrentTime,
					Timecode:    timeline.FormatTimecode(next.CurrentTime),
					IsPlaying:   next.IsPlaying,
				}})
			}
			frame(timeline.ResolvePreview(next, next.CurrentTime))

		case <-trailing.C:
			if pending != nil {
				lastFrame = time.Now()
				broadcast(Event{Type: TypeFrameUpdated, Data: *pending})
				pending = nil
			}

		case req := <-b.assetCh:
			broadcast(Event{Type: TypeAssetPrefix + req.kind, Data: req.change})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// structural reports whether anything beyond the playhead changed. Tracks
// are copied on write, so a shared backing array means untouched tracks.
func structural(prev, next timeline.Project) bool {
	if prev.Duration != next.Duration || prev.SelectedClipID != next.SelectedClipID {
		return true
	}
	if len(prev.Tracks) != len(next.Tracks) {
		return true
	}
	return len(next.Tracks) > 0 && &prev.Tracks[0] != &next.Tracks[0]
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishProjectChange classifies a snapshot replacement into
// project.updated, playhead.moved and a throttled frame.updated. Its
// signature matches a session change observer.
func (b *Broker) PublishProjectChange(prev, next timeline.Project) {
	if b.closed.Load() {
		return
	}
	select {
	case b.projectCh <- projectChange{prev: prev, next: next}:
	case <-b.stopped:
	}
}

// PublishAssetEvent publishes asset.<kind> for a library change.
func (b *Broker) PublishAssetEvent(kind, id, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.assetCh <- assetEvent{kind: kind, change: AssetChange{ID: id, Path: path}}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
