// Package session owns the editing session's current project snapshot.
//
// All changes go through Update, which reads and replaces the whole snapshot
// under one lock, so UI edits and playback ticks never interleave mid-change.
package session

import (
	"sync"

	"github.com/starford/montage/internal/timeline"
)

// ChangeFunc observes a snapshot replacement. It runs outside the state
// lock, one call at a time, in the order the replacements were installed.
// It must not call Update.
type ChangeFunc func(prev, next timeline.Project)

// Session is the single owner of the current project and the view zoom.
type Session struct {
	mu      sync.Mutex
	project timeline.Project
	zoom    float64
	zooms   timeline.ZoomRange

	onChange ChangeFunc

	// Notification tickets: issued under mu, served in order under notifyMu.
	notifyMu sync.Mutex
	turn     *sync.Cond
	issued   uint64
	served   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithProject starts the session from p instead of the default skeleton.
func WithProject(p timeline.Project) Option {
	return func(s *Session) { s.project = p }
}

// WithZoomRange sets the zoom bounds and step.
func WithZoomRange(r timeline.ZoomRange) Option {
	return func(s *Session) { s.zooms = r }
}

// WithZoom sets the initial zoom, clamped to the range.
func WithZoom(z float64) Option {
	return func(s *Session) { s.zoom = z }
}

// WithOnChange registers a change observer.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Session) { s.onChange = fn }
}

// New creates a session with the default two-track project.
func New(opts ...Option) *Session {
	s := &Session{
		project: timeline.NewProject(),
		zoom:    timeline.DefaultZoom,
		zooms:   timeline.DefaultZoomRange(),
	}
	s.turn = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}
	s.zoom = s.zooms.Clamp(s.zoom)
	return s
}

// Snapshot returns the current project.
func (s *Session) Snapshot() timeline.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project
}

// Update applies fn to the current snapshot and installs its result.
// fn runs under the session lock and must not call back into the session.
func (s *Session) Update(fn func(timeline.Project) timeline.Project) timeline.Project {
	s.mu.Lock()
	prev := s.project
	next := fn(prev)
	s.project = next
	cb := s.onChange
	ticket := s.issued
	s.issued++
	s.mu.Unlock()

	s.notify(ticket, func() {
		if cb != nil {
			cb(prev, next)
		}
	})
	return next
}

// notify runs fn once every earlier ticket has been served.
func (s *Session) notify(ticket uint64, fn func()) {
	s.notifyMu.Lock()
	for s.served != ticket {
		s.turn.Wait()
	}
	s.notifyMu.Unlock()

	defer func() {
		s.notifyMu.Lock()
		s.served++
		s.turn.Broadcast()
		s.notifyMu.Unlock()
	}()
	fn()
}

// Replace installs p, freshly indexed, as the current snapshot.
func (s *Session) Replace(p timeline.Project) timeline.Project {
	p = p.Reindex()
	return s.Update(func(timeline.Project) timeline.Project { return p })
}

// SetOnChange replaces the change observer.
func (s *Session) SetOnChange(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Zoom returns the current zoom in pixels per second.
func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// ZoomIn steps the zoom up and returns the new value.
func (s *Session) ZoomIn() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.zooms.In(s.zoom)
	return s.zoom
}

// ZoomOut steps the zoom down and returns the new value.
func (s *Session) ZoomOut() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.zooms.Out(s.zoom)
	return s.zoom
}

// SetZoom sets the zoom, clamped to the range, and returns the stored value.
func (s *Session) SetZoom(z float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.zooms.Clamp(z)
	return s.zoom
}
