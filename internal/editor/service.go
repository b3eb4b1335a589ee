// Package editor coordinates the editing session, playback clock, media
// library, importers and exporters behind one service used by the HTTP and
// MCP transports.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/montage/internal/apperr"
	"github.com/starford/montage/internal/export"
	"github.com/starford/montage/internal/importer"
	"github.com/starford/montage/internal/library"
	"github.com/starford/montage/internal/playback"
	"github.com/starford/montage/internal/session"
	"github.com/starford/montage/internal/storage"
	"github.com/starford/montage/internal/timeline"
)

// Service coordinates editing operations.
type Service struct {
	session  *session.Session
	clock    *playback.Clock
	store    storage.Provider
	db       library.Catalog
	policy   timeline.Policy
	importer importer.Adapter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy sets the placement policy.
func WithPolicy(p timeline.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithImporter sets the draft importer.
func WithImporter(a importer.Adapter) Option {
	return func(s *Service) { s.importer = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates an editor over an existing session and clock.
func NewService(sess *session.Session, clock *playback.Clock, store storage.Provider, db library.Catalog, opts ...Option) *Service {
	s := &Service{
		session:  sess,
		clock:    clock,
		store:    store,
		db:       db,
		policy:   timeline.DefaultPolicy(),
		importer: importer.CapCut{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Project returns the current snapshot.
func (s *Service) Project(_ context.Context) timeline.Project {
	return s.session.Snapshot()
}

// AddTrack appends an empty track of kind; an empty kind adds a visual track.
func (s *Service) AddTrack(_ context.Context, kind timeline.TrackKind) (timeline.Project, timeline.Track) {
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		return timeline.AddTrackOfKind(p, kind)
	})
	return p, p.Tracks[len(p.Tracks)-1]
}

// TrackFlags is a partial update of a track's header toggles.
type TrackFlags struct {
	Muted  *bool
	Locked *bool
}

// SetTrackFlags applies flags to track trackID.
func (s *Service) SetTrackFlags(_ context.Context, trackID string, flags TrackFlags) (timeline.Project, error) {
	found := false
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		if _, found = timeline.FindTrack(p, trackID); !found {
			return p
		}
		if flags.Muted != nil {
			p = timeline.SetTrackMuted(p, trackID, *flags.Muted)
		}
		if flags.Locked != nil {
			p = timeline.SetTrackLocked(p, trackID, *flags.Locked)
		}
		return p
	})
	if !found {
		return p, fmt.Errorf("editor: track %s: %w", trackID, apperr.ErrNotFound)
	}
	return p, nil
}

// Place puts asset on a track. With an empty trackID the first track of
// the matching kind is used. A nil start means the playhead.
func (s *Service) Place(_ context.Context, a timeline.Asset, trackID string, start *float64) (timeline.Project, timeline.Clip, error) {
	var err error
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		target := trackID
		if target == "" {
			t, ok := timeline.TargetTrack(p, a.Kind)
			if !ok {
				err = fmt.Errorf("editor: place %s: %w", a.Kind, apperr.ErrNoTrack)
				return p
			}
			target = t.ID
		}
		t, ok := timeline.FindTrack(p, target)
		switch {
		case !ok:
			err = fmt.Errorf("editor: track %s: %w", target, apperr.ErrNotFound)
			return p
		case t.IsLocked:
			err = fmt.Errorf("editor: track %s: %w", target, apperr.ErrLocked)
			return p
		}
		at := p.CurrentTime
		if start != nil {
			at = *start
		}
		next, _ := s.policy.Place(p, target, at, a)
		return next
	})
	if err != nil {
		return p, timeline.Clip{}, err
	}
	clip, _ := timeline.SelectedClip(p)
	s.logger.Debug("editor: placed asset",
		slog.String("asset", a.ID), slog.String("clip", clip.ID), slog.String("track", clip.TrackID))
	return p, clip, nil
}

// PlaceAsset places the library asset assetID. See Place.
func (s *Service) PlaceAsset(ctx context.Context, assetID, trackID string, start *float64) (timeline.Project, timeline.Clip, error) {
	row, err := s.db.GetAsset(assetID)
	if err != nil {
		return s.session.Snapshot(), timeline.Clip{}, err
	}
	return s.Place(ctx, row.Asset(), trackID, start)
}

// UpdateClipProperties merges patch into the clip's properties. An empty
// clipID targets the selected clip.
func (s *Service) UpdateClipProperties(_ context.Context, clipID string, patch timeline.PropertiesPatch) (timeline.Project, error) {
	if err := ValidateProperties(patch); err != nil {
		return s.session.Snapshot(), fmt.Errorf("editor: properties: %w: %w", apperr.ErrInvalid, err)
	}
	found := false
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		id := clipID
		if id == "" {
			id = p.SelectedClipID
		}
		if _, found = timeline.FindClip(p, id); !found {
			return p
		}
		return timeline.UpdateClipProperties(p, id, patch)
	})
	if !found {
		return p, fmt.Errorf("editor: clip %q: %w", clipID, apperr.ErrNotFound)
	}
	return p, nil
}

// SelectClip sets or clears the selection. Unknown ids are kept.
func (s *Service) SelectClip(_ context.Context, clipID string) timeline.Project {
	return s.session.Update(func(p timeline.Project) timeline.Project {
		return timeline.SelectClip(p, clipID)
	})
}

// RemoveClip deletes a clip.
func (s *Service) RemoveClip(_ context.Context, clipID string) (timeline.Project, error) {
	found := false
	p := s.session.Update(func(p timeline.Project) timeline.Project {
		if _, found = timeline.FindClip(p, clipID); !found {
			return p
		}
		return timeline.RemoveClip(p, clipID)
	})
	if !found {
		return p, fmt.Errorf("editor: clip %q: %w", clipID, apperr.ErrNotFound)
	}
	return p, nil
}

// Seek moves the playhead to t seconds.
func (s *Service) Seek(_ context.Context, t float64) timeline.Project {
	return s.session.Update(func(p timeline.Project) timeline.Project {
		return timeline.Seek(p, t)
	})
}

// SeekPointer moves the playhead to the time under a pointer at the
// current zoom.
func (s *Service) SeekPointer(ctx context.Context, pointerX, originX, scrollLeft float64) timeline.Project {
	return s.Seek(ctx, timeline.SeekFromPointer(pointerX, originX, scrollLeft, s.session.Zoom()))
}

// Zoom returns the current zoom.
func (s *Service) Zoom(_ context.Context) float64 { return s.session.Zoom() }

// ZoomIn steps the zoom up.
func (s *Service) ZoomIn(_ context.Context) float64 { return s.session.ZoomIn() }

// ZoomOut steps the zoom down.
func (s *Service) ZoomOut(_ context.Context) float64 { return s.session.ZoomOut() }

// Play starts playback.
func (s *Service) Play(_ context.Context) timeline.Project {
	s.clock.Start()
	return s.session.Snapshot()
}

// Pause stops playback.
func (s *Service) Pause(_ context.Context) timeline.Project {
	s.clock.Stop()
	return s.session.Snapshot()
}

// TogglePlayback flips between playing and paused.
func (s *Service) TogglePlayback(_ context.Context) timeline.Project {
	s.clock.Toggle()
	return s.session.Snapshot()
}

// Preview resolves what renders at t, or at the playhead when t is nil.
func (s *Service) Preview(_ context.Context, t *float64) timeline.Preview {
	p := s.session.Snapshot()
	at := p.CurrentTime
	if t != nil {
		at = *t
	}
	return timeline.ResolvePreview(p, at)
}

// Ruler is the time ruler at the current zoom.
type Ruler struct {
	Zoom     float64              `json:"zoom"`
	Duration float64              `json:"duration"`
	Width    float64              `json:"width"`
	Clock    string               `json:"clock"`
	Ticks    []timeline.RulerTick `json:"ticks"`
}

// Ruler returns the ruler ticks for the current project and zoom.
func (s *Service) Ruler(_ context.Context) Ruler {
	p := s.session.Snapshot()
	zoom := s.session.Zoom()
	return Ruler{
		Zoom:     zoom,
		Duration: p.Duration,
		Width:    timeline.TimeToPixel(p.Duration, zoom),
		Clock:    timeline.FormatClock(p.CurrentTime),
		Ticks:    timeline.RulerTicks(p.Duration, zoom),
	}
}

// ExportEDL renders the current project as an EDL.
func (s *Service) ExportEDL(_ context.Context, title string, fps float64) string {
	return export.GenerateEDL(s.session.Snapshot(), title, fps)
}
