// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/montage/internal/api"
	"github.com/starford/montage/internal/editor"
	"github.com/starford/montage/internal/library"
	"github.com/starford/montage/internal/mcpserver"
	"github.com/starford/montage/internal/playback"
	"github.com/starford/montage/internal/session"
	"github.com/starford/montage/internal/sse"
	"github.com/starford/montage/internal/storage"
	"github.com/starford/montage/internal/timeline"
)

// runtime holds the wired components shared by every entry point.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *library.DB
	broker *sse.Broker
	clock  *playback.Clock
	svc    *editor.Service
}

func (rt *runtime) close() {
	rt.clock.Close()
	rt.broker.Close()
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close library", slog.String("error", err.Error()))
	}
}

// watch follows the media root and forwards catalog changes to SSE clients.
func (rt *runtime) watch(ctx context.Context) error {
	if !rt.cfg.Media.Watch {
		return nil
	}
	return library.Watch(ctx, rt.db, rt.store, rt.logger, func(ev library.Event) {
		rt.broker.PublishAssetEvent(ev.Kind, ev.ID, filepath.ToSlash(ev.Path))
	})
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// build wires storage, the media library, the session, the playback clock
// and the editor service.
func build(app *application) (*runtime, error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("media_path", cfg.Media.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure media directory exists.
	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Media.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := library.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init library: %w", err)
	}

	// Run initial sync.
	if err := library.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(cfg.Events.FrameThrottle)

	project := timeline.NewProject()
	project.Duration = cfg.Timeline.DefaultDuration

	sess := session.New(
		session.WithProject(project),
		session.WithZoomRange(cfg.Timeline.ZoomRange()),
		session.WithZoom(cfg.Timeline.Zoom.Default),
		session.WithOnChange(broker.PublishProjectChange),
	)

	clock := playback.New(sess,
		playback.WithInterval(cfg.Timeline.TickInterval),
		playback.WithStep(cfg.Timeline.TickStep),
		playback.WithLogger(logger),
	)

	svc := editor.NewService(sess, clock, store, db,
		editor.WithPolicy(cfg.Timeline.Policy()),
		editor.WithImporter(cfg.Import.Adapter()),
		editor.WithLogger(logger),
	)

	return &runtime{
		cfg:    cfg,
		logger: logger,
		store:  store,
		db:     db,
		broker: broker,
		clock:  clock,
		svc:    svc,
	}, nil
}

// NewHandler builds the root HTTP handler: health probes, the REST API
// under /api and media file serving under /media.
func NewHandler(svc *editor.Service, broker *sse.Broker, mediaRoot string, auth AuthConfig) http.Handler {
	apiRouter := api.NewRouter(svc, auth.AuthEnabled(), auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthOK)
	r.Get("/health/ready", healthOK)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Outside /api: media elements cannot send bearer tokens.
	r.Get("/media/*", api.NewMediaHandler(mediaRoot).ServeFile)

	return r
}

func healthOK(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	rt, err := build(app)
	if err != nil {
		return err
	}
	defer rt.close()

	cfg := rt.cfg
	logger := rt.logger

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: NewHandler(rt.svc, rt.broker, rt.store.Root(), cfg.Auth),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := rt.watch(gCtx); err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// No frames after this point.
		rt.clock.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the editing tools over stdio. Logs must not go to stdout,
// which carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.logOutput == os.Stdout {
		app.logOutput = os.Stderr
	}

	rt, err := build(app)
	if err != nil {
		return err
	}
	defer rt.close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := rt.watch(watchCtx); err != nil {
			rt.logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}

// Convert imports the draft at path against the media library and returns
// the normalized project with its import report. The running server's state
// is not touched.
func Convert(ctx context.Context, path string, opts ...Option) (timeline.Project, editor.ImportReport, error) {
	var (
		project timeline.Project
		report  editor.ImportReport
	)
	err := withDraft(ctx, path, opts, func(rt *runtime, p timeline.Project, r editor.ImportReport) {
		project, report = p, r
	})
	return project, report, err
}

// ConvertEDL imports the draft at path and renders it as an EDL.
func ConvertEDL(ctx context.Context, path, title string, fps float64, opts ...Option) (string, error) {
	var edl string
	err := withDraft(ctx, path, opts, func(rt *runtime, _ timeline.Project, _ editor.ImportReport) {
		edl = rt.svc.ExportEDL(ctx, title, fps)
	})
	return edl, err
}

func withDraft(ctx context.Context, path string, opts []Option, fn func(*runtime, timeline.Project, editor.ImportReport)) error {
	app, err := newApplication(append([]Option{WithLogOutput(io.Discard)}, opts...))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}

	rt, err := build(app)
	if err != nil {
		return err
	}
	defer rt.close()

	project, report, err := rt.svc.ImportDraft(ctx, data)
	if err != nil {
		return err
	}
	fn(rt, project, report)
	return nil
}
