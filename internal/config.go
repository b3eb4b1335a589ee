package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/montage/internal/importer"
	"github.com/starford/montage/internal/playback"
	"github.com/starford/montage/internal/sse"
	"github.com/starford/montage/internal/timeline"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Media    MediaConfig       `yaml:"media"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Timeline TimelineConfig    `yaml:"timeline"`
	Import   ImportConfig      `yaml:"import"`
	Events   EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Timeline.Validate(); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// MediaConfig holds the path to the media library directory.
type MediaConfig struct {
	Path string `yaml:"path"`
	// Watch follows filesystem changes after the initial sync.
	Watch bool `yaml:"watch"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ZoomConfig bounds the timeline zoom, in pixels per second.
type ZoomConfig struct {
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Step    float64 `yaml:"step"`
	Default float64 `yaml:"default"`
}

// Validate validates the zoom configuration.
func (c *ZoomConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Min, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Max, validation.Required, validation.Min(c.Min)),
		validation.Field(&c.Step, validation.Required, validation.Min(1.0).Exclusive()),
	); err != nil {
		return err
	}
	if c.Default < c.Min || c.Default > c.Max {
		return fmt.Errorf("zoom: default %v outside [%v, %v]", c.Default, c.Min, c.Max)
	}
	return nil
}

// TimelineConfig holds editing and playback defaults.
type TimelineConfig struct {
	Zoom            ZoomConfig    `yaml:"zoom"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	TickStep        float64       `yaml:"tick_step"`
	DefaultDuration float64       `yaml:"default_duration"`
	MediaDuration   float64       `yaml:"media_duration"`
	StillDuration   float64       `yaml:"still_duration"`
	Padding         float64       `yaml:"padding"`
}

// Validate validates the timeline configuration.
func (c *TimelineConfig) Validate() error {
	if err := c.Zoom.Validate(); err != nil {
		return err
	}
	positive := []validation.Rule{validation.Required, validation.Min(0.0).Exclusive()}
	return validation.ValidateStruct(c,
		validation.Field(&c.TickInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.TickStep, positive...),
		validation.Field(&c.DefaultDuration, positive...),
		validation.Field(&c.MediaDuration, positive...),
		validation.Field(&c.StillDuration, positive...),
		validation.Field(&c.Padding, validation.Min(0.0)),
	)
}

// ZoomRange returns the configured zoom range.
func (c *TimelineConfig) ZoomRange() timeline.ZoomRange {
	return timeline.ZoomRange{Min: c.Zoom.Min, Max: c.Zoom.Max, Step: c.Zoom.Step}
}

// Policy returns the configured placement policy.
func (c *TimelineConfig) Policy() timeline.Policy {
	return timeline.Policy{
		MediaDuration: c.MediaDuration,
		StillDuration: c.StillDuration,
		Padding:       c.Padding,
	}
}

// ImportConfig sets the duration rules for imported drafts, in seconds.
type ImportConfig struct {
	Floor   float64 `yaml:"floor"`
	Padding float64 `yaml:"padding"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Floor, validation.Min(0.0)),
		validation.Field(&c.Padding, validation.Min(0.0)),
	)
}

// Adapter returns the CapCut importer configured with these rules.
func (c *ImportConfig) Adapter() importer.CapCut {
	return importer.CapCut{Padding: c.Padding, Floor: c.Floor}
}

// EventsConfig holds SSE configuration.
type EventsConfig struct {
	FrameThrottle time.Duration `yaml:"frame_throttle"`
}

var errNegativeThrottle = errors.New("events: frame_throttle must not be negative")

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	if c.FrameThrottle < 0 {
		return errNegativeThrottle
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Media: MediaConfig{
			Path:  "./media",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./montage.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Timeline: TimelineConfig{
			Zoom: ZoomConfig{
				Min:     timeline.DefaultZoomMin,
				Max:     timeline.DefaultZoomMax,
				Step:    timeline.DefaultZoomStep,
				Default: timeline.DefaultZoom,
			},
			TickInterval:    playback.DefaultInterval,
			TickStep:        timeline.DefaultTickStep,
			DefaultDuration: timeline.DefaultDuration,
			MediaDuration:   timeline.DefaultMediaDuration,
			StillDuration:   timeline.DefaultStillDuration,
			Padding:         timeline.DefaultPadding,
		},
		Import: ImportConfig{
			Floor:   importer.DefaultFloor,
			Padding: importer.DefaultPadding,
		},
		Events: EventsConfig{
			FrameThrottle: sse.DefaultFrameThrottle,
		},
	}
}
