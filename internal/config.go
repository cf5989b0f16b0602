package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModePassword = "password"
)

// Media backends.
const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Content ContentConfig     `yaml:"content"`
	Media   MediaConfig       `yaml:"media"`
	Session SessionConfig     `yaml:"session"`
	Auth    AuthConfig        `yaml:"auth"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ShutdownTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
	)
}

// ContentConfig holds the location of the Markdown/MDX tree.
type ContentConfig struct {
	Root string `yaml:"root"`
	// Watch reports out-of-band edits under Root as change events.
	Watch bool `yaml:"watch"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// MediaConfig holds the asset store configuration.
type MediaConfig struct {
	Backend        string   `yaml:"backend"`
	Root           string   `yaml:"root"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	S3             S3Config `yaml:"s3"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(MediaBackendLocal, MediaBackendS3)),
		validation.Field(&c.Root, validation.When(c.Backend == MediaBackendLocal, validation.Required)),
		validation.Field(&c.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
	); err != nil {
		return err
	}
	if c.Backend == MediaBackendS3 {
		return c.S3.Validate()
	}
	return nil
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"use_ssl"`
	PublicBaseURL string `yaml:"public_base_url"`
}

// Validate validates the S3 configuration.
func (c *S3Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Bucket, validation.Required, validation.Length(3, 63)),
		validation.Field(&c.PublicBaseURL, validation.Required),
	)
}

// SessionConfig holds the SQLite session store configuration.
type SessionConfig struct {
	Path string        `yaml:"path"`
	TTL  time.Duration `yaml:"ttl"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Minute)),
	)
}

// EventsConfig tunes the change-event stream.
type EventsConfig struct {
	TreeThrottle  time.Duration `yaml:"tree_throttle"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TreeThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.Heartbeat, validation.Min(time.Duration(0))),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how mutating requests are checked:
//   - "disabled": no session required, suitable for local dev.
//   - "password" (default): POST /api/login exchanges Password for a
//     session token that every mutating request must carry.
type AuthConfig struct {
	Mode      string `yaml:"mode"`
	Password  string `yaml:"password"`
	LoginRate int    `yaml:"login_rate"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModePassword
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModePassword)),
		validation.Field(&c.LoginRate, validation.Min(0)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModePassword && c.Password == "" {
		return fmt.Errorf("auth: mode is %q but password is empty", AuthModePassword)
	}
	return nil
}

// AuthEnabled returns true when sessions are enforced.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModePassword
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ReadTimeout:     15 * time.Second,
				ShutdownTimeout: 10 * time.Second,
				CORSOrigins:     []string{"http://localhost:3000"},
			},
		},
		Content: ContentConfig{
			Root:  "./content/docs",
			Watch: true,
		},
		Media: MediaConfig{
			Backend:        MediaBackendLocal,
			Root:           "./public",
			MaxUploadBytes: 50 << 20,
		},
		Session: SessionConfig{
			Path: "./docsadmin.db",
			TTL:  24 * time.Hour,
		},
		Auth: AuthConfig{
			Mode:      AuthModePassword,
			LoginRate: 5,
		},
		Events: EventsConfig{
			TreeThrottle:  2 * time.Second,
			Heartbeat:     30 * time.Second,
			WatchDebounce: 150 * time.Millisecond,
		},
	}
}
