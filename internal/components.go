package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	"github.com/starford/docsadmin/internal/api"
	"github.com/starford/docsadmin/internal/docstore"
	"github.com/starford/docsadmin/internal/folderstore"
	"github.com/starford/docsadmin/internal/media"
	"github.com/starford/docsadmin/internal/metrics"
	"github.com/starford/docsadmin/internal/session"
	"github.com/starford/docsadmin/internal/sse"
	"github.com/starford/docsadmin/internal/storage"
)

// components are the long-lived parts shared by the HTTP server and the
// MCP server.
type components struct {
	cfg    *Config
	logger *slog.Logger

	content  *storage.FS
	docs     *docstore.Store
	folders  *folderstore.Store
	media    *media.Store
	mediaDir string // empty unless the local backend is used

	sessions *session.Store
	auth     *session.Authenticator
	broker   *sse.Broker
	registry *prometheus.Registry
}

// newComponents opens the content root, the media backend and, when
// sessions are enforced, the session database.
func newComponents(ctx context.Context, cfg *Config, logger *slog.Logger) (*components, error) {
	c := &components{cfg: cfg, logger: logger}

	content, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("init content storage: %w", err)
	}
	if created, err := content.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	} else if created {
		logger.Info("Created content root", slog.String("path", content.Root().Path()))
	}
	c.content = content
	c.docs = docstore.New(content, logger)
	c.folders = folderstore.New(content, logger)

	backend, mediaOpts, err := c.mediaBackend(ctx)
	if err != nil {
		return nil, err
	}
	mediaOpts = append(mediaOpts,
		media.WithMaxBytes(cfg.Media.MaxUploadBytes),
		media.WithLogger(logger),
	)
	c.media = media.NewStore(backend, mediaOpts...)

	if cfg.Auth.AuthEnabled() {
		sessions, err := session.Open(cfg.Session.Path, cfg.Session.TTL)
		if err != nil {
			return nil, fmt.Errorf("init sessions: %w", err)
		}
		c.sessions = sessions
		c.auth = session.NewAuthenticator(sessions, cfg.Auth.Password)
	} else {
		logger.Warn("Authentication disabled; mutating requests are not checked")
		c.auth = session.Disabled()
	}

	return c, nil
}

func (c *components) mediaBackend(ctx context.Context) (media.Backend, []media.Option, error) {
	cfg := c.cfg.Media
	switch cfg.Backend {
	case MediaBackendS3:
		backend, err := media.NewS3(ctx, media.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 media backend: %w", err)
		}
		c.logger.Info("Using S3 media backend",
			slog.String("endpoint", cfg.S3.Endpoint),
			slog.String("bucket", cfg.S3.Bucket))
		return backend, []media.Option{media.WithURLBase(cfg.S3.PublicBaseURL)}, nil
	default:
		assets, err := storage.NewFS(cfg.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("init media storage: %w", err)
		}
		if _, err := assets.EnsureRoot(); err != nil {
			return nil, nil, fmt.Errorf("create media root: %w", err)
		}
		c.mediaDir = assets.Root().Path()
		return media.NewLocal(assets), nil, nil
	}
}

// Close releases the session database and stops the broker.
func (c *components) Close() error {
	if c.broker != nil {
		c.broker.Close()
	}
	if c.sessions != nil {
		return c.sessions.Close()
	}
	return nil
}

// httpHandler builds the full HTTP surface: health, metrics, static
// assets and the API under /api, wrapped in CORS.
func (c *components) httpHandler() (http.Handler, error) {
	c.broker = sse.NewBroker(c.cfg.Events.TreeThrottle, c.cfg.Events.Heartbeat)

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics, err := metrics.NewHTTP(c.registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	h := api.NewHandler(api.Deps{
		Documents:      c.docs,
		Folders:        c.folders,
		Media:          c.media,
		Auth:           c.auth,
		Events:         c.broker,
		MaxUploadBytes: c.cfg.Media.MaxUploadBytes,
	})
	apiRouter := api.NewRouter(h, api.RouterConfig{
		LoginRate: c.cfg.Auth.LoginRate,
		Events:    c.broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpMetrics.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := c.ready(); err != nil {
			c.logger.Warn("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Handle(metrics.Path, metrics.Handler(c.registry))

	// Uploaded assets, so returned URLs resolve.
	if c.mediaDir != "" {
		for _, cat := range media.Categories() {
			prefix := "/" + cat + "/"
			dir := http.Dir(filepath.Join(c.mediaDir, cat))
			r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(dir)))
		}
	}

	r.Mount("/api", apiRouter)

	return cors.New(cors.Options{
		AllowedOrigins: c.cfg.App.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", "Last-Event-ID"},
		ExposedHeaders: []string{"ETag"},
	}).Handler(r), nil
}

func (c *components) ready() error {
	info, err := c.content.Stat("")
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("content root is not a directory")
	}
	if c.sessions != nil {
		return c.sessions.Ping()
	}
	return nil
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}
