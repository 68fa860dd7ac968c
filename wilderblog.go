// Package wilderblog serves a MetaWeblog/Blogger XML-RPC endpoint that lets
// offline authoring tools publish to a single blog.
//
// Stories and accounts live in SQLite; uploaded media is written below a
// public content root and served back by the same echo server.
package wilderblog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// App is the central application. It wires together the store, gate,
// processor, and HTTP handlers.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Processor *Processor

	credentials CredentialStore
	sessions    Sessions
	limiter     *LoginLimiter
	media       *MediaStore
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)

	a := &App{
		Config: cfg,
		Echo:   e,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the database, creates the bootstrap account, and wires the
// processor and routes. Start calls it; tests call it directly.
func (a *App) Init(ctx context.Context) error {
	if err := a.Config.validate(); err != nil {
		return err
	}

	if a.credentials == nil || a.sessions == nil {
		store, err := NewStore(a.Config.DatabaseDriver, a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("wilderblog: init store: %w", err)
		}
		a.Store = store
		if a.credentials == nil {
			a.credentials = store
		}
		if a.sessions == nil {
			a.sessions = store
		}
	}

	if a.Config.AdminUsername != "" && a.Config.AdminPassword != "" {
		if a.Store == nil {
			return fmt.Errorf("wilderblog: ADMIN_USERNAME needs the built-in store")
		}
		if err := a.Store.SaveUser(ctx, a.Config.AdminUsername, a.Config.AdminPassword); err != nil {
			return fmt.Errorf("wilderblog: bootstrap user: %w", err)
		}
	}

	a.limiter = NewLoginLimiter(a.Config.LoginAttempts, a.Config.LoginWindow)
	a.media = NewMediaStore(a.Config.ContentRoot, a.Config.StoragePath, a.Config.ThumbnailWidth, a.Echo.Logger)
	if err := os.MkdirAll(a.media.Dir(), 0o755); err != nil {
		return fmt.Errorf("wilderblog: create media dir: %w", err)
	}
	a.Processor = NewProcessor(
		a.Config,
		NewGate(a.credentials, a.limiter),
		a.sessions,
		a.media,
		NewCategoryCache(a.sessions, a.Config.CategoryCacheTTL),
	)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// Start initializes the app and serves until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}
	a.Echo.Logger.Infof("metaweblog endpoint on %s%s, media in %s", a.Config.Addr, a.Config.EndpointPath, a.media.Dir())
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.POST(a.Config.EndpointPath, a.handleXMLRPC)
	e.GET("/rsd.xml", a.handleRSD)

	// Uploaded media, served from the same directory the MediaStore writes to.
	prefix := "/" + strings.Trim(a.Config.StoragePath, "/")
	e.Static(prefix, a.media.Dir())
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
