package wilderblog

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrStoragePathRequired is returned at startup when no media storage path is configured.
var ErrStoragePathRequired = errors.New("wilderblog: METAWEBLOG_STORAGE_PATH is required to know where to put uploaded files")

// BlogIdentity is the single blog served by the endpoint.
type BlogIdentity struct {
	ID   string // blogid reported to clients (default "blog")
	Name string // defaults to SiteConfig.Name
	URL  string // defaults to "/"
}

// AuthorIdentity is the single author reported by getUserInfo and getPost.
type AuthorIdentity struct {
	UserID    string
	Email     string
	FirstName string
	LastName  string
	URL       string // defaults to SiteConfig.URL
}

// SiteConfig holds all configuration for the endpoint.
type SiteConfig struct {
	Name string // Site name (default "Blog")
	URL  string // Canonical URL (default "http://localhost:3000")

	Addr           string // Listen address (default ":3000")
	DatabaseDriver string // "sqlite" (modernc) or "sqlite3" (cgo); default "sqlite"
	DatabasePath   string // SQLite path (default "data/blog.db")

	EndpointPath string // XML-RPC route (default "/livewriter")
	ContentRoot  string // Public content root on disk (default "wwwroot")
	StoragePath  string // Required: media directory under ContentRoot, also its URL prefix
	TagURLBase   string // Prefix for category htmlUrl (default SiteConfig.URL + "/tags/")

	Blog   BlogIdentity
	Author AuthorIdentity

	AdminUsername string // Optional bootstrap account
	AdminPassword string

	LoginAttempts    int           // Failed authentications allowed per window (default 5)
	LoginWindow      time.Duration // default 1min
	CategoryCacheTTL time.Duration // default 5min
	ThumbnailWidth   int           // 0 disables thumbnails
	MaxRequestSize   string        // echo BodyLimit value (default "32M")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = "sqlite"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.EndpointPath == "" {
		c.EndpointPath = "/livewriter"
	}
	if c.ContentRoot == "" {
		c.ContentRoot = "wwwroot"
	}
	if c.TagURLBase == "" {
		c.TagURLBase = c.URL + "/tags/"
	}
	if c.Blog.ID == "" {
		c.Blog.ID = "blog"
	}
	if c.Blog.Name == "" {
		c.Blog.Name = c.Name
	}
	if c.Blog.URL == "" {
		c.Blog.URL = "/"
	}
	if c.Author.URL == "" {
		c.Author.URL = c.URL
	}
	if c.LoginAttempts == 0 {
		c.LoginAttempts = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.CategoryCacheTTL == 0 {
		c.CategoryCacheTTL = 5 * time.Minute
	}
	if c.MaxRequestSize == "" {
		c.MaxRequestSize = "32M"
	}
}

func (c *SiteConfig) validate() error {
	if strings.TrimSpace(c.StoragePath) == "" {
		return ErrStoragePathRequired
	}
	return nil
}

// ConfigFromEnv builds a SiteConfig from environment variables. Unset
// variables are left empty so that defaults apply.
func ConfigFromEnv() SiteConfig {
	return SiteConfig{
		Name:           EnvOr("SITE_NAME", ""),
		URL:            EnvOr("SITE_URL", ""),
		Addr:           EnvOr("ADDR", ""),
		DatabaseDriver: EnvOr("DATABASE_DRIVER", ""),
		DatabasePath:   EnvOr("DATABASE_PATH", ""),
		EndpointPath:   EnvOr("METAWEBLOG_ENDPOINT", ""),
		ContentRoot:    EnvOr("CONTENT_ROOT", ""),
		StoragePath:    EnvOr("METAWEBLOG_STORAGE_PATH", ""),
		TagURLBase:     EnvOr("TAG_URL_BASE", ""),
		Blog: BlogIdentity{
			ID:   EnvOr("BLOG_ID", ""),
			Name: EnvOr("BLOG_NAME", ""),
		},
		Author: AuthorIdentity{
			UserID:    EnvOr("AUTHOR_ID", ""),
			Email:     EnvOr("AUTHOR_EMAIL", ""),
			FirstName: EnvOr("AUTHOR_FIRST_NAME", ""),
			LastName:  EnvOr("AUTHOR_LAST_NAME", ""),
			URL:       EnvOr("AUTHOR_URL", ""),
		},
		AdminUsername:    EnvOr("ADMIN_USERNAME", ""),
		AdminPassword:    EnvOr("ADMIN_PASSWORD", ""),
		CategoryCacheTTL: envDuration("CATEGORY_CACHE_TTL"),
		ThumbnailWidth:   envInt("THUMBNAIL_WIDTH"),
		MaxRequestSize:   EnvOr("MAX_REQUEST_SIZE", ""),
	}
}

func envInt(key string) int {
	n, _ := strconv.Atoi(EnvOr(key, "0"))
	return n
}

func envDuration(key string) time.Duration {
	d, _ := time.ParseDuration(EnvOr(key, "0s"))
	return d
}

// Option configures additional App behavior.
type Option func(*App)

// WithCredentialStore replaces the SQLite-backed credential store.
func WithCredentialStore(cs CredentialStore) Option {
	return func(a *App) {
		a.credentials = cs
	}
}

// WithSessions replaces the SQLite-backed story repository.
func WithSessions(s Sessions) Option {
	return func(a *App) {
		a.sessions = s
	}
}
