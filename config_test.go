package wilderblog

import (
	"errors"
	"testing"
	"time"
)

func TestSetDefaults(t *testing.T) {
	cfg := SiteConfig{StoragePath: "/media"}
	cfg.setDefaults()

	checks := []struct {
		field, got, want string
	}{
		{"Name", cfg.Name, "Blog"},
		{"URL", cfg.URL, "http://localhost:3000"},
		{"Addr", cfg.Addr, ":3000"},
		{"DatabaseDriver", cfg.DatabaseDriver, "sqlite"},
		{"DatabasePath", cfg.DatabasePath, "data/blog.db"},
		{"EndpointPath", cfg.EndpointPath, "/livewriter"},
		{"ContentRoot", cfg.ContentRoot, "wwwroot"},
		{"TagURLBase", cfg.TagURLBase, "http://localhost:3000/tags/"},
		{"Blog.ID", cfg.Blog.ID, "blog"},
		{"Blog.Name", cfg.Blog.Name, "Blog"},
		{"Blog.URL", cfg.Blog.URL, "/"},
		{"Author.URL", cfg.Author.URL, "http://localhost:3000"},
		{"MaxRequestSize", cfg.MaxRequestSize, "32M"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if cfg.LoginAttempts != 5 || cfg.LoginWindow != time.Minute {
		t.Errorf("login limits = %d/%v", cfg.LoginAttempts, cfg.LoginWindow)
	}
	if cfg.CategoryCacheTTL != 5*time.Minute {
		t.Errorf("CategoryCacheTTL = %v", cfg.CategoryCacheTTL)
	}
}

func TestSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := SiteConfig{
		Name:       "Rants",
		URL:        "https://example.com/",
		TagURLBase: "https://example.com/category/",
		Blog:       BlogIdentity{ID: "stw"},
	}
	cfg.setDefaults()

	if cfg.URL != "https://example.com" {
		t.Errorf("URL = %q, trailing slash should be trimmed", cfg.URL)
	}
	if cfg.TagURLBase != "https://example.com/category/" {
		t.Errorf("TagURLBase = %q", cfg.TagURLBase)
	}
	if cfg.Blog.ID != "stw" || cfg.Blog.Name != "Rants" {
		t.Errorf("Blog = %+v", cfg.Blog)
	}
}

func TestValidateRequiresStoragePath(t *testing.T) {
	for _, sp := range []string{"", "   "} {
		cfg := SiteConfig{StoragePath: sp}
		if err := cfg.validate(); !errors.Is(err, ErrStoragePathRequired) {
			t.Errorf("validate(%q) = %v, want ErrStoragePathRequired", sp, err)
		}
	}
	cfg := SiteConfig{StoragePath: "/media"}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate = %v, want nil", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_URL", "https://blog.example.com")
	t.Setenv("METAWEBLOG_STORAGE_PATH", "/media")
	t.Setenv("BLOG_ID", "stw")
	t.Setenv("AUTHOR_EMAIL", "a@example.com")
	t.Setenv("THUMBNAIL_WIDTH", "320")
	t.Setenv("CATEGORY_CACHE_TTL", "30s")

	cfg := ConfigFromEnv()
	if cfg.URL != "https://blog.example.com" || cfg.StoragePath != "/media" {
		t.Errorf("URL/StoragePath = %q/%q", cfg.URL, cfg.StoragePath)
	}
	if cfg.Blog.ID != "stw" || cfg.Author.Email != "a@example.com" {
		t.Errorf("Blog.ID/Author.Email = %q/%q", cfg.Blog.ID, cfg.Author.Email)
	}
	if cfg.ThumbnailWidth != 320 || cfg.CategoryCacheTTL != 30*time.Second {
		t.Errorf("ThumbnailWidth/CategoryCacheTTL = %d/%v", cfg.ThumbnailWidth, cfg.CategoryCacheTTL)
	}
}
