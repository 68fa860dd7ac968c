package wilderblog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MediaStore writes uploaded files below ContentRoot/StoragePath and hands
// back their public URL.
type MediaStore struct {
	contentRoot    string
	storagePath    string
	thumbnailWidth int
	logger         echo.Logger
}

// NewMediaStore returns a MediaStore. thumbnailWidth of zero disables
// thumbnails; logger may be nil.
func NewMediaStore(contentRoot, storagePath string, thumbnailWidth int, logger echo.Logger) *MediaStore {
	return &MediaStore{
		contentRoot:    contentRoot,
		storagePath:    filepath.ToSlash(storagePath),
		thumbnailWidth: thumbnailWidth,
		logger:         logger,
	}
}

// Dir is the absolute-or-relative directory uploads are written to.
func (m *MediaStore) Dir() string {
	rel := strings.TrimLeft(m.storagePath, "/")
	return filepath.Join(m.contentRoot, filepath.FromSlash(rel))
}

// Store writes bits under the final component of requestedName. An existing
// file is never replaced: the upload is renamed to a random token keeping
// the original extension. The returned URL is relative to the storage root
// setting, not the filesystem.
//
// The exists check and the write are not atomic; two concurrent uploads of
// the same name can still race.
func (m *MediaStore) Store(ctx context.Context, requestedName string, bits []byte) (string, error) {
	name := sanitizeFilename(requestedName)
	dir := m.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	dest := filepath.Join(dir, name)
	_, err := os.Stat(dest)
	switch {
	case err == nil:
		name = uuid.NewString() + filepath.Ext(name)
		dest = filepath.Join(dir, name)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stat media file: %w", err)
	}

	if err := os.WriteFile(dest, bits, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}

	if m.thumbnailWidth > 0 {
		if err := writeThumbnail(dir, name, bits, m.thumbnailWidth); err != nil && m.logger != nil {
			m.logger.Warnf("thumbnail for %s: %v", name, err)
		}
	}
	return m.URL(name), nil
}

// URL returns the public URL of a stored file name.
func (m *MediaStore) URL(name string) string {
	return path.Join(m.storagePath, name)
}

// sanitizeFilename keeps only the last path component of a client-supplied
// name, so uploads cannot climb out of the storage directory.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	switch name {
	case "", ".", "..":
		return uuid.NewString()
	}
	return name
}
