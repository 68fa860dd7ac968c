package wilderblog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	thumbnailDir     = "thumbs"
	thumbnailQuality = 80

	// maxThumbnailPixels bounds the decoded size of a source image.
	maxThumbnailPixels = 40_000_000
)

// thumbnailName maps a stored file name to its preview. Stored names are
// unique, so previews are too.
func thumbnailName(name string) string {
	return name + ".jpg"
}

// writeThumbnail stores a JPEG preview of an uploaded image scaled down to
// maxWidth. Payloads that are not images, or already narrow enough, are
// skipped without error.
func writeThumbnail(dir, name string, data []byte, maxWidth int) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil
		}
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= maxWidth {
		return nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxThumbnailPixels {
		return fmt.Errorf("image is %dx%d, over the %d pixel limit", cfg.Width, cfg.Height, maxThumbnailPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}

	thumbs := filepath.Join(dir, thumbnailDir)
	if err := os.MkdirAll(thumbs, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	return os.WriteFile(filepath.Join(thumbs, thumbnailName(name)), buf.Bytes(), 0o644)
}
