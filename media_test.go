package wilderblog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mediaFile maps a returned URL back to its location under root.
func mediaFile(root, url string) string {
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "/")))
}

func TestMediaStoreStore(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 0, nil)
	ctx := context.Background()

	url, err := m.Store(ctx, "photo.png", []byte("first"))
	require.NoError(t, err)
	assert.Equal(t, "/media/photo.png", url)

	data, err := os.ReadFile(filepath.Join(root, "media", "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestMediaStoreNeverOverwrites(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 0, nil)
	ctx := context.Background()

	first, err := m.Store(ctx, "photo.png", []byte("first"))
	require.NoError(t, err)
	second, err := m.Store(ctx, "photo.png", []byte("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "/media", path.Dir(second))
	assert.Equal(t, ".png", path.Ext(second))
	assert.Len(t, strings.TrimSuffix(path.Base(second), ".png"), 36, "collision name should be a uuid")

	data, err := os.ReadFile(mediaFile(root, first))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	data, err = os.ReadFile(mediaFile(root, second))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestMediaStoreCollisionWithoutExtension(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "media", 0, nil)
	ctx := context.Background()

	_, err := m.Store(ctx, "README", []byte("a"))
	require.NoError(t, err)
	url, err := m.Store(ctx, "README", []byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "", path.Ext(url))
	assert.NotEqual(t, "media/README", url)
}

func TestMediaStoreCreatesNestedDirectories(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/content/media/2024", 0, nil)
	ctx := context.Background()

	url, err := m.Store(ctx, "a.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "/content/media/2024/a.txt", url)

	// The directory already exists the second time.
	_, err = m.Store(ctx, "b.txt", []byte("y"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "content", "media", "2024", "b.txt"))
}

func TestMediaStoreEmptyPayload(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 0, nil)

	url, err := m.Store(context.Background(), "empty.bin", []byte{})
	require.NoError(t, err)
	info, err := os.Stat(mediaFile(root, url))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestMediaStoreSanitizesNames(t *testing.T) {
	testCases := []struct {
		name     string
		wantBase string
	}{
		{name: "../../etc/passwd", wantBase: "passwd"},
		{name: `..\..\evil.exe`, wantBase: "evil.exe"},
		{name: "2024/01/pic.jpg", wantBase: "pic.jpg"},
		{name: "..", wantBase: ""},
		{name: "", wantBase: ""},
		{name: "dir/", wantBase: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			m := NewMediaStore(root, "/media", 0, nil)

			url, err := m.Store(context.Background(), tc.name, []byte("x"))
			require.NoError(t, err)
			assert.Equal(t, "/media", path.Dir(url))
			if tc.wantBase != "" {
				assert.Equal(t, tc.wantBase, path.Base(url))
			} else {
				assert.Len(t, path.Base(url), 36)
			}
			assert.FileExists(t, mediaFile(root, url))
		})
	}
}

func TestMediaStoreConcurrentUploads(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 0, nil)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	urls := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = m.Store(ctx, "same.png", []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.FileExists(t, mediaFile(root, urls[i]))
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMediaStoreWritesThumbnail(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 40, nil)

	_, err := m.Store(context.Background(), "wide.png", testPNG(t, 200, 100))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(root, "media", "thumbs", "wide.png.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestMediaStoreSkipsThumbnail(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 40, nil)
	ctx := context.Background()

	_, err := m.Store(ctx, "small.png", testPNG(t, 20, 20))
	require.NoError(t, err)
	_, err = m.Store(ctx, "notes.txt", []byte("plain text"))
	require.NoError(t, err)

	assert.NoDirExists(t, filepath.Join(root, "media", "thumbs"))
}

func testGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetColorIndex(x, y, uint8((x+y)%256))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

func thumbnailSize(t *testing.T, file string) (int, int) {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestMediaStoreThumbnailsForSameBaseName(t *testing.T) {
	root := t.TempDir()
	m := NewMediaStore(root, "/media", 40, nil)
	ctx := context.Background()

	_, err := m.Store(ctx, "photo.png", testPNG(t, 200, 100))
	require.NoError(t, err)
	_, err = m.Store(ctx, "photo.gif", testGIF(t, 200, 300))
	require.NoError(t, err)

	thumbs := filepath.Join(root, "media", "thumbs")
	w, h := thumbnailSize(t, filepath.Join(thumbs, "photo.png.jpg"))
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
	w, h = thumbnailSize(t, filepath.Join(thumbs, "photo.gif.jpg"))
	assert.Equal(t, 40, w)
	assert.Equal(t, 60, h)
	assert.NoFileExists(t, filepath.Join(thumbs, "photo.jpg"))
}

func TestWriteThumbnailRejectsOversizedImage(t *testing.T) {
	dir := t.TempDir()
	data := testGIF(t, 200, 100)
	// Logical screen width and height, little endian.
	data[6], data[7], data[8], data[9] = 0xFF, 0xFF, 0xFF, 0xFF

	err := writeThumbnail(dir, "huge.gif", data, 40)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixel limit")
	assert.NoDirExists(t, filepath.Join(dir, thumbnailDir))
}
