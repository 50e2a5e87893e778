package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leahpeker/vedgyproject/internal/app/config"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
)

type noOpLogger struct{}

func (l *noOpLogger) Debug(args ...interface{})                   {}
func (l *noOpLogger) Debugf(template string, args ...interface{}) {}
func (l *noOpLogger) Info(args ...interface{})                    {}
func (l *noOpLogger) Infof(template string, args ...interface{})  {}
func (l *noOpLogger) Warn(args ...interface{})                    {}
func (l *noOpLogger) Warnf(template string, args ...interface{})  {}
func (l *noOpLogger) Error(args ...interface{})                   {}
func (l *noOpLogger) Errorf(template string, args ...interface{}) {}
func (l *noOpLogger) Fatal(args ...interface{})                   {}
func (l *noOpLogger) Fatalf(template string, args ...interface{}) {}
func (l *noOpLogger) With(args ...interface{}) logger.Logger      { return l }

type fakeBackend struct {
	putErr  error
	blobs   map[string][]byte
	baseURL string
}

func newFakeBackend(baseURL string, putErr error) *fakeBackend {
	return &fakeBackend{putErr: putErr, blobs: map[string][]byte{}, baseURL: baseURL}
}

func (b *fakeBackend) Put(ctx context.Context, key string, data []byte) error {
	if b.putErr != nil {
		return b.putErr
	}
	b.blobs[key] = data
	return nil
}

func (b *fakeBackend) URLFor(key string) string {
	return b.baseURL + "/" + key
}

func (b *fakeBackend) Remove(ctx context.Context, key string) (bool, error) {
	if _, ok := b.blobs[key]; !ok {
		return false, nil
	}
	delete(b.blobs, key)
	return true, nil
}

func testImagePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPhotoStorage_Store_UsesPrimary(t *testing.T) {
	primary := newFakeBackend("http://primary", nil)
	fallback := newFakeBackend("http://fallback", nil)
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	key, err := ps.Store(context.Background(), testImagePNG(t, 100, 80))

	assert.NoError(t, err)
	assert.Contains(t, key, "photos/")
	assert.Contains(t, primary.blobs, key)
	assert.NotContains(t, fallback.blobs, key)
}

func TestPhotoStorage_Store_FallsThroughWhenPrimaryUnavailable(t *testing.T) {
	primary := newFakeBackend("http://primary", ErrStorageUnavailable)
	fallback := newFakeBackend("http://fallback", nil)
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	key, err := ps.Store(context.Background(), testImagePNG(t, 100, 80))

	assert.NoError(t, err)
	assert.Contains(t, fallback.blobs, key)
}

func TestPhotoStorage_Store_Fail_AllBackendsUnavailable(t *testing.T) {
	primary := newFakeBackend("http://primary", ErrStorageUnavailable)
	fallback := newFakeBackend("http://fallback", ErrStorageUnavailable)
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	key, err := ps.Store(context.Background(), testImagePNG(t, 100, 80))

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Empty(t, key)
}

func TestPhotoStorage_Store_TerminalErrorDoesNotFallThrough(t *testing.T) {
	primary := newFakeBackend("http://primary", assert.AnError)
	fallback := newFakeBackend("http://fallback", nil)
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	key, err := ps.Store(context.Background(), testImagePNG(t, 100, 80))

	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, key)
	assert.Empty(t, fallback.blobs)
}

func TestPhotoStorage_Store_Fail_NotAnImage(t *testing.T) {
	primary := newFakeBackend("http://primary", nil)
	ps := NewPhotoStorage(&noOpLogger{}, primary)

	key, err := ps.Store(context.Background(), []byte("definitely not an image"))

	assert.Error(t, err)
	assert.Empty(t, key)
	assert.Empty(t, primary.blobs)
}

func TestPhotoStorage_URLFor_ResolvesAgainstPrimary(t *testing.T) {
	primary := newFakeBackend("http://primary", nil)
	fallback := newFakeBackend("http://fallback", nil)
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	assert.Equal(t, "http://primary/photos/x.jpg", ps.URLFor("photos/x.jpg"))
}

func TestPhotoStorage_Delete_SearchesChain(t *testing.T) {
	primary := newFakeBackend("http://primary", nil)
	fallback := newFakeBackend("http://fallback", nil)
	fallback.blobs["photos/x.jpg"] = []byte("blob")
	ps := NewPhotoStorage(&noOpLogger{}, primary, fallback)

	found, err := ps.Delete(context.Background(), "photos/x.jpg")

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, fallback.blobs)
}

func TestNormalizeImage_BoundsAndReencodes(t *testing.T) {
	normalized, err := NormalizeImage(testImagePNG(t, 1600, 1200))

	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(normalized))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), maxPhotoWidth)
	assert.LessOrEqual(t, img.Bounds().Dy(), maxPhotoHeight)

	_, format, err := image.DecodeConfig(bytes.NewReader(normalized))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizeImage_SmallImageNotUpscaled(t *testing.T) {
	normalized, err := NormalizeImage(testImagePNG(t, 200, 150))

	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(normalized))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestLocalBackend_PutAndRemove(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewLocalBackend(config.LocalStorageConfig{Dir: dir, BaseURL: "http://localhost:8080/media/"})
	require.NoError(t, err)

	err = backend.Put(context.Background(), "photos/a.jpg", []byte("blob"))
	assert.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, "photos", "a.jpg"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("blob"), stored)

	assert.Equal(t, "http://localhost:8080/media/photos/a.jpg", backend.URLFor("photos/a.jpg"))

	found, err := backend.Remove(context.Background(), "photos/a.jpg")
	assert.NoError(t, err)
	assert.True(t, found)

	found, err = backend.Remove(context.Background(), "photos/a.jpg")
	assert.NoError(t, err)
	assert.False(t, found)
}
