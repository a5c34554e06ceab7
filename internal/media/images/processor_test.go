package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestImage encodes a small solid-color image in the given format.
func makeTestImage(t *testing.T, format string, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "png":
		err = png.Encode(&buf, img)
	default:
		t.Fatalf("unsupported test format %q", format)
	}
	require.NoError(t, err)

	return buf.Bytes()
}

func setupTestProcessor(t *testing.T) *Processor {
	t.Helper()
	storage := setupTestStorage(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewProcessor(storage, logger)
}

func TestProcessor_Process(t *testing.T) {
	t.Run("stores a valid JPEG", func(t *testing.T) {
		p := setupTestProcessor(t)
		data := makeTestImage(t, "jpeg", 100, 80)

		result, err := p.Process("recipe-123", data)
		require.NoError(t, err)

		assert.Equal(t, "jpeg", result.Format)
		assert.Equal(t, 100, result.Width)
		assert.Equal(t, 80, result.Height)
		assert.Len(t, result.Hash, 64)
		assert.NotEmpty(t, result.BlurHash)
		assert.True(t, p.storage.Exists("recipe-123"))
	})

	t.Run("stores a valid PNG", func(t *testing.T) {
		p := setupTestProcessor(t)
		data := makeTestImage(t, "png", 50, 50)

		result, err := p.Process("recipe-456", data)
		require.NoError(t, err)

		assert.Equal(t, "png", result.Format)
		assert.True(t, p.storage.Exists("recipe-456"))
	})

	t.Run("rejects empty data", func(t *testing.T) {
		p := setupTestProcessor(t)

		result, err := p.Process("recipe-123", nil)
		assert.Error(t, err)
		assert.Nil(t, result)
	})

	t.Run("rejects non-image data", func(t *testing.T) {
		p := setupTestProcessor(t)

		result, err := p.Process("recipe-123", []byte("this is not an image"))
		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "unrecognized image format")
		assert.False(t, p.storage.Exists("recipe-123"))
	})

	t.Run("replaces an existing image", func(t *testing.T) {
		p := setupTestProcessor(t)

		first, err := p.Process("recipe-123", makeTestImage(t, "jpeg", 100, 80))
		require.NoError(t, err)

		second, err := p.Process("recipe-123", makeTestImage(t, "png", 60, 60))
		require.NoError(t, err)

		assert.NotEqual(t, first.Hash, second.Hash)
	})
}

func TestComputeBlurHash(t *testing.T) {
	t.Run("computes hash for valid image", func(t *testing.T) {
		data := makeTestImage(t, "jpeg", 200, 150)

		hash, err := ComputeBlurHash(data)
		require.NoError(t, err)
		assert.NotEmpty(t, hash)
	})

	t.Run("same image produces same hash", func(t *testing.T) {
		data := makeTestImage(t, "png", 64, 64)

		hash1, err := ComputeBlurHash(data)
		require.NoError(t, err)

		hash2, err := ComputeBlurHash(data)
		require.NoError(t, err)

		assert.Equal(t, hash1, hash2)
	})

	t.Run("returns error for invalid data", func(t *testing.T) {
		hash, err := ComputeBlurHash([]byte("garbage"))
		assert.Error(t, err)
		assert.Empty(t, hash)
	})
}
