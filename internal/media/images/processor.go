package images

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
)

// maxImageBytes caps uploaded image size at 10 MB.
const maxImageBytes = 10 << 20

// maxImageDimension caps either side of an uploaded image.
// Rejecting absurd dimensions before full decode avoids decompression bombs.
const maxImageDimension = 10000

// Result describes a processed and stored image.
type Result struct {
	Hash     string // SHA256 of the stored bytes, for ETag validation
	BlurHash string // Compact placeholder for clients
	Format   string // Detected encoding: "jpeg", "png", "gif", "webp"
	Width    int
	Height   int
}

// Processor validates and stores uploaded recipe images.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Storage exposes the underlying image storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Process validates uploaded image data and stores it for a recipe.
// The format is sniffed from the data itself, never trusted from the
// request. Returns the stored image's hash and blurhash.
func (p *Processor) Process(recipeID string, imgData []byte) (*Result, error) {
	if len(imgData) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if len(imgData) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", maxImageBytes)
	}

	// Decode the header only to validate format and dimensions cheaply.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("unrecognized image format: %w", err)
	}
	if cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return nil, fmt.Errorf("image dimensions %dx%d exceed maximum %d", cfg.Width, cfg.Height, maxImageDimension)
	}

	// Save original image data to storage.
	if err := p.storage.Save(recipeID, imgData); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	// Compute hash for cache validation.
	hash, err := p.storage.Hash(recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute image hash: %w", err)
	}

	// BlurHash is a nice-to-have; a failure here shouldn't fail the upload.
	blurHash, err := ComputeBlurHash(imgData)
	if err != nil {
		p.logger.Warn("failed to compute blurhash",
			"recipe_id", recipeID,
			"error", err,
		)
		blurHash = ""
	}

	p.logger.Debug("processed and saved image",
		"recipe_id", recipeID,
		"format", format,
		"size", len(imgData),
		"hash", hash[:8]+"...",
	)

	return &Result{
		Hash:     hash,
		BlurHash: blurHash,
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
