// Package ocr reads text from uploaded images with Tesseract.
package ocr

import (
	"context"
	"strings"

	"quiz-lens/internal/config"
	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// client is the part of *gosseract.Client the extractor uses.
type client interface {
	SetLanguage(langs ...string) error
	SetImageFromBytes(data []byte) error
	Text() (string, error)
	Close() error
}

// TesseractExtractor implements domain.TextExtractor. Each call uses its own
// gosseract client, so concurrent uploads from different sessions do not
// share engine state.
type TesseractExtractor struct {
	clientFactory func() client
	languages     []string
	limits        imageLimits
}

// NewTesseractExtractor creates an extractor from OCR settings.
func NewTesseractExtractor(cfg config.OCRConfig) *TesseractExtractor {
	return &TesseractExtractor{
		clientFactory: func() client { return gosseract.NewClient() },
		languages:     cfg.Languages,
		limits: imageLimits{
			maxBytes:     cfg.MaxImageBytes,
			maxDimension: cfg.MaxDimension,
			maxPixels:    cfg.MaxPixels,
		},
	}
}

var _ domain.TextExtractor = (*TesseractExtractor)(nil)

// ExtractText returns the trimmed transcription of img. Unsupported images
// yield INVALID_IMAGE, engine failures OCR_FAILED.
func (e *TesseractExtractor) ExtractText(ctx context.Context, img domain.ImageUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prepared, err := prepareImage(img.Data, e.limits)
	if err != nil {
		return "", err
	}
	if prepared.Scaled {
		logger.Get().Debug("Scaled image before OCR",
			zap.String("filename", img.Filename),
			zap.Int("width", prepared.Width),
			zap.Int("height", prepared.Height))
	}

	c := e.clientFactory()
	defer c.Close()

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", domain.NewOCRFailedError(err)
		}
	}
	if err := c.SetImageFromBytes(prepared.Data); err != nil {
		return "", domain.NewOCRFailedError(err)
	}
	text, err := c.Text()
	if err != nil {
		return "", domain.NewOCRFailedError(err)
	}
	return strings.TrimSpace(text), nil
}
