package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	"image/png"

	"quiz-lens/internal/domain"

	"golang.org/x/image/draw"
)

// Accepted upload formats as reported by image.DecodeConfig.
var supportedFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
}

// imageLimits bounds what an upload may cost. A zero field disables the
// corresponding check.
type imageLimits struct {
	maxBytes     int
	maxDimension int
	// maxPixels caps width*height as read from the header, before any pixel
	// data is decoded.
	maxPixels int64
}

// preparedImage is what gets handed to the OCR engine.
type preparedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	Scaled      bool
}

// prepareImage checks that data is a png/jpeg within limits and scales it
// down so that neither side exceeds limits.maxDimension.
func prepareImage(data []byte, limits imageLimits) (*preparedImage, error) {
	maxBytes, maxDimension := limits.maxBytes, limits.maxDimension
	if len(data) == 0 {
		return nil, domain.NewInvalidImageError("The uploaded image is empty", nil)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, domain.NewInvalidImageError(fmt.Sprintf("The uploaded image is larger than %d bytes", maxBytes), nil).
			WithContext("size", len(data))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewInvalidImageError("The upload is not a PNG or JPEG image", err)
	}
	contentType, ok := supportedFormats[format]
	if !ok {
		return nil, domain.NewInvalidImageError("Only PNG and JPEG images are supported", nil).
			WithContext("format", format)
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); limits.maxPixels > 0 && pixels > limits.maxPixels {
		return nil, domain.NewInvalidImageError(fmt.Sprintf("The uploaded image has more than %d pixels", limits.maxPixels), nil).
			WithContext("width", cfg.Width).
			WithContext("height", cfg.Height)
	}

	prepared := &preparedImage{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}
	if maxDimension <= 0 || (cfg.Width <= maxDimension && cfg.Height <= maxDimension) {
		return prepared, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewInvalidImageError("The uploaded image could not be decoded", err)
	}
	w, h := scaledSize(cfg.Width, cfg.Height, maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, domain.NewInternalError("failed to encode scaled image", err)
	}
	return &preparedImage{Data: buf.Bytes(), ContentType: "image/png", Width: w, Height: h, Scaled: true}, nil
}

// scaledSize keeps the aspect ratio and fits the longer side to limit.
func scaledSize(width, height, limit int) (int, int) {
	if width >= height {
		h := height * limit / width
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := width * limit / height
	if w < 1 {
		w = 1
	}
	return w, limit
}
