package handler

import (
	"io"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// readImageUpload reads the multipart "image" field after checking its
// name, type and size.
func readImageUpload(c *fiber.Ctx, v *validation.Validator, maxBytes int) (domain.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return domain.ImageUpload{}, domain.ValidationErrors{domain.NewMissingFieldError("image")}
	}
	contentType := fh.Header.Get("Content-Type")
	if errs := v.ValidateImageUpload(fh.Filename, contentType, fh.Size, maxBytes); len(errs) > 0 {
		return domain.ImageUpload{}, errs
	}

	f, err := fh.Open()
	if err != nil {
		return domain.ImageUpload{}, domain.NewInternalError("failed to open uploaded file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.ImageUpload{}, domain.NewInternalError("failed to read uploaded file", err)
	}
	return domain.ImageUpload{Filename: fh.Filename, ContentType: contentType, Data: data}, nil
}
