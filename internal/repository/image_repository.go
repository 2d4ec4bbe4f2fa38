package repository

import (
	"context"
	"errors"
	"time"

	"quiz-lens/internal/cache"
	"quiz-lens/internal/domain"
)

// ErrImageNotFound is returned when an image id has no stored bytes.
var ErrImageNotFound = errors.New("image not found")

// ImageRepository keeps uploaded image bytes in a domain.Cache with the same
// TTL as session state.
type ImageRepository struct {
	cache domain.Cache
	ttl   time.Duration
}

func NewImageRepository(c domain.Cache, ttl time.Duration) *ImageRepository {
	return &ImageRepository{cache: c, ttl: ttl}
}

var _ domain.ImageStore = (*ImageRepository)(nil)

func (r *ImageRepository) Put(ctx context.Context, ref domain.ImageRef, data []byte) error {
	if ref.ID == "" {
		return domain.NewInvalidInputError("image id is required")
	}
	if err := r.cache.Set(ctx, cache.SessionImageKey(ref.ID), string(data), r.ttl); err != nil {
		return domain.NewInternalError("failed to store image", err)
	}
	return nil
}

func (r *ImageRepository) Get(ctx context.Context, id string) ([]byte, error) {
	raw, err := r.cache.Get(ctx, cache.SessionImageKey(id))
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.NewNotFoundError("The uploaded image has expired", ErrImageNotFound)
		}
		return nil, domain.NewInternalError("failed to read image", err)
	}
	return []byte(raw), nil
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, cache.SessionImageKey(id)); err != nil {
		return domain.NewInternalError("failed to delete image", err)
	}
	return nil
}
