package image

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/storage"
	"github.com/rifs/rifs-api/internal/pkg/validator"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
	statsWindow      = 30 * 24 * time.Hour
)

// Invalidator drops everything derived from an original. The transform cache
// registers itself here so deletes cascade.
type Invalidator interface {
	RemoveByOriginal(ctx context.Context, hash string) (int, error)
}

// Service stores originals by content hash
type Service struct {
	repo        Repository
	store       storage.ObjectStore
	maxFileSize int64
	invalidator Invalidator
	now         func() time.Time
}

// NewService creates image service
func NewService(repo Repository, store storage.ObjectStore, maxFileSize int64) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		maxFileSize: maxFileSize,
		now:         time.Now,
	}
}

// SetInvalidator registers the cascade hook run before an original is deleted
func (s *Service) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// Hash returns the lowercase hex sha256 of data
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data and returns its metadata. Storing the same bytes twice returns the
// existing record; created reports whether this call wrote anything.
func (s *Service) Put(ctx context.Context, data []byte) (img *Image, created bool, err error) {
	if len(data) == 0 {
		return nil, false, ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, false, ErrFileTooLarge
	}

	hash := Hash(data)

	existing, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up image: %w", err)
	}
	if existing != nil {
		log.Debug().Str("hash", hash).Msg("Image already stored")
		return existing, false, nil
	}

	mimeType := storage.DetectMime(data)
	if !imaging.IsSupportedMime(mimeType) {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidMimeType, mimeType)
	}

	img = &Image{
		Hash:      hash,
		Size:      int64(len(data)),
		MimeType:  mimeType,
		Extension: storage.ExtensionForMime(mimeType),
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.store.Put(ctx, img.StorageKey(), data, mimeType); err != nil {
		return nil, false, fmt.Errorf("failed to store image: %w", err)
	}

	if err := s.repo.Create(ctx, img); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// A concurrent upload of the same bytes won and owns this object key; never delete it here.
			winner, gerr := s.repo.GetByHash(ctx, hash)
			if gerr != nil {
				return nil, false, fmt.Errorf("failed to load concurrently stored image: %w", gerr)
			}
			if winner == nil {
				return nil, false, fmt.Errorf("failed to save image metadata: %w", err)
			}
			return winner, false, nil
		}
		if derr := s.store.Delete(ctx, img.StorageKey()); derr != nil {
			log.Error().Err(derr).Str("hash", hash).Msg("Failed to remove orphaned object")
		}
		return nil, false, fmt.Errorf("failed to save image metadata: %w", err)
	}

	log.Info().
		Str("hash", hash).
		Str("mime_type", mimeType).
		Int64("size", img.Size).
		Msg("Image stored")

	return img, true, nil
}

// GetInfo returns metadata without touching access stats
func (s *Service) GetInfo(ctx context.Context, hash string) (*Image, error) {
	if !validator.IsContentHash(hash) {
		return nil, ErrInvalidHash
	}

	img, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up image: %w", err)
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// Read returns metadata and bytes, and records the access. A failure to record the
// access is logged and never returned.
func (s *Service) Read(ctx context.Context, hash string) (*Image, []byte, error) {
	img, err := s.GetInfo(ctx, hash)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Get(ctx, img.StorageKey())
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Error().Str("hash", hash).Msg("Image metadata present but object missing")
			return nil, nil, ErrImageNotFound
		}
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}

	if err := s.repo.TouchAccess(ctx, hash, s.now().UTC()); err != nil {
		log.Warn().Err(err).Str("hash", hash).Msg("Failed to update image access stats")
	}

	return img, data, nil
}

// Delete removes the original, after dropping every cached transform derived from it.
func (s *Service) Delete(ctx context.Context, hash string) error {
	img, err := s.GetInfo(ctx, hash)
	if err != nil {
		return err
	}

	if s.invalidator != nil {
		removed, err := s.invalidator.RemoveByOriginal(ctx, hash)
		if err != nil {
			return fmt.Errorf("failed to invalidate cached transforms: %w", err)
		}
		if removed > 0 {
			log.Info().Str("hash", hash).Int("removed", removed).Msg("Cached transforms invalidated")
		}
	}

	if _, err := s.repo.Delete(ctx, hash); err != nil {
		return fmt.Errorf("failed to delete image metadata: %w", err)
	}
	if err := s.store.Delete(ctx, img.StorageKey()); err != nil {
		log.Error().Err(err).Str("hash", hash).Msg("Failed to delete image object")
	}

	log.Info().Str("hash", hash).Msg("Image deleted")
	return nil
}

// List returns a page of images and the total number matching the filters
func (s *Service) List(ctx context.Context, q Query) ([]*Image, int, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	images, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list images: %w", err)
	}
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count images: %w", err)
	}
	if images == nil {
		images = []*Image{}
	}
	return images, total, nil
}

// Stats aggregates the store, with a per-day breakdown of the last 30 days
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	since := s.now().UTC().Add(-statsWindow)
	stats, err := s.repo.Stats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load image stats: %w", err)
	}
	return stats, nil
}
