package transform

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/rifs/rifs-api/internal/domain/cache"
	"github.com/rifs/rifs-api/internal/domain/image"
	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/logger"
	"github.com/rifs/rifs-api/internal/pkg/validator"
)

// flightTimeout bounds a shared transform once it no longer follows any caller
const flightTimeout = 2 * time.Minute

// CacheState tells how a response was produced
type CacheState string

const (
	CacheHit    CacheState = "hit"
	CacheMiss   CacheState = "miss"
	CacheBypass CacheState = "bypass"
)

// ImageStore is the part of the original store the transform path reads
type ImageStore interface {
	GetInfo(ctx context.Context, hash string) (*image.Image, error)
	Read(ctx context.Context, hash string) (*image.Image, []byte, error)
}

// Result is a served image, transformed or not
type Result struct {
	Original    *image.Image
	Params      imaging.Params
	Data        []byte
	MimeType    string
	Cache       CacheState
	Transformed bool
	FirstFrame  bool
}

type computed struct {
	original  *image.Image
	processed *imaging.Processed
}

// Service runs transforms with cache lookups, coalescing and a bounded CPU pool
type Service struct {
	images    ImageStore
	cache     *cache.Service
	processor *imaging.Processor
	sem       *semaphore.Weighted
	flights   singleflight.Group
}

// NewService creates transform service. workers <= 0 uses GOMAXPROCS.
func NewService(images ImageStore, cacheService *cache.Service, processor *imaging.Processor, workers int) *Service {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Service{
		images:    images,
		cache:     cacheService,
		processor: processor,
		sem:       semaphore.NewWeighted(int64(workers)),
	}
}

// Transform serves hash with the raw parameter string applied. Parameters and the hash
// are validated before any storage access.
func (s *Service) Transform(ctx context.Context, hash, raw string) (*Result, error) {
	params := imaging.ParseParams(raw)
	if params.NeedsTransform() {
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}
	if !validator.IsContentHash(hash) {
		return nil, image.ErrInvalidHash
	}

	if !params.NeedsTransform() {
		img, data, err := s.images.Read(ctx, hash)
		if err != nil {
			return nil, err
		}
		return &Result{Original: img, Params: params, Data: data, MimeType: img.MimeType, Cache: CacheBypass}, nil
	}

	key := cache.Key(hash, params)
	log := logger.FromContext(ctx)

	if s.cache.Enabled() {
		res, err := s.fromCache(ctx, hash, key, params)
		if err != nil {
			return nil, err
		}
		if res != nil {
			log.Debug().Str("cache_key", key).Str("hash", hash).Msg("Cache hit")
			return res, nil
		}
	}

	ch := s.flights.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		return s.compute(fctx, hash, params)
	})

	var out singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-ch:
	}
	if out.Err != nil {
		return nil, out.Err
	}

	c := out.Val.(*computed)
	state := CacheMiss
	if !s.cache.Enabled() {
		state = CacheBypass
	}
	log.Debug().
		Str("cache_key", key).
		Str("params", params.Normalized()).
		Bool("shared", out.Shared).
		Msg("Transform served")

	return &Result{
		Original:    c.original,
		Params:      params,
		Data:        c.processed.Data,
		MimeType:    c.processed.MimeType,
		Cache:       state,
		Transformed: !c.processed.Unchanged,
		FirstFrame:  c.processed.FirstFrame || gifWithFormat(c.original, params),
	}, nil
}

func (s *Service) fromCache(ctx context.Context, hash, key string, params imaging.Params) (*Result, error) {
	entry, err := s.cache.Lookup(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("Cache lookup failed, transforming")
		return nil, nil
	}
	if entry == nil {
		return nil, nil
	}

	img, err := s.images.GetInfo(ctx, hash)
	if err != nil {
		return nil, err
	}

	data, err := s.cache.Read(ctx, entry)
	if err != nil {
		if !errors.Is(err, cache.ErrEntryNotFound) {
			logger.FromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("Cache read failed, transforming")
		}
		return nil, nil
	}

	return &Result{
		Original:    img,
		Params:      params,
		Data:        data,
		MimeType:    entry.MimeType,
		Cache:       CacheHit,
		Transformed: true,
		FirstFrame:  gifWithFormat(img, params),
	}, nil
}

// gifWithFormat reports a GIF source re-encoded to an explicit format, which keeps
// only its first frame
func gifWithFormat(img *image.Image, params imaging.Params) bool {
	return img.MimeType == "image/gif" && params.Format != imaging.FormatUnknown
}

// compute runs once per key at a time. Pipeline errors return before any cache write.
func (s *Service) compute(ctx context.Context, hash string, params imaging.Params) (*computed, error) {
	img, data, err := s.images.Read(ctx, hash)
	if err != nil {
		return nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	start := time.Now()
	processed, err := s.processor.Transform(ctx, data, img.MimeType, params)
	s.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("transform %s@%s: %w", hash, params.Normalized(), err)
	}

	logger.FromContext(ctx).Info().
		Str("hash", hash).
		Str("params", params.Normalized()).
		Str("size", logger.Bytes(int64(len(processed.Data)))).
		Dur("took", time.Since(start)).
		Msg("Image transformed")

	if s.cache.Enabled() && !processed.Unchanged {
		if _, err := s.cache.Put(ctx, hash, params, processed.Data, processed.MimeType); err != nil {
			logger.FromContext(ctx).Warn().Err(err).Str("hash", hash).Msg("Failed to cache transform")
		}
	}

	return &computed{original: img, processed: processed}, nil
}

// Invalidate drops every cached transform of hash
func (s *Service) Invalidate(ctx context.Context, hash string) (int, error) {
	if !validator.IsContentHash(hash) {
		return 0, image.ErrInvalidHash
	}
	return s.cache.RemoveByOriginal(ctx, hash)
}
