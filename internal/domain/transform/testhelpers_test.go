package transform

import (
	"bytes"
	"context"
	stdimage "image"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/rifs/rifs-api/internal/domain/cache"
	"github.com/rifs/rifs-api/internal/domain/image"
	"github.com/rifs/rifs-api/internal/pkg/database"
	"github.com/rifs/rifs-api/internal/pkg/imaging"
	"github.com/rifs/rifs-api/internal/pkg/storage"
)

type fixture struct {
	images    *image.Service
	cache     *cache.Service
	cacheRepo cache.Repository
	store     *gatedStore
	svc       *Service
}

// gatedStore counts original reads and can hold them until the gate closes
type gatedStore struct {
	ImageStore
	reads atomic.Int32
	gate  chan struct{}
}

func (g *gatedStore) Read(ctx context.Context, hash string) (*image.Image, []byte, error) {
	g.reads.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	return g.ImageStore.Read(ctx, hash)
}

func newFixture(t *testing.T, cacheEnabled bool) *fixture {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	originals, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("originals storage: %v", err)
	}
	cacheFiles, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("cache storage: %v", err)
	}

	images := image.NewService(image.NewRepository(db), originals, 10<<20)
	cacheRepo := cache.NewRepository(db)
	cacheSvc := cache.NewService(cacheRepo, cacheFiles, cache.Settings{
		Enabled:        cacheEnabled,
		MaxSize:        100 << 20,
		MaxEntries:     1000,
		DecayFactor:    0.9,
		MinHeatScore:   0.1,
		SpaceThreshold: 0.8,
	})
	images.SetInvalidator(cacheSvc)

	store := &gatedStore{ImageStore: images}
	return &fixture{
		images:    images,
		cache:     cacheSvc,
		cacheRepo: cacheRepo,
		store:     store,
		svc:       NewService(store, cacheSvc, imaging.NewProcessor(imaging.DefaultConfig()), 2),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func (f *fixture) upload(t *testing.T, data []byte) *image.Image {
	t.Helper()

	img, _, err := f.images.Put(context.Background(), data)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return img
}
