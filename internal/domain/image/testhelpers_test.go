package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/rifs/rifs-api/internal/pkg/storage"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type repoStub struct {
	mu        sync.Mutex
	images    map[string]*Image
	touches   int
	touchErr  error
	createErr error
	getErrs   []error // consumed one per GetByHash call, nil entries succeed
}

func newRepoStub() *repoStub {
	return &repoStub{images: map[string]*Image{}}
}

func (r *repoStub) Create(ctx context.Context, img *Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.images[img.Hash]; ok {
		return ErrDuplicate
	}
	cp := *img
	r.images[img.Hash] = &cp
	return nil
}

func (r *repoStub) GetByHash(ctx context.Context, hash string) (*Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.getErrs) > 0 {
		err := r.getErrs[0]
		r.getErrs = r.getErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	img, ok := r.images[hash]
	if !ok {
		return nil, nil
	}
	cp := *img
	return &cp, nil
}

func (r *repoStub) TouchAccess(ctx context.Context, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touches++
	if r.touchErr != nil {
		return r.touchErr
	}
	if img, ok := r.images[hash]; ok {
		img.AccessCount++
		img.LastAccessed = &at
	}
	return nil
}

func (r *repoStub) Delete(ctx context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.images[hash]
	delete(r.images, hash)
	return ok, nil
}

func (r *repoStub) List(ctx context.Context, q Query) ([]*Image, error) { return nil, nil }
func (r *repoStub) Count(ctx context.Context, q Query) (int, error)     { return len(r.images), nil }
func (r *repoStub) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	return &Stats{TotalImages: int64(len(r.images))}, nil
}

type storeStub struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newStoreStub() *storeStub {
	return &storeStub{objects: map[string][]byte{}}
}

func (s *storeStub) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *storeStub) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *storeStub) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *storeStub) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

type invalidatorStub struct {
	calls []string
	err   error
}

func (i *invalidatorStub) RemoveByOriginal(ctx context.Context, hash string) (int, error) {
	i.calls = append(i.calls, hash)
	return 2, i.err
}
