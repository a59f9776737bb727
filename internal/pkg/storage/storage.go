package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a flat key/value store for image bytes.
// Keys are relative slash-separated paths such as "ab/cd/abcd....jpg".
type ObjectStore interface {
	// Put writes data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object bytes or ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// ShardedKey spreads objects over two directory levels taken from the name prefix:
// "abcdef..." + "jpg" becomes "ab/cd/abcdef....jpg".
func ShardedKey(name, ext string) (string, error) {
	if len(name) < 4 {
		return "", fmt.Errorf("name %q too short to shard", name)
	}
	key := name[0:2] + "/" + name[2:4] + "/" + name
	if ext != "" {
		key += "." + ext
	}
	return key, nil
}
