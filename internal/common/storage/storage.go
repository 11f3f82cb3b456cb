// Package storage reads survey artifacts (analytics cubes, questionnaire
// schemas) from object storage laid out as bucket/key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned when a bucket/key pair does not exist.
var ErrObjectNotFound = errors.New("OBJECT_NOT_FOUND")

// Reader fetches whole objects.
type Reader interface {
	Read(ctx context.Context, bucket, key string) ([]byte, error)
}

// LocalReader serves objects from a directory tree rooted at Root, one
// sub-directory per bucket.
type LocalReader struct {
	Root string
}

func NewLocalReader(root string) *LocalReader {
	return &LocalReader{Root: root}
}

func (l *LocalReader) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// resolve keeps keys inside the root.
func (l *LocalReader) resolve(bucket, key string) (string, error) {
	rel := filepath.Clean(filepath.Join(bucket, filepath.FromSlash(key)))
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid object path %q/%q", bucket, key)
	}
	return filepath.Join(l.Root, rel), nil
}
