package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrFileNotFound = errors.New("file not found")

// File describes bytes accepted by a FileStore.
type File struct {
	Path string
	Name string
	Type string
	Size int64
}

// FileStore moves document bytes in and out of durable storage.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, size int64, name, mime string) (File, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete removes the file at path. A missing file is not an error.
	Delete(ctx context.Context, path string) error
}

// Discard deletes path and only logs a failure. Used for cleanup paths
// whose outcome must not change the caller's result.
func Discard(ctx context.Context, store FileStore, path string, log *zap.Logger) {
	if path == "" {
		return
	}
	if err := store.Delete(ctx, path); err != nil {
		log.Warn("failed to discard stored file", zap.String("path", path), zap.Error(err))
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectName builds a collision-free name that keeps the original extension visible.
func objectName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	return uuid.NewString() + "-" + base
}
