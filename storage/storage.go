package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// Storage is where finished minutes pages are archived.
type Storage interface {
	// Upload writes the object at key, replacing any earlier one.
	Upload(ctx context.Context, key string, r io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
	// URL is where a reader can fetch key. It does not check existence.
	URL(ctx context.Context, key string) (string, error)
}

// Key joins a prefix and a name into a slash-separated key. Leading
// slashes and parent references are dropped, so keys stay inside the
// archive root.
func Key(prefix, name string) string {
	return strings.TrimPrefix(path.Clean("/"+path.Join(prefix, name)), "/")
}

// ContentType guesses the media type from the key's extension.
func ContentType(key string) string {
	switch path.Ext(key) {
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
