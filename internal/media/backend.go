package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/starford/docsadmin/internal/storage"
)

// errNotFile is returned by Stat when the key names something other than
// a regular file.
var errNotFile = errors.New("not a regular file")

// Object describes one stored asset.
type Object struct {
	Key         string
	Size        int64
	Modified    time.Time
	ContentType string
}

// Backend stores asset bytes under slash-separated keys of the form
// "<category>/<name>".
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	// List returns the files directly under prefix. A missing prefix is empty.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Stat fails with an error wrapping fs.ErrNotExist when key is absent.
	Stat(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// LocalBackend keeps assets on the local filesystem under the asset root.
type LocalBackend struct {
	fs storage.Provider
}

// NewLocal creates a backend over provider.
func NewLocal(provider storage.Provider) *LocalBackend {
	return &LocalBackend{fs: provider}
}

func (b *LocalBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (int64, error) {
	return b.fs.WriteStream(key, r)
}

func (b *LocalBackend) List(ctx context.Context, prefix string) ([]Object, error) {
	entries, err := b.fs.ReadDir(prefix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Object{
			Key:      strings.TrimSuffix(prefix, "/") + "/" + e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return out, nil
}

func (b *LocalBackend) Stat(_ context.Context, key string) (Object, error) {
	info, err := b.fs.Stat(key)
	if err != nil {
		return Object{}, err
	}
	if !info.Mode().IsRegular() {
		return Object{}, fmt.Errorf("media: %s: %w", key, errNotFile)
	}
	return Object{Key: key, Size: info.Size(), Modified: info.ModTime()}, nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	return b.fs.Remove(key)
}
