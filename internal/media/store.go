// Package media stores uploaded binary assets under a separate asset root
// partitioned into fixed categories.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/sandbox"
)

// Asset categories. Every stored asset lives directly under one of them.
const (
	Images = "images"
	Videos = "videos"
	Gifs   = "gifs"
	Files  = "files"
)

// AutoFolder asks Upload to pick the category from the content type.
const AutoFolder = "auto"

// sniffLen is how much of an upload is inspected when the client sends
// no usable content type.
const sniffLen = 3072

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// Categories lists the valid top-level asset folders.
func Categories() []string { return []string{Images, Videos, Gifs, Files} }

// IsCategory reports whether name is one of the asset categories.
func IsCategory(name string) bool {
	switch name {
	case Images, Videos, Gifs, Files:
		return true
	}
	return false
}

// Route maps a content type to its category.
func Route(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "image/gif":
		return Gifs
	case strings.HasPrefix(ct, "image/"):
		return Images
	case strings.HasPrefix(ct, "video/"):
		return Videos
	default:
		return Files
	}
}

// SanitizeName replaces every character outside [A-Za-z0-9.-] with '_'.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// Store implements upload, listing and deletion of assets.
type Store struct {
	backend  Backend
	urlBase  string
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithURLBase sets the prefix of public asset URLs. The default serves
// assets from the site root ("/images/...").
func WithURLBase(base string) Option {
	return func(s *Store) { s.urlBase = strings.TrimSuffix(base, "/") }
}

// WithMaxBytes rejects uploads declared larger than n bytes.
func WithMaxBytes(n int64) Option {
	return func(s *Store) { s.maxBytes = n }
}

// WithClock overrides the time source used for file name prefixes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a media store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// UploadInput is one file to store.
type UploadInput struct {
	Reader       io.Reader
	Size         int64
	Folder       string
	ContentType  string
	OriginalName string
}

// Upload stores the file under a timestamp-prefixed sanitized name so
// uploads never overwrite each other.
func (s *Store) Upload(ctx context.Context, in UploadInput) (*models.UploadResult, error) {
	if in.Reader == nil {
		return nil, apperr.InvalidInput("file is required")
	}
	name := strings.TrimSpace(in.OriginalName)
	if name == "" {
		return nil, apperr.InvalidInput("file name is required")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, apperr.InvalidInput("file exceeds %d bytes", s.maxBytes)
	}

	ct := strings.TrimSpace(in.ContentType)
	r := in.Reader
	if ct == "" || ct == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(r, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("media: read upload: %w", err)
		}
		head = head[:n]
		ct = mimetype.Detect(head).String()
		r = io.MultiReader(bytes.NewReader(head), r)
	}

	folder, err := resolveFolder(in.Folder, ct)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("%d-%s", s.now().UnixMilli(), SanitizeName(name))
	key := folder + "/" + fileName
	n, err := s.backend.Put(ctx, key, r, in.Size, ct)
	if err != nil {
		return nil, fmt.Errorf("media: store %s: %w", key, err)
	}
	s.logger.Info("media uploaded", "key", key, "size", n, "type", ct)

	return &models.UploadResult{
		URL:      s.URL(key),
		FileName: fileName,
		Folder:   folder,
		Type:     ct,
		Size:     n,
	}, nil
}

// List returns the assets of one category, newest first. Dotfiles are
// skipped.
func (s *Store) List(ctx context.Context, folder string) ([]models.MediaAsset, error) {
	cat, err := sandbox.Clean(folder)
	if err != nil {
		return nil, err
	}
	if !IsCategory(cat) {
		return nil, apperr.InvalidInput("unknown media folder %q", folder)
	}
	objs, err := s.backend.List(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("media: list %s: %w", cat, err)
	}

	assets := make([]models.MediaAsset, 0, len(objs))
	for _, o := range objs {
		name := path.Base(o.Key)
		if strings.HasPrefix(name, ".") {
			continue
		}
		assets = append(assets, models.MediaAsset{
			Name:     name,
			URL:      s.URL(o.Key),
			Size:     o.Size,
			Modified: o.Modified,
			Type:     typeOf(name, o.ContentType),
		})
	}
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].Modified.After(assets[j].Modified)
	})
	return assets, nil
}

// Delete removes the asset named by p, which may be its public URL or
// its path relative to the asset root.
func (s *Store) Delete(ctx context.Context, p string) (string, error) {
	if s.urlBase != "" {
		p = strings.TrimPrefix(p, s.urlBase)
	}
	key, err := sandbox.Clean(p)
	if err != nil {
		return "", err
	}
	parts := strings.Split(key, "/")
	if len(parts) < 2 || !IsCategory(parts[0]) {
		return "", apperr.InvalidPath("media path must point inside a media folder")
	}

	if _, err := s.backend.Stat(ctx, key); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", apperr.NotFound("media %q", key)
		case errors.Is(err, errNotFile):
			return "", apperr.InvalidInput("%q is not a file", key)
		}
		return "", fmt.Errorf("media: %w", err)
	}
	if err := s.backend.Delete(ctx, key); err != nil {
		return "", fmt.Errorf("media: delete %s: %w", key, err)
	}
	return key, nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.urlBase + "/" + key
}

func resolveFolder(declared, contentType string) (string, error) {
	folder := strings.TrimSpace(declared)
	switch {
	case folder == AutoFolder:
		return Route(contentType), nil
	case folder == "":
		return Files, nil
	case IsCategory(folder):
		return folder, nil
	}
	return "", apperr.InvalidInput("unknown media folder %q", declared)
}

// typeOf prefers the stored content type, then the extension's MIME type,
// then the bare extension.
func typeOf(name, stored string) string {
	if stored != "" {
		return stored
	}
	ext := strings.ToLower(path.Ext(name))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if ext == "" {
		return "unknown"
	}
	return strings.TrimPrefix(ext, ".")
}
