// Package sandbox confines client-supplied relative paths to a root directory.
//
// The check is string-prefix based and does not follow symlinks.
package sandbox

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/docsadmin/internal/apperr"
)

// Root is an absolute directory that bounds every resolved path.
type Root struct {
	abs string
}

// New returns a Root for dir. The directory does not have to exist yet.
func New(dir string) (*Root, error) {
	if dir == "" {
		return nil, fmt.Errorf("sandbox: empty root")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root: %w", err)
	}
	return &Root{abs: abs}, nil
}

// Path returns the absolute root directory.
func (r *Root) Path() string { return r.abs }

// Clean normalizes rel into a slash-separated path relative to the root.
// Traversal segments, "." and leading separators are dropped; the empty
// string denotes the root itself.
func Clean(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", apperr.InvalidPath("path contains NUL byte")
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	if vol := filepath.VolumeName(rel); vol != "" {
		return "", apperr.InvalidPath("volume names are not allowed")
	}
	parts := strings.Split(rel, "/")
	kept := parts[:0]
	for _, p := range parts {
		switch p {
		case "", ".", "..":
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/"), nil
}

// BaseName keeps only the final segment of name.
func BaseName(name string) (string, error) {
	cleaned, err := Clean(name)
	if err != nil {
		return "", err
	}
	if cleaned == "" {
		return "", apperr.InvalidPath("empty file name")
	}
	return path.Base(cleaned), nil
}

// Resolve cleans rel and joins it onto the root. The result is guaranteed
// to be the root or to live beneath it.
func (r *Root) Resolve(rel string) (string, error) {
	cleaned, err := Clean(rel)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(r.abs, filepath.FromSlash(cleaned)))
	if err != nil {
		return "", apperr.InvalidPath("unresolvable path %q", rel)
	}
	if !r.Within(abs) {
		return "", apperr.InvalidPath("path escapes root: %q", rel)
	}
	return abs, nil
}

// Within reports whether abs is the root or lies beneath it.
func (r *Root) Within(abs string) bool {
	return abs == r.abs || strings.HasPrefix(abs, r.abs+string(os.PathSeparator))
}

// Rel converts an absolute path under the root back to a slash-separated
// relative path.
func (r *Root) Rel(abs string) (string, error) {
	if !r.Within(abs) {
		return "", apperr.InvalidPath("path outside root")
	}
	rel, err := filepath.Rel(r.abs, abs)
	if err != nil {
		return "", apperr.InvalidPath("path outside root")
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
