package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/sandbox"
)

// TempPrefix marks in-flight atomic writes. Listings skip dotfiles, so
// these never surface as content.
const TempPrefix = ".docsadmin-tmp-"

// FS implements Provider backed by the local file system.
type FS struct {
	root *sandbox.Root
}

// NewFS creates a new FS provider rooted at dir. The directory is not
// required to exist; call EnsureRoot to create it.
func NewFS(dir string) (*FS, error) {
	root, err := sandbox.New(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	return &FS{root: root}, nil
}

// Root returns the sandbox bounding this provider.
func (f *FS) Root() *sandbox.Root { return f.root }

// EnsureRoot creates the root directory if it is absent and reports
// whether it had to.
func (f *FS) EnsureRoot() (bool, error) {
	info, err := os.Stat(f.root.Path())
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("storage: root is not a directory: %s", f.root.Path())
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("storage: stat root: %w", err)
	}
	if err := os.MkdirAll(f.root.Path(), 0o755); err != nil {
		return false, fmt.Errorf("storage: create root: %w", err)
	}
	return true, nil
}

// Stat returns file info for rel.
func (f *FS) Stat(rel string) (fs.FileInfo, error) {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", rel, notExist(err))
	}
	return info, nil
}

// CheckDirPath fails with apperr.ErrInvalidInput when an existing
// component of the cleaned path rel is not a directory. Missing trailing
// components are fine.
func CheckDirPath(p Provider, rel string) error {
	if rel == "" || rel == "." {
		return nil
	}
	parts := strings.Split(rel, "/")
	for i := range parts {
		dir := strings.Join(parts[:i+1], "/")
		info, err := p.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return err
		case !info.IsDir():
			return apperr.InvalidInput("%q is not a folder", dir)
		}
	}
	return nil
}

// notExist reports a path that runs through a regular file as missing.
func notExist(err error) error {
	if errors.Is(err, syscall.ENOTDIR) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", fs.ErrNotExist, err)
	}
	return err
}

// ReadDir lists the immediate children of rel.
func (f *FS) ReadDir(rel string) ([]fs.DirEntry, error) {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir %s: %w", rel, err)
	}
	return entries, nil
}

// Read returns the raw bytes of a file.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, notExist(err))
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
// Missing parent directories are created.
func (f *FS) Write(rel string, content []byte) error {
	_, err := f.WriteStream(rel, bytes.NewReader(content))
	return err
}

// WriteStream atomically writes everything read from r to rel and returns
// the number of bytes written.
func (f *FS) WriteStream(rel string, r io.Reader) (int64, error) {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return 0, err
	}
	if abs == f.root.Path() {
		return 0, apperr.InvalidPath("cannot write to root")
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, TempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return 0, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return 0, fmt.Errorf("storage: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return 0, fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return n, nil
}

// Remove deletes a single file or an empty directory. The root itself
// cannot be removed.
func (f *FS) Remove(rel string) error {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return err
	}
	if abs == f.root.Path() {
		return apperr.InvalidPath("cannot remove root")
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w", rel, err)
	}
	return nil
}

// Mkdir creates rel and any missing ancestors.
func (f *FS) Mkdir(rel string) error {
	abs, err := f.root.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", rel, err)
	}
	return nil
}

// RemoveTree deletes rel and everything beneath it, post-order.
func (f *FS) RemoveTree(rel string) error {
	cleaned, err := sandbox.Clean(rel)
	if err != nil {
		return err
	}
	if cleaned == "" {
		return apperr.InvalidPath("cannot remove root")
	}
	return removeTree(f, cleaned)
}

// Move renames a file or directory within the root.
func (f *FS) Move(oldRel, newRel string) error {
	absOld, err := f.root.Resolve(oldRel)
	if err != nil {
		return err
	}
	absNew, err := f.root.Resolve(newRel)
	if err != nil {
		return err
	}
	if absOld == f.root.Path() || absNew == f.root.Path() {
		return apperr.InvalidPath("cannot move root")
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	return nil
}

// Walk visits every entry beneath rel (rel itself excluded) in lexical
// order, passing the slash-separated path relative to the root. As with
// filepath.WalkDir, a directory that cannot be read is passed to fn a
// second time with the error; fn decides whether the walk goes on.
func (f *FS) Walk(rel string, fn func(rel string, d fs.DirEntry, err error) error) error {
	base, err := f.root.Resolve(rel)
	if err != nil {
		return err
	}
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if p == base {
			return walkErr
		}
		r, err := f.root.Rel(p)
		if err != nil {
			return err
		}
		return fn(r, d, walkErr)
	})
	if err != nil {
		return fmt.Errorf("storage: walk %s: %w", rel, err)
	}
	return nil
}

// treeFS is the subset of FS the recursive delete needs.
type treeFS interface {
	ReadDir(rel string) ([]fs.DirEntry, error)
	Remove(rel string) error
}

// removeTree deletes files first, then subdirectories depth-first, then
// dir itself.
func removeTree(t treeFS, dir string) error {
	entries, err := t.ReadDir(dir)
	if err != nil {
		return err
	}
	var subdirs []string
	for _, e := range entries {
		child := path.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, child)
			continue
		}
		if err := t.Remove(child); err != nil {
			return err
		}
	}
	for _, sub := range subdirs {
		if err := removeTree(t, sub); err != nil {
			return err
		}
	}
	return t.Remove(dir)
}
