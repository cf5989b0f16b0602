// Package storage defines the sandboxed file-system abstraction shared by
// the document, folder and media stores.
package storage

import (
	"io"
	"io/fs"

	"github.com/starford/docsadmin/internal/sandbox"
)

// Provider is the interface for content tree operations. Every path is
// relative to the provider root and is resolved through the sandbox.
type Provider interface {
	Root() *sandbox.Root
	// EnsureRoot creates the root directory if absent.
	EnsureRoot() (bool, error)
	Stat(rel string) (fs.FileInfo, error)
	// ReadDir returns the immediate children of rel.
	ReadDir(rel string) ([]fs.DirEntry, error)
	Read(rel string) ([]byte, error)
	// Write atomically replaces rel, creating parent directories.
	Write(rel string, content []byte) error
	WriteStream(rel string, r io.Reader) (int64, error)
	// Remove deletes a file or an empty directory.
	Remove(rel string) error
	Mkdir(rel string) error
	// RemoveTree deletes rel recursively.
	RemoveTree(rel string) error
	Move(oldRel, newRel string) error
	// Walk visits every entry beneath rel; unreadable directories reach fn
	// with a non-nil error.
	Walk(rel string, fn func(rel string, d fs.DirEntry, err error) error) error
}

var _ Provider = (*FS)(nil)
