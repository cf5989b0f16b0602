// Package testutil provides shared test helpers for setting up content
// trees and session databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/docsadmin/internal/session"
	"github.com/starford/docsadmin/internal/storage"
)

// ContentRoot creates a temporary content root with a storage provider.
func ContentRoot(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteFile writes content to rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

// Touch sets the modification time of rel under root.
func Touch(t *testing.T, root, rel string, mtime time.Time) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.Chtimes(abs, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// Doc renders a minimal document file body.
func Doc(title, description, body string) string {
	return "---\ntitle: \"" + title + "\"\ndescription: \"" + description + "\"\n---\n\n" + body + "\n"
}

// SessionDB creates a temporary SQLite session store that is closed on cleanup.
func SessionDB(t *testing.T, ttl time.Duration) *session.Store {
	t.Helper()
	db, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"), ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
