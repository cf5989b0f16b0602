// Package folderstore creates and deletes folders under the content root.
package folderstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/sandbox"
	"github.com/starford/docsadmin/internal/storage"
)

// Store performs directory-tree operations.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger
}

// New creates a folder store over provider.
func New(provider storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: provider, logger: logger}
}

// DeleteResult reports what a successful delete removed.
type DeleteResult struct {
	Folder    string              `json:"folder"`
	Recursive bool                `json:"recursive"`
	Report    models.FolderReport `json:"report"`
}

// Create makes folder and any missing ancestors. It fails with
// ErrConflict if the path already exists.
func (s *Store) Create(_ context.Context, folder string) (string, error) {
	rel, err := sandbox.Clean(folder)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", apperr.InvalidInput("folder name is required")
	}
	_, err = s.fs.Stat(rel)
	switch {
	case err == nil:
		return "", apperr.Conflict("folder %q", rel)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("folderstore: %w", err)
	}
	if err := storage.CheckDirPath(s.fs, path.Dir(rel)); err != nil {
		return "", err
	}
	if err := s.fs.Mkdir(rel); err != nil {
		return "", fmt.Errorf("folderstore: create %q: %w", rel, err)
	}
	return rel, nil
}

// Inspect counts the immediate children of folder.
func (s *Store) Inspect(_ context.Context, folder string) (models.FolderReport, error) {
	rel, err := s.statFolder(folder)
	if err != nil {
		return models.FolderReport{}, err
	}
	return s.report(rel)
}

// Delete removes folder. A populated folder is only removed when force is
// set; otherwise a *apperr.NotEmptyError carries the child counts.
func (s *Store) Delete(_ context.Context, folder string, force bool) (*DeleteResult, error) {
	rel, err := s.statFolder(folder)
	if err != nil {
		return nil, err
	}
	rep, err := s.report(rel)
	if err != nil {
		return nil, err
	}

	res := &DeleteResult{Folder: rel, Report: rep}
	if rep.TotalItems == 0 {
		if err := s.fs.Remove(rel); err != nil {
			return nil, fmt.Errorf("folderstore: delete %q: %w", rel, err)
		}
		return res, nil
	}
	if !force {
		return nil, &apperr.NotEmptyError{
			FilesCount:   rep.FilesCount,
			FoldersCount: rep.FoldersCount,
			TotalItems:   rep.TotalItems,
		}
	}

	if err := s.fs.RemoveTree(rel); err != nil {
		return nil, fmt.Errorf("folderstore: delete %q: %w", rel, err)
	}
	s.logger.Info("folder deleted recursively", "folder", rel,
		"files", rep.FilesCount, "folders", rep.FoldersCount)
	res.Recursive = true
	return res, nil
}

func (s *Store) statFolder(folder string) (string, error) {
	rel, err := sandbox.Clean(folder)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", apperr.InvalidPath("the content root cannot be deleted")
	}
	info, err := s.fs.Stat(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.NotFound("folder %q", rel)
		}
		return "", fmt.Errorf("folderstore: %w", err)
	}
	if !info.IsDir() {
		return "", apperr.InvalidInput("%q is not a folder", rel)
	}
	return rel, nil
}

func (s *Store) report(rel string) (models.FolderReport, error) {
	entries, err := s.fs.ReadDir(rel)
	if err != nil {
		return models.FolderReport{}, fmt.Errorf("folderstore: %w", err)
	}
	var rep models.FolderReport
	for _, e := range entries {
		if e.IsDir() {
			rep.FoldersCount++
		} else {
			rep.FilesCount++
		}
	}
	rep.TotalItems = rep.FilesCount + rep.FoldersCount
	return rep, nil
}
