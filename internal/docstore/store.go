// Package docstore implements CRUD over Markdown/MDX documents and the
// joint directory listing that also serves the folder view.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/checksum"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/parser"
	"github.com/starford/docsadmin/internal/sandbox"
	"github.com/starford/docsadmin/internal/storage"
)

// DefaultTitle is stored when a document is saved without a title.
const DefaultTitle = "Untitled"

// Store reads and writes documents under the content root.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger
}

// New creates a document store over provider.
func New(provider storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: provider, logger: logger}
}

// WriteInput is the payload of an upsert.
type WriteInput struct {
	Filename    string
	Title       string
	Description string
	Content     string
	Folder      string
}

// List returns the immediate subfolders and documents of folder. A folder
// that does not exist yields an empty listing; a missing content root is
// created first.
func (s *Store) List(_ context.Context, folder string) (*models.Listing, error) {
	cleaned, err := sandbox.Clean(folder)
	if err != nil {
		return nil, err
	}
	crumbs := breadcrumbs(cleaned)
	listing := &models.Listing{
		Files:         []models.DocumentSummary{},
		Folders:       []string{},
		CurrentFolder: cleaned,
		ParentFolder:  parentOf(crumbs),
		Breadcrumbs:   crumbs,
	}

	created, err := s.fs.EnsureRoot()
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	if created {
		s.logger.Info("created content root", "root", s.fs.Root().Path())
		return listing, nil
	}

	info, err := s.fs.Stat(cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return listing, nil
		}
		return nil, fmt.Errorf("docstore: %w", err)
	}
	if !info.IsDir() {
		return nil, apperr.InvalidInput("%q is not a folder", cleaned)
	}

	entries, err := s.fs.ReadDir(cleaned)
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			listing.Folders = append(listing.Folders, name)
			continue
		}
		if !e.Type().IsRegular() || !parser.IsDocumentName(name) {
			continue
		}
		rel := path.Join(cleaned, name)
		doc, err := s.load(rel)
		if err != nil {
			s.logger.Warn("skipping unreadable document", "path", rel, "error", err)
			continue
		}
		listing.Files = append(listing.Files, summarize(doc, crumbs))
	}

	sort.Strings(listing.Folders)
	sort.SliceStable(listing.Files, func(i, j int) bool {
		return listing.Files[i].Title < listing.Files[j].Title
	})
	return listing, nil
}

// Read returns the document at p.
func (s *Store) Read(_ context.Context, p string) (*models.Document, error) {
	rel, err := s.statDocument(p)
	if err != nil {
		return nil, err
	}
	return s.load(rel)
}

// Write creates or fully replaces a document. The filename is reduced to
// its base name; nesting comes from Folder only.
func (s *Store) Write(_ context.Context, in WriteInput) (*models.Document, error) {
	name, err := NormalizeFilename(in.Filename)
	if err != nil {
		return nil, err
	}
	folder, err := sandbox.Clean(in.Folder)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDirPath(s.fs, folder); err != nil {
		return nil, err
	}
	rel := path.Join(folder, name)

	if info, err := s.fs.Stat(rel); err == nil && info.IsDir() {
		return nil, apperr.InvalidInput("%q is a folder", rel)
	}

	title := in.Title
	if title == "" {
		title = DefaultTitle
	}
	raw, err := parser.Render(parser.FrontMatter{Title: title, Description: in.Description}, in.Content)
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	if err := s.fs.Write(rel, raw); err != nil {
		return nil, fmt.Errorf("docstore: save %q: %w", rel, err)
	}

	doc := &models.Document{
		Filename:    name,
		Title:       title,
		Description: in.Description,
		Content:     in.Content,
		Folder:      folder,
		Path:        rel,
		Checksum:    checksum.Sum(raw),
	}
	if info, err := s.fs.Stat(rel); err == nil {
		doc.LastModified = models.FormatDate(info.ModTime())
	}
	return doc, nil
}

// Delete removes a single document.
func (s *Store) Delete(_ context.Context, p string) error {
	rel, err := s.statDocument(p)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(rel); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.NotFound("document %q", rel)
		}
		return fmt.Errorf("docstore: delete %q: %w", rel, err)
	}
	return nil
}

// Move relocates the document at p into folder, creating the folder if
// needed, and returns the new path.
func (s *Store) Move(_ context.Context, p, folder string) (string, error) {
	rel, err := s.statDocument(p)
	if err != nil {
		return "", err
	}
	destFolder, err := sandbox.Clean(folder)
	if err != nil {
		return "", err
	}
	dest := path.Join(destFolder, path.Base(rel))
	if dest == rel {
		return dest, nil
	}

	if err := storage.CheckDirPath(s.fs, destFolder); err != nil {
		return "", err
	}
	_, err = s.fs.Stat(dest)
	switch {
	case err == nil:
		return "", apperr.Conflict("document %q", dest)
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("docstore: %w", err)
	}

	if err := s.fs.Move(rel, dest); err != nil {
		return "", fmt.Errorf("docstore: move %q: %w", rel, err)
	}
	return dest, nil
}

// NormalizeFilename reduces name to a base name and ensures a document
// extension, appending .mdx when none is given.
func NormalizeFilename(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", apperr.InvalidInput("filename is required")
	}
	base, err := sandbox.BaseName(name)
	if err != nil {
		return "", err
	}
	switch {
	case path.Ext(base) == "":
		base += parser.ExtMDX
	case !parser.IsDocumentName(base):
		return "", apperr.InvalidInput("unsupported extension %q", path.Ext(base))
	}
	return base, nil
}

// statDocument validates that p names an existing document file and
// returns its cleaned relative path.
func (s *Store) statDocument(p string) (string, error) {
	rel, err := sandbox.Clean(p)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", apperr.InvalidInput("document path is required")
	}
	info, err := s.fs.Stat(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.NotFound("document %q", rel)
		}
		return "", fmt.Errorf("docstore: %w", err)
	}
	if info.IsDir() {
		return "", apperr.InvalidInput("%q is a folder", rel)
	}
	if !parser.IsDocumentName(rel) {
		return "", apperr.InvalidInput("%q is not a markdown document", rel)
	}
	return rel, nil
}

// load reads and parses rel. Malformed front-matter is InvalidInput.
func (s *Store) load(rel string) (*models.Document, error) {
	info, err := s.fs.Stat(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("document %q", rel)
		}
		return nil, fmt.Errorf("docstore: %w", err)
	}
	data, err := s.fs.Read(rel)
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, apperr.InvalidInput("malformed front-matter in %q", rel)
	}

	name := path.Base(rel)
	title := res.FrontMatter.Title
	if title == "" {
		title = parser.TitleFromFilename(name)
	}
	folder := path.Dir(rel)
	if folder == "." {
		folder = ""
	}
	return &models.Document{
		Filename:     name,
		Title:        title,
		Description:  res.FrontMatter.Description,
		Content:      res.Body,
		Folder:       folder,
		Path:         rel,
		LastModified: models.FormatDate(info.ModTime()),
		Checksum:     checksum.Sum(data),
	}, nil
}

func summarize(doc *models.Document, crumbs []string) models.DocumentSummary {
	return models.DocumentSummary{
		Filename:     doc.Filename,
		Title:        doc.Title,
		Description:  doc.Description,
		LastModified: doc.LastModified,
		Path:         doc.Path,
		Folder:       doc.Folder,
		Folders:      crumbs,
	}
}

func breadcrumbs(folder string) []string {
	if folder == "" {
		return []string{}
	}
	return strings.Split(folder, "/")
}

func parentOf(crumbs []string) string {
	if len(crumbs) <= 1 {
		return ""
	}
	return strings.Join(crumbs[:len(crumbs)-1], "/")
}
