package docstore

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/starford/docsadmin/internal/apperr"
	"github.com/starford/docsadmin/internal/models"
	"github.com/starford/docsadmin/internal/parser"
)

const (
	// DefaultSearchLimit applies when the caller passes no limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit caps the number of results returned.
	MaxSearchLimit = 100
)

// Search scans every document under the content root for a
// case-insensitive substring match on title, description, path or body.
// Results are ordered by title.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("query is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	limit = min(limit, MaxSearchLimit)
	needle := strings.ToLower(query)

	if _, err := s.fs.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}

	hits := []models.SearchHit{}
	err := s.fs.Walk("", func(rel string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			s.logger.Warn("search: skipping unreadable entry", "path", rel, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !parser.IsDocumentName(d.Name()) {
			return nil
		}
		doc, err := s.load(rel)
		if err != nil {
			s.logger.Debug("search: skipping document", "path", rel, "error", err)
			return nil
		}
		if matches(doc, needle) {
			hits = append(hits, models.SearchHit{
				Path:        doc.Path,
				Title:       doc.Title,
				Description: doc.Description,
				Folder:      doc.Folder,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Title < hits[j].Title })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matches(doc *models.Document, needle string) bool {
	for _, field := range []string{doc.Title, doc.Description, doc.Path, doc.Content} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
