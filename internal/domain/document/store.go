// Package document manages note storage.
package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tabnote/tabnote/internal/shared/id"
	"github.com/tabnote/tabnote/internal/shared/types"
	"github.com/tabnote/tabnote/internal/storage"
)

// Store manages documents on top of the shared file store.
type Store struct {
	records *storage.Store[types.Document]
	mu      sync.Mutex // serializes read-modify-write cycles
}

// Open loads the document store under dataDir.
func Open(dataDir string) (*Store, error) {
	records, err := storage.Open[types.Document](filepath.Join(dataDir, "documents"))
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	return &Store{records: records}, nil
}

// Create stores a new document.
func (s *Store) Create(title, content string, format types.Format) (*types.Document, error) {
	if format == "" {
		format = types.FormatHTML
	}
	if format != types.FormatHTML && format != types.FormatMarkdown {
		return nil, fmt.Errorf("unknown format %q", format)
	}

	now := time.Now()
	doc := &types.Document{
		ID:        id.NewDocument(),
		Title:     title,
		Content:   content,
		Format:    format,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.records.Put(doc.ID, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Get returns a document by id.
func (s *Store) Get(docID string) (*types.Document, bool) {
	return s.records.Get(docID)
}

// Update replaces title/content/format and bumps UpdatedAt.
func (s *Store) Update(docID, title, content string, format types.Format) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.records.Get(docID)
	if !ok {
		return nil, fmt.Errorf("document %s not found", docID)
	}

	updated := *doc
	updated.Title = title
	updated.Content = content
	if format != "" {
		updated.Format = format
	}
	updated.UpdatedAt = time.Now()

	if err := s.records.Put(docID, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a document. References to it held by other entities
// are left in place; hydration reports them as missing.
func (s *Store) Delete(docID string) error {
	return s.records.Delete(docID)
}

// List returns a page of documents, newest first.
func (s *Store) List(page, pageSize int) ([]*types.Document, types.Pagination) {
	all := s.records.All()
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	pagination, start, end := types.Page(len(all), page, pageSize)
	return all[start:end], pagination
}

// Search returns documents whose title or content contains the query,
// case-insensitive, newest first.
func (s *Store) Search(query string) []*types.Document {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var hits []*types.Document
	for _, doc := range s.records.All() {
		if strings.Contains(strings.ToLower(doc.Title), query) ||
			strings.Contains(strings.ToLower(doc.Content), query) {
			hits = append(hits, doc)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].UpdatedAt.After(hits[j].UpdatedAt)
	})
	return hits
}

// SetReferences replaces one ordered reference list on a document.
func (s *Store) SetReferences(docID string, kind types.RefKind, ids []string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reference kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.records.Get(docID)
	if !ok {
		return fmt.Errorf("document %s not found", docID)
	}

	updated := *doc
	updated.Refs.Set(kind, append([]string(nil), ids...))
	updated.UpdatedAt = time.Now()
	return s.records.Put(docID, &updated)
}

// References returns one ordered reference list on a document.
func (s *Store) References(docID string, kind types.RefKind) ([]string, error) {
	doc, ok := s.records.Get(docID)
	if !ok {
		return nil, fmt.Errorf("document %s not found", docID)
	}
	return append([]string(nil), doc.Refs.Get(kind)...), nil
}

// Count returns the number of stored documents.
func (s *Store) Count() int { return s.records.Count() }
