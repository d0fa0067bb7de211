// Package quote manages favorited excerpts.
package quote

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

// Store manages quotes on top of the shared file store.
type Store struct {
	records *storage.Store[types.Quote]
	mu      sync.Mutex
}

// Open loads the quote store under dataDir.
func Open(dataDir string) (*Store, error) {
	records, err := storage.Open[types.Quote](filepath.Join(dataDir, "quotes"))
	if err != nil {
		return nil, fmt.Errorf("failed to open quote store: %w", err)
	}
	return &Store{records: records}, nil
}

// Create stores a new quote, optionally tied to a source document.
func (s *Store) Create(content, sourceDocID string) (*types.Quote, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("quote content is empty")
	}

	now := time.Now()
	q := &types.Quote{
		ID:          id.NewQuote(),
		Content:     content,
		SourceDocID: sourceDocID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.records.Put(q.ID, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Get returns a quote by id.
func (s *Store) Get(quoteID string) (*types.Quote, bool) {
	return s.records.Get(quoteID)
}

// Update replaces the quote content.
func (s *Store) Update(quoteID, content string) (*types.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.records.Get(quoteID)
	if !ok {
		return nil, fmt.Errorf("quote %s not found", quoteID)
	}

	updated := *q
	updated.Content = content
	updated.UpdatedAt = time.Now()

	if err := s.records.Put(quoteID, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a quote.
func (s *Store) Delete(quoteID string) error {
	return s.records.Delete(quoteID)
}

// List returns a page of quotes, newest first.
func (s *Store) List(page, pageSize int) ([]*types.Quote, types.Pagination) {
	all := s.records.All()
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	pagination, start, end := types.Page(len(all), page, pageSize)
	return all[start:end], pagination
}

// Search returns quotes whose content contains the query, case-insensitive.
func (s *Store) Search(query string) []*types.Quote {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var hits []*types.Quote
	for _, q := range s.records.All() {
		if strings.Contains(strings.ToLower(q.Content), query) {
			hits = append(hits, q)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].UpdatedAt.After(hits[j].UpdatedAt)
	})
	return hits
}

// SetReferences replaces one ordered reference list on a quote.
func (s *Store) SetReferences(quoteID string, kind types.RefKind, ids []string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown reference kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.records.Get(quoteID)
	if !ok {
		return fmt.Errorf("quote %s not found", quoteID)
	}

	updated := *q
	updated.Refs.Set(kind, append([]string(nil), ids...))
	updated.UpdatedAt = time.Now()
	return s.records.Put(quoteID, &updated)
}

// References returns one ordered reference list on a quote.
func (s *Store) References(quoteID string, kind types.RefKind) ([]string, error) {
	q, ok := s.records.Get(quoteID)
	if !ok {
		return nil, fmt.Errorf("quote %s not found", quoteID)
	}
	return append([]string(nil), q.Refs.Get(kind)...), nil
}

// Count returns the number of stored quotes.
func (s *Store) Count() int { return s.records.Count() }
