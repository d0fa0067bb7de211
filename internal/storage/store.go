// Package storage provides the JSON-file persistence shared by the
// entity stores: one file per record, an in-memory cache in front, and
// atomic replace-on-write so a crash never leaves a half-written record.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Store persists records of one kind under dir, keyed by id.
type Store[T any] struct {
	dir   string
	cache sync.Map // id -> *T
	count int
	mu    sync.Mutex
}

// Open creates the backing directory and loads existing records.
func Open[T any](dir string) (*Store[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	s := &Store[T]{dir: dir}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load scans the directory for record files and fills the cache.
func (s *Store[T]) load() error {
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		record := new(T)
		if err := json.Unmarshal(data, record); err != nil {
			return fmt.Errorf("corrupt record %s: %w", path, err)
		}

		id := strings.TrimSuffix(filepath.Base(path), ".json")
		s.cache.Store(id, record)
		s.mu.Lock()
		s.count++
		s.mu.Unlock()
		return nil
	})
}

// Get returns the cached record for id.
func (s *Store[T]) Get(id string) (*T, bool) {
	v, ok := s.cache.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*T), true
}

// Put writes the record to disk and caches it.
func (s *Store[T]) Put(id string, record *T) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", id, err)
	}

	// One temp file per write: concurrent Puts of the same id must not
	// rename each other's staging file out from under them.
	tmp, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to stage record %s: %w", id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write record %s: %w", id, err)
	}
	if err := os.Rename(tmp.Name(), s.path(id)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit record %s: %w", id, err)
	}

	// Swap keeps the existence check and the write atomic, so two
	// concurrent first Puts of one id count it once.
	if _, existed := s.cache.Swap(id, record); !existed {
		s.mu.Lock()
		s.count++
		s.mu.Unlock()
	}
	return nil
}

// Delete removes the record from disk and cache. Deleting an absent
// record is not an error.
func (s *Store[T]) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	if _, existed := s.cache.LoadAndDelete(id); existed {
		s.mu.Lock()
		s.count--
		s.mu.Unlock()
	}
	return nil
}

// All returns every cached record. Order is unspecified; callers sort.
func (s *Store[T]) All() []*T {
	var out []*T
	s.cache.Range(func(_, v interface{}) bool {
		out = append(out, v.(*T))
		return true
	})
	return out
}

// Count returns the number of stored records.
func (s *Store[T]) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dir returns the backing directory.
func (s *Store[T]) Dir() string { return s.dir }

func (s *Store[T]) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
