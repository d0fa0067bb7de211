// Package version manages point-in-time document snapshots, stored
// gzip-compressed since note content compresses well and snapshots
// are write-once.
package version

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/tabnote/tabnote/internal/shared/id"
	"github.com/tabnote/tabnote/internal/shared/types"
)

// Store persists version snapshots under <dataDir>/versions/<docID>/.
type Store struct {
	dir string
}

// Open prepares the version store under dataDir.
func Open(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "versions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create version dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create snapshots the document's current title and content.
func (s *Store) Create(doc *types.Document) (*types.Version, error) {
	ver := &types.Version{
		ID:        id.NewVersion(),
		DocID:     doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		CreatedAt: doc.UpdatedAt,
	}

	docDir := filepath.Join(s.dir, doc.ID)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	path := filepath.Join(docDir, ver.ID+".json.gz")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(ver); err != nil {
		gz.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to finalize snapshot: %w", err)
	}
	return ver, nil
}

// Get loads one snapshot.
func (s *Store) Get(docID, verID string) (*types.Version, error) {
	path := filepath.Join(s.dir, docID, verID+".json.gz")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("version %s not found", verID)
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", verID, err)
	}
	defer gz.Close()

	var ver types.Version
	if err := json.NewDecoder(io.LimitReader(gz, 64*1024*1024)).Decode(&ver); err != nil {
		return nil, fmt.Errorf("corrupt snapshot %s: %w", verID, err)
	}
	return &ver, nil
}

// List returns all snapshots for a document, newest first, with
// content omitted (snapshots can be large; fetch one via Get).
func (s *Store) List(docID string) ([]*types.Version, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, docID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var versions []*types.Version
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json.gz") {
			continue
		}
		verID := strings.TrimSuffix(entry.Name(), ".json.gz")
		ver, err := s.Get(docID, verID)
		if err != nil {
			// Skip unreadable snapshots; the rest of the history is
			// still useful.
			continue
		}
		ver.Content = ""
		versions = append(versions, ver)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].CreatedAt.After(versions[j].CreatedAt)
	})
	return versions, nil
}
