// Package attachment manages uploaded files: metadata in the shared
// store, blobs beside it on disk.
package attachment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/tabnote/tabnote/internal/shared/id"
	"github.com/tabnote/tabnote/internal/shared/types"
	"github.com/tabnote/tabnote/internal/storage"
)

// MaxBlobSize limits uploads to 50MB.
const MaxBlobSize = 50 * 1024 * 1024

// Store manages attachment metadata and blobs.
type Store struct {
	records *storage.Store[types.Attachment]
	blobDir string
}

// Open loads the attachment store under dataDir.
func Open(dataDir string) (*Store, error) {
	records, err := storage.Open[types.Attachment](filepath.Join(dataDir, "attachments"))
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment store: %w", err)
	}

	blobDir := filepath.Join(dataDir, "blobs")
	if err := os.MkdirAll(blobDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}

	return &Store{records: records, blobDir: blobDir}, nil
}

// Create stores a new attachment. Content type is sniffed from the
// data; text blobs get their charset detected and are normalized to
// UTF-8 so downstream rendering never sees a mojibake payload.
func (s *Store) Create(name string, data []byte) (*types.Attachment, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("attachment data is empty")
	}
	if len(data) > MaxBlobSize {
		return nil, fmt.Errorf("attachment size %d exceeds maximum %d bytes", len(data), MaxBlobSize)
	}

	mtype := mimetype.Detect(data)
	contentType := mtype.String()

	detectedCharset := ""
	if strings.HasPrefix(contentType, "text/") {
		detectedCharset = detectCharset(data)
		if detectedCharset != "" && detectedCharset != "utf-8" {
			if normalized, err := toUTF8(data, detectedCharset); err == nil {
				data = normalized
				detectedCharset = "utf-8"
			}
		}
	}

	att := &types.Attachment{
		ID:          id.NewAttachment(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Charset:     detectedCharset,
		CreatedAt:   time.Now(),
	}

	if err := os.WriteFile(s.blobPath(att.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := s.records.Put(att.ID, att); err != nil {
		os.Remove(s.blobPath(att.ID))
		return nil, err
	}
	return att, nil
}

// Get returns attachment metadata by id.
func (s *Store) Get(attID string) (*types.Attachment, bool) {
	return s.records.Get(attID)
}

// Blob returns the stored bytes for an attachment.
func (s *Store) Blob(attID string) ([]byte, error) {
	if _, ok := s.records.Get(attID); !ok {
		return nil, fmt.Errorf("attachment %s not found", attID)
	}
	data, err := os.ReadFile(s.blobPath(attID))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", attID, err)
	}
	return data, nil
}

// Delete removes metadata and blob.
func (s *Store) Delete(attID string) error {
	if err := s.records.Delete(attID); err != nil {
		return err
	}
	if err := os.Remove(s.blobPath(attID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", attID, err)
	}
	return nil
}

// List returns a page of attachments, newest first.
func (s *Store) List(page, pageSize int) ([]*types.Attachment, types.Pagination) {
	all := s.records.All()
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	pagination, start, end := types.Page(len(all), page, pageSize)
	return all[start:end], pagination
}

// Search returns attachments whose name contains the query.
func (s *Store) Search(query string) []*types.Attachment {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var hits []*types.Attachment
	for _, att := range s.records.All() {
		if strings.Contains(strings.ToLower(att.Name), query) {
			hits = append(hits, att)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].CreatedAt.After(hits[j].CreatedAt)
	})
	return hits
}

// Count returns the number of stored attachments.
func (s *Store) Count() int { return s.records.Count() }

func (s *Store) blobPath(attID string) string {
	return filepath.Join(s.blobDir, attID+".bin")
}

// detectCharset returns the lowercased best-guess charset, or "" when
// detection fails.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return strings.ToLower(result.Charset)
}

// toUTF8 re-encodes data from the named charset to UTF-8.
func toUTF8(data []byte, fromCharset string) ([]byte, error) {
	reader, err := charset.NewReaderLabel(fromCharset, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}
