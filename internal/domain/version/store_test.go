package version

import (
	"testing"
	"time"

	"github.com/tabnote/tabnote/internal/shared/types"
)

func testDoc(content string) *types.Document {
	now := time.Now()
	return &types.Document{
		ID:        "doc_test",
		Title:     "Snapshot me",
		Content:   content,
		Format:    types.FormatHTML,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	doc := testDoc("<p>long content that compresses fine</p>")
	ver, err := store.Create(doc)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(doc.ID, ver.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Content != doc.Content {
		t.Errorf("Content = %q, want original", got.Content)
	}
	if got.Title != doc.Title {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestListNewestFirstWithoutContent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	doc := testDoc("v1")
	first, _ := store.Create(doc)
	doc.Content = "v2"
	doc.UpdatedAt = doc.UpdatedAt.Add(time.Second)
	second, _ := store.Create(doc)

	versions, err := store.List(doc.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("List() returned %d versions, want 2", len(versions))
	}
	if versions[0].ID != second.ID || versions[1].ID != first.ID {
		t.Error("List() not newest first")
	}
	if versions[0].Content != "" {
		t.Error("List() should omit content")
	}
}

func TestListUnknownDocument(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	versions, err := store.List("doc_never")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("List() returned %d versions for unknown doc", len(versions))
	}
}
