package document

import (
	"testing"

	"github.com/tabnote/tabnote/internal/shared/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := openTestStore(t)

	doc, err := store.Create("Title", "<p>body</p>", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if doc.Format != types.FormatHTML {
		t.Errorf("Format = %q, want default html", doc.Format)
	}

	got, ok := store.Get(doc.ID)
	if !ok {
		t.Fatal("Get() after Create() returned not found")
	}
	if got.Title != "Title" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Create("Title", "body", "rtf"); err == nil {
		t.Error("Create() with unknown format should fail")
	}
}

func TestUpdateCopiesRecord(t *testing.T) {
	store := openTestStore(t)

	doc, _ := store.Create("Before", "a", types.FormatHTML)
	updated, err := store.Update(doc.ID, "After", "b", types.FormatHTML)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "After" {
		t.Errorf("Title = %q", updated.Title)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Error("UpdatedAt went backwards")
	}
	if doc.Title != "Before" {
		t.Error("Update mutated the caller's copy")
	}
}

func TestSetReferencesOrder(t *testing.T) {
	store := openTestStore(t)

	doc, _ := store.Create("Owner", "x", types.FormatHTML)
	ids := []string{"qt_b", "qt_a", "qt_c"}
	if err := store.SetReferences(doc.ID, types.RefQuotes, ids); err != nil {
		t.Fatalf("SetReferences() error = %v", err)
	}

	got, err := store.References(doc.ID, types.RefQuotes)
	if err != nil {
		t.Fatalf("References() error = %v", err)
	}
	for i, want := range ids {
		if got[i] != want {
			t.Fatalf("References()[%d] = %q, want %q (order must persist)", i, got[i], want)
		}
	}
}

func TestSearchMatchesTitleAndContent(t *testing.T) {
	store := openTestStore(t)

	store.Create("Gardening notes", "tomatoes", types.FormatHTML)
	store.Create("Work log", "standup and Tomatoes pasta", types.FormatHTML)
	store.Create("Unrelated", "nothing here", types.FormatHTML)

	results := store.Search("tomatoes")
	if len(results) != 2 {
		t.Errorf("Search() returned %d documents, want 2", len(results))
	}
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	doc, _ := store.Create("Persisted", "body", types.FormatHTML)

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Re-open error = %v", err)
	}
	if _, ok := reopened.Get(doc.ID); !ok {
		t.Error("Document lost across restarts")
	}
}
