package refedit

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tabnote/tabnote/internal/shared/types"
)

type fakeHydrator struct {
	titles map[string]string
}

func (h *fakeHydrator) Hydrate(_ context.Context, _ types.RefKind, ids []string) ([]types.RefSummary, error) {
	out := make([]types.RefSummary, 0, len(ids))
	for _, refID := range ids {
		title, ok := h.titles[refID]
		out = append(out, types.RefSummary{ID: refID, Title: title, Missing: !ok})
	}
	return out, nil
}

type fakePersister struct {
	saved   [][]string
	failErr error
}

func (p *fakePersister) Persist(_ context.Context, _, _ string, _ types.RefKind, ids []string) error {
	if p.failErr != nil {
		return p.failErr
	}
	p.saved = append(p.saved, append([]string{}, ids...))
	return nil
}

func newTestEditor(t *testing.T, ids []string, persister *fakePersister) *Editor {
	t.Helper()
	hydrator := &fakeHydrator{titles: map[string]string{
		"1": "One", "2": "Two", "3": "Three", "4": "Four",
	}}
	editor, err := NewEditor(context.Background(), "documents", "doc_x", types.RefQuotes, ids, hydrator, persister)
	if err != nil {
		t.Fatalf("NewEditor() error = %v", err)
	}
	return editor
}

func TestEditorRemoveReAdd(t *testing.T) {
	editor := newTestEditor(t, []string{"1", "2", "3"}, &fakePersister{})
	editor.Begin()

	if err := editor.Remove("2"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := editor.Add(context.Background(), "2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	want := []string{"1", "3", "2"}
	if got := editor.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}
	if !editor.Dirty() {
		t.Error("Editor should be dirty after remove and re-add")
	}
}

func TestEditorAddDuplicateNoOp(t *testing.T) {
	editor := newTestEditor(t, []string{"1", "2"}, &fakePersister{})
	editor.Begin()

	if err := editor.Add(context.Background(), "2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := editor.IDs(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("IDs() = %v, duplicate add must not change order", got)
	}
	if editor.Dirty() {
		t.Error("Duplicate add must not mark the editor dirty")
	}
}

func TestEditorMove(t *testing.T) {
	editor := newTestEditor(t, []string{"1", "2", "3", "4"}, &fakePersister{})
	editor.Begin()

	if err := editor.Move(0, 2); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	want := []string{"2", "3", "1", "4"}
	if got := editor.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("IDs() = %v, want %v", got, want)
	}

	if err := editor.Move(5, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Move(5, 0) error = %v, want ErrOutOfRange", err)
	}
	if err := editor.Move(1, 1); err != nil {
		t.Errorf("Move(1, 1) error = %v", err)
	}
}

func TestEditorSave(t *testing.T) {
	persister := &fakePersister{}
	editor := newTestEditor(t, []string{"1", "2", "3"}, persister)
	editor.Begin()

	editor.Remove("1")
	if err := editor.Save(context.Background()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if len(persister.saved) != 1 || !reflect.DeepEqual(persister.saved[0], []string{"2", "3"}) {
		t.Errorf("Persisted %v, want [[2 3]]", persister.saved)
	}
	if editor.Dirty() {
		t.Error("Save must clear the dirty flag")
	}
	if editor.Snapshot().State != StateViewing {
		t.Error("Save must return to viewing state")
	}
}

func TestEditorSaveFailureKeepsState(t *testing.T) {
	persister := &fakePersister{failErr: errors.New("backend down")}
	editor := newTestEditor(t, []string{"1", "2"}, persister)
	editor.Begin()

	editor.Remove("1")
	if err := editor.Save(context.Background()); err == nil {
		t.Fatal("Save() should surface the persist error")
	}

	// Local edits survive so the user can retry without redoing them.
	if got := editor.IDs(); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("IDs() = %v, want [2]", got)
	}
	if !editor.Dirty() {
		t.Error("Failed save must leave the editor dirty")
	}
	if editor.Snapshot().State != StateEditing {
		t.Error("Failed save must stay in editing state")
	}
}

func TestEditorDiscard(t *testing.T) {
	editor := newTestEditor(t, []string{"1", "2", "3"}, &fakePersister{})
	editor.Begin()

	editor.Remove("2")
	editor.Move(0, 1)
	if err := editor.Discard(context.Background()); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	if got := editor.IDs(); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("IDs() = %v, want original order restored", got)
	}
	if editor.Dirty() {
		t.Error("Discard must clear the dirty flag")
	}
}

func TestEditorHydratesMissing(t *testing.T) {
	editor := newTestEditor(t, []string{"1", "gone"}, &fakePersister{})

	snapshot := editor.Snapshot()
	if len(snapshot.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(snapshot.Items))
	}
	if snapshot.Items[1].ID != "gone" || !snapshot.Items[1].Missing {
		t.Errorf("Dangling reference should stay visible with Missing set: %+v", snapshot.Items[1])
	}
}

func TestEditorRequiresEditing(t *testing.T) {
	editor := newTestEditor(t, []string{"1"}, &fakePersister{})

	if err := editor.Add(context.Background(), "2"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Add before Begin error = %v, want ErrNotEditing", err)
	}
	if err := editor.Remove("1"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Remove before Begin error = %v, want ErrNotEditing", err)
	}
	if err := editor.Save(context.Background()); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save before Begin error = %v, want ErrNotEditing", err)
	}
}

func TestManagerSessions(t *testing.T) {
	hydrator := &fakeHydrator{titles: map[string]string{"1": "One", "2": "Two"}}
	persister := &fakePersister{}
	manager := NewManager(hydrator, persister, nil)

	sessionID, editor, err := manager.Open(context.Background(), "documents", "doc_x", types.RefQuotes, []string{"1"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := editor.Add(context.Background(), "2"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	snapshot, err := manager.Save(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if snapshot.Dirty {
		t.Error("Saved snapshot should not be dirty")
	}

	// Session is closed after save.
	if _, err := manager.Get(sessionID); !errors.Is(err, ErrNoSession) {
		t.Errorf("Get after save error = %v, want ErrNoSession", err)
	}
}
