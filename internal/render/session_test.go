package render

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T, config ManagerConfig) *Manager {
	t.Helper()
	return NewManager(config, nil, nil)
}

func TestManagerOpenSupersedes(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	first := m.Open("doc_1")
	second := m.Open("doc_1")

	if first.ID == second.ID {
		t.Fatal("Superseding session reused the old id")
	}
	if _, ok := m.Get(first.ID); ok {
		t.Error("Superseded session still live")
	}
	if _, ok := m.Get(second.ID); !ok {
		t.Error("Current session not live")
	}
	if m.ActiveCount() != 1 {
		t.Errorf("ActiveCount = %d, want 1", m.ActiveCount())
	}
}

// Two renders of the same block: a late resize keyed to the first
// session must not touch the height of the second.
func TestManagerDiscardsStaleResize(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	first := m.Open("doc_1")
	second := m.Open("doc_1")
	m.Publish(second.ID, "<html></html>")

	if err := m.Deliver(ResizeMessage{Type: TypeResize, ID: second.ID, Height: 500}); err != nil {
		t.Fatalf("Deliver(current) error = %v", err)
	}

	err := m.Deliver(ResizeMessage{Type: TypeResize, ID: first.ID, Height: 9000})
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("Deliver(stale) error = %v, want ErrUnknownSession", err)
	}

	s, _ := m.Get(second.ID)
	if s.HeightPx != 500 {
		t.Errorf("HeightPx = %d, want 500 (stale message must not apply)", s.HeightPx)
	}
}

func TestManagerClampsMinHeight(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	s := m.Open("doc_1")
	m.Publish(s.ID, "<html></html>")

	if err := m.Deliver(ResizeMessage{Type: TypeResize, ID: s.ID, Height: 3}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	got, _ := m.Get(s.ID)
	if got.HeightPx != 48 {
		t.Errorf("HeightPx = %d, want clamped 48", got.HeightPx)
	}
	if got.State != StateRendered {
		t.Errorf("State = %q, want %q", got.State, StateRendered)
	}
}

func TestManagerFirstPaintFallback(t *testing.T) {
	m := newTestManager(t, ManagerConfig{
		MinHeightPx:       48,
		DefaultHeightPx:   320,
		FirstPaintTimeout: 20 * time.Millisecond,
	})

	events, cancel := m.Subscribe()
	defer cancel()

	s := m.Open("doc_1")
	m.Publish(s.ID, "<html></html>")

	select {
	case ev := <-events:
		if ev.SessionID != s.ID || ev.Type != TypeResize || ev.HeightPx != 320 {
			t.Errorf("Unexpected fallback event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("No fallback event after first-paint timeout")
	}

	got, _ := m.Get(s.ID)
	if got.State != StateRendered {
		t.Errorf("State = %q, want %q", got.State, StateRendered)
	}
	if got.HeightPx != 320 {
		t.Errorf("HeightPx = %d, want default 320", got.HeightPx)
	}
}

func TestManagerResizeCancelsFallback(t *testing.T) {
	m := newTestManager(t, ManagerConfig{
		MinHeightPx:       48,
		DefaultHeightPx:   320,
		FirstPaintTimeout: 50 * time.Millisecond,
	})

	s := m.Open("doc_1")
	m.Publish(s.ID, "<html></html>")

	if err := m.Deliver(ResizeMessage{Type: TypeResize, ID: s.ID, Height: 600}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	got, _ := m.Get(s.ID)
	if got.HeightPx != 600 {
		t.Errorf("HeightPx = %d, want 600 (fallback must not fire after paint)", got.HeightPx)
	}
}

func TestManagerRoutesActions(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	events, cancel := m.Subscribe()
	defer cancel()

	s := m.Open("doc_1")
	msg := ActionMessage{
		Type:    TypeAction,
		ID:      s.ID,
		Action:  ActionOpenQuote,
		QuoteID: "qt_7",
		Label:   "A quote",
		Source:  "html-sandbox",
	}
	if err := m.Deliver(msg); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != TypeAction || ev.Action == nil {
			t.Fatalf("Unexpected event: %+v", ev)
		}
		if ev.Action.TargetID() != "qt_7" {
			t.Errorf("TargetID = %q, want qt_7", ev.Action.TargetID())
		}
	case <-time.After(time.Second):
		t.Fatal("Action event not delivered")
	}
}

func TestManagerCloseSession(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	s := m.Open("doc_1")
	m.Close(s.ID)

	if _, ok := m.Get(s.ID); ok {
		t.Error("Closed session still live")
	}
	if err := m.Deliver(ResizeMessage{Type: TypeResize, ID: s.ID, Height: 100}); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Deliver after close error = %v, want ErrUnknownSession", err)
	}
}

func TestDocumentLookup(t *testing.T) {
	m := newTestManager(t, ManagerConfig{MinHeightPx: 48, DefaultHeightPx: 320})

	s := m.Open("doc_1")
	if _, ok := m.Document(s.ID); ok {
		t.Error("Document available before Publish")
	}

	m.Publish(s.ID, "<!DOCTYPE html>\n<html></html>")
	html, ok := m.Document(s.ID)
	if !ok || html == "" {
		t.Error("Document not available after Publish")
	}
}
