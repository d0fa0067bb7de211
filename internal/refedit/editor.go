package refedit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tabnote/tabnote/internal/shared/types"
)

// Editor states.
type State string

const (
	StateViewing State = "viewing"
	StateEditing State = "editing"
)

var (
	ErrNotEditing = errors.New("refedit: editor is not in editing state")
	ErrOutOfRange = errors.New("refedit: index out of range")
)

// Hydrator resolves reference ids to display summaries. Ids that no
// longer resolve come back with Missing set rather than being dropped,
// so a dangling reference stays visible and removable.
type Hydrator interface {
	Hydrate(ctx context.Context, kind types.RefKind, ids []string) ([]types.RefSummary, error)
}

// Persister writes the full ordered id list for one reference
// collection in a single call.
type Persister interface {
	Persist(ctx context.Context, ownerKind, ownerID string, kind types.RefKind, ids []string) error
}

// Editor is the state machine behind one reference collection edit:
// load, local add/remove/reorder with dirty tracking, then either a
// single save of the full ordered list or a discard back to the last
// persisted order. One editor instance serves one collection; the
// backend is the arbiter of final order across concurrent editors
// (last writer wins).
type Editor struct {
	mu sync.Mutex

	ownerKind string
	ownerID   string
	kind      types.RefKind

	state       State
	items       []types.RefSummary
	originalIDs []string
	dirty       bool

	hydrator  Hydrator
	persister Persister
}

// Snapshot is a point-in-time view of an editor.
type Snapshot struct {
	OwnerKind string             `json:"ownerKind"`
	OwnerID   string             `json:"ownerId"`
	Kind      types.RefKind      `json:"kind"`
	State     State              `json:"state"`
	Dirty     bool               `json:"dirty"`
	Items     []types.RefSummary `json:"items"`
}

// NewEditor hydrates the persisted id list and starts in viewing state.
func NewEditor(ctx context.Context, ownerKind, ownerID string, kind types.RefKind, ids []string, hydrator Hydrator, persister Persister) (*Editor, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("refedit: invalid reference kind %q", kind)
	}
	items, err := hydrator.Hydrate(ctx, kind, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate references: %w", err)
	}
	return &Editor{
		ownerKind:   ownerKind,
		ownerID:     ownerID,
		kind:        kind,
		state:       StateViewing,
		items:       items,
		originalIDs: append([]string{}, ids...),
		hydrator:    hydrator,
		persister:   persister,
	}, nil
}

// Begin enters editing state. Beginning twice is a no-op.
func (e *Editor) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateEditing
}

// Add appends a reference. Adding an id already present is a no-op
// and does not mark the editor dirty.
func (e *Editor) Add(ctx context.Context, refID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEditing {
		return ErrNotEditing
	}
	for _, item := range e.items {
		if item.ID == refID {
			return nil
		}
	}

	hydrated, err := e.hydrator.Hydrate(ctx, e.kind, []string{refID})
	if err != nil {
		return fmt.Errorf("hydrate reference %s: %w", refID, err)
	}
	if len(hydrated) == 0 {
		hydrated = []types.RefSummary{{ID: refID, Missing: true}}
	}
	e.items = append(e.items, hydrated[0])
	e.dirty = true
	return nil
}

// Remove deletes a reference by id. Removing an absent id is a no-op.
func (e *Editor) Remove(refID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEditing {
		return ErrNotEditing
	}
	for i, item := range e.items {
		if item.ID == refID {
			e.items = append(e.items[:i], e.items[i+1:]...)
			e.dirty = true
			return nil
		}
	}
	return nil
}

// Move reorders the item at from to position to.
func (e *Editor) Move(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEditing {
		return ErrNotEditing
	}
	if from < 0 || from >= len(e.items) || to < 0 || to >= len(e.items) {
		return ErrOutOfRange
	}
	if from == to {
		return nil
	}

	item := e.items[from]
	e.items = append(e.items[:from], e.items[from+1:]...)
	e.items = append(e.items[:to], append([]types.RefSummary{item}, e.items[to:]...)...)
	e.dirty = true
	return nil
}

// Save persists the full ordered id list in one call. On success the
// saved order becomes the new baseline and the editor returns to
// viewing. On failure local state is left untouched so the user can
// retry without redoing the edit; there is no rollback and no retry.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEditing {
		return ErrNotEditing
	}

	ids := e.currentIDs()
	if err := e.persister.Persist(ctx, e.ownerKind, e.ownerID, e.kind, ids); err != nil {
		return fmt.Errorf("persist references: %w", err)
	}

	e.originalIDs = ids
	e.dirty = false
	e.state = StateViewing
	return nil
}

// Discard drops local edits and re-hydrates the last persisted order.
func (e *Editor) Discard(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.hydrator.Hydrate(ctx, e.kind, e.originalIDs)
	if err != nil {
		return fmt.Errorf("hydrate references: %w", err)
	}
	e.items = items
	e.dirty = false
	e.state = StateViewing
	return nil
}

// Snapshot returns the current editor view.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		OwnerKind: e.ownerKind,
		OwnerID:   e.ownerID,
		Kind:      e.kind,
		State:     e.state,
		Dirty:     e.dirty,
		Items:     append([]types.RefSummary{}, e.items...),
	}
}

// IDs returns the current ordered id list.
func (e *Editor) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentIDs()
}

// Dirty reports whether local state diverges from the baseline.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Editor) currentIDs() []string {
	ids := make([]string, len(e.items))
	for i, item := range e.items {
		ids[i] = item.ID
	}
	return ids
}
