package refedit

import (
	"context"
	"errors"
	"sync"

	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/shared/id"
	"github.com/tabnote/tabnote/internal/shared/types"
)

// ErrNoSession is returned for operations on unknown edit sessions.
var ErrNoSession = errors.New("refedit: no such edit session")

// Manager tracks edit sessions over the API. Each session wraps one
// Editor and is addressed by an opaque session id, so the host UI can
// drive the state machine statelessly across requests.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Editor

	hydrator  Hydrator
	persister Persister
	metrics   *monitoring.Metrics
}

// NewManager creates an edit session manager.
func NewManager(hydrator Hydrator, persister Persister, metrics *monitoring.Metrics) *Manager {
	return &Manager{
		sessions:  make(map[string]*Editor),
		hydrator:  hydrator,
		persister: persister,
		metrics:   metrics,
	}
}

// Open creates an edit session for one reference collection and
// enters editing state.
func (m *Manager) Open(ctx context.Context, ownerKind, ownerID string, kind types.RefKind, ids []string) (string, *Editor, error) {
	editor, err := NewEditor(ctx, ownerKind, ownerID, kind, ids, m.hydrator, m.persister)
	if err != nil {
		return "", nil, err
	}
	editor.Begin()

	sessionID := id.NewRefEdit()
	m.mu.Lock()
	m.sessions[sessionID] = editor
	active := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.EditSessionsActive.Set(float64(active))
	}
	return sessionID, editor, nil
}

// Get looks up an edit session.
func (m *Manager) Get(sessionID string) (*Editor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	editor, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNoSession
	}
	return editor, nil
}

// Save persists a session's current order and closes it on success.
func (m *Manager) Save(ctx context.Context, sessionID string) (Snapshot, error) {
	editor, err := m.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	if err := editor.Save(ctx); err != nil {
		if m.metrics != nil {
			m.metrics.RefSaveFailures.Inc()
		}
		return editor.Snapshot(), err
	}

	if m.metrics != nil {
		m.metrics.RefSaves.Inc()
	}
	snapshot := editor.Snapshot()
	m.close(sessionID)
	return snapshot, nil
}

// Discard drops a session's edits and closes it.
func (m *Manager) Discard(ctx context.Context, sessionID string) (Snapshot, error) {
	editor, err := m.Get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := editor.Discard(ctx); err != nil {
		return Snapshot{}, err
	}
	snapshot := editor.Snapshot()
	m.close(sessionID)
	return snapshot, nil
}

func (m *Manager) close(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	active := len(m.sessions)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.EditSessionsActive.Set(float64(active))
	}
}
