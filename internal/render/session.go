package render

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/shared/id"
)

// Lifecycle states of a sandbox session.
type State string

const (
	StateIdle                 State = "idle"
	StateResolvingAttachments State = "resolving_attachments"
	StateAwaitingFirstPaint   State = "awaiting_first_paint"
	StateRendered             State = "rendered"
	StateErrored              State = "errored"
)

// ErrUnknownSession is returned for messages bearing an id no live
// session owns. Superseded sessions fall in the same bucket.
var ErrUnknownSession = errors.New("render: unknown or superseded session")

// Session tracks one render invocation of a host block. A block that
// re-renders gets a fresh session and id; messages keyed to the old
// id are discarded.
type Session struct {
	ID       string    `json:"id"`
	HostKey  string    `json:"hostKey"`
	State    State     `json:"state"`
	HeightPx int       `json:"heightPx"`
	Created  time.Time `json:"created"`

	html       string
	paintTimer *time.Timer
}

// Event is a host-side notification produced by delivered messages.
type Event struct {
	SessionID string         `json:"sessionId"`
	Type      string         `json:"type"`
	HeightPx  int            `json:"heightPx,omitempty"`
	Action    *ActionMessage `json:"action,omitempty"`
}

// ManagerConfig bounds height negotiation.
type ManagerConfig struct {
	MinHeightPx       int
	DefaultHeightPx   int
	FirstPaintTimeout time.Duration
}

// Manager owns sandbox sessions and routes sandbox messages to host
// subscribers. One session is live per host key; opening a new one
// supersedes the previous, whose late messages become stale.
type Manager struct {
	mu      sync.RWMutex
	byID    map[string]*Session
	byHost  map[string]string
	subs    map[int]chan Event
	nextSub int

	config  ManagerConfig
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a session manager.
func NewManager(config ManagerConfig, logger *logging.Logger, metrics *monitoring.Metrics) *Manager {
	if config.MinHeightPx <= 0 {
		config.MinHeightPx = 48
	}
	if config.DefaultHeightPx <= 0 {
		config.DefaultHeightPx = 320
	}
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Manager{
		byID:    make(map[string]*Session),
		byHost:  make(map[string]string),
		subs:    make(map[int]chan Event),
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Open mints a session for a host block, superseding any session the
// block already had. Late messages from the replaced session are
// discarded by id.
func (m *Manager) Open(hostKey string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldID, ok := m.byHost[hostKey]; ok {
		if old := m.byID[oldID]; old != nil && old.paintTimer != nil {
			old.paintTimer.Stop()
		}
		delete(m.byID, oldID)
	}

	s := &Session{
		ID:       id.NewSandbox(),
		HostKey:  hostKey,
		State:    StateIdle,
		HeightPx: m.config.DefaultHeightPx,
		Created:  time.Now(),
	}
	m.byID[s.ID] = s
	m.byHost[hostKey] = s.ID

	if m.metrics != nil {
		m.metrics.SandboxesOpened.Inc()
		m.metrics.SandboxesActive.Set(float64(len(m.byID)))
	}
	m.logger.Debug("sandbox session opened",
		zap.String("session_id", s.ID),
		zap.String("host_key", hostKey))
	return s
}

// Transition moves a session to a new lifecycle state.
func (m *Manager) Transition(sessionID string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[sessionID]; ok {
		s.State = state
	}
}

// Publish stores a session's built document and arms the first-paint
// window: if no resize arrives in time, the height settles on the
// default and the session is considered rendered anyway.
func (m *Manager) Publish(sessionID, html string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return
	}
	s.html = html
	s.State = StateAwaitingFirstPaint
	if m.config.FirstPaintTimeout > 0 {
		s.paintTimer = time.AfterFunc(m.config.FirstPaintTimeout, func() {
			m.firstPaintFallback(sessionID)
		})
	}
}

// Document returns a session's built document for the frame to load.
func (m *Manager) Document(sessionID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[sessionID]
	if !ok || s.html == "" {
		return "", false
	}
	return s.html, true
}

// firstPaintFallback settles a session that never reported a height.
func (m *Manager) firstPaintFallback(sessionID string) {
	m.mu.Lock()
	s, ok := m.byID[sessionID]
	if !ok || s.State != StateAwaitingFirstPaint {
		m.mu.Unlock()
		return
	}
	s.State = StateRendered
	s.HeightPx = m.config.DefaultHeightPx
	event := Event{SessionID: s.ID, Type: TypeResize, HeightPx: s.HeightPx}
	m.mu.Unlock()

	m.logger.Debug("first paint timed out, using default height",
		zap.String("session_id", sessionID))
	m.broadcast(event)
}

// Get returns a live session by id.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[sessionID]
	return s, ok
}

// Close removes a session.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok {
		return
	}
	if s.paintTimer != nil {
		s.paintTimer.Stop()
	}
	delete(m.byID, sessionID)
	if m.byHost[s.HostKey] == sessionID {
		delete(m.byHost, s.HostKey)
	}
	if m.metrics != nil {
		m.metrics.SandboxesActive.Set(float64(len(m.byID)))
	}
}

// Deliver routes one sandbox message. Messages from unknown or
// superseded sessions return ErrUnknownSession and have no effect;
// late heights from a replaced iframe must not touch the current one.
func (m *Manager) Deliver(msg Message) error {
	m.mu.Lock()

	s, ok := m.byID[msg.SessionID()]
	if !ok {
		m.mu.Unlock()
		if m.metrics != nil {
			m.metrics.StaleMessages.Inc()
		}
		m.logger.Debug("discarding stale sandbox message",
			zap.String("session_id", msg.SessionID()),
			zap.String("type", msg.MessageType()))
		return ErrUnknownSession
	}

	var event Event
	switch typed := msg.(type) {
	case ResizeMessage:
		height := typed.Height
		if height < m.config.MinHeightPx {
			height = m.config.MinHeightPx
		}
		s.HeightPx = height
		if s.State == StateAwaitingFirstPaint || s.State == StateErrored {
			s.State = StateRendered
			if s.paintTimer != nil {
				s.paintTimer.Stop()
			}
		}
		if m.metrics != nil {
			m.metrics.ResizeMessages.Inc()
		}
		event = Event{SessionID: s.ID, Type: TypeResize, HeightPx: s.HeightPx}

	case ActionMessage:
		if m.metrics != nil {
			m.metrics.ActionMessages.WithLabelValues(typed.Action).Inc()
		}
		event = Event{SessionID: s.ID, Type: TypeAction, Action: &typed}

	default:
		m.mu.Unlock()
		return errors.New("render: unsupported message")
	}
	m.mu.Unlock()

	m.broadcast(event)
	return nil
}

// Subscribe registers a host-side event consumer. Slow consumers drop
// events rather than block delivery; resize consumption is last-value
// wins so a dropped intermediate height is harmless.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.nextSub
	m.nextSub++
	ch := make(chan Event, 16)
	m.subs[key] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[key]; ok {
			delete(m.subs, key)
			close(ch)
		}
	}
	return ch, cancel
}

func (m *Manager) broadcast(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// ActiveCount reports live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}
