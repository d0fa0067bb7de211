package render

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/render/sandbox"
	"github.com/tabnote/tabnote/internal/shared/id"
)

// Service runs the full render pipeline: resolve attachment URIs,
// build the sandbox document, and open the session the host tracks.
type Service struct {
	resolver *Resolver
	builder  *sandbox.Builder
	manager  *Manager
	pool     *sandbox.Pool
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// RenderResult is one completed render.
type RenderResult struct {
	Session *Session         `json:"session"`
	HTML    string           `json:"html"`
	Markers []sandbox.Marker `json:"markers,omitempty"`
}

// PreviewResult is a dispatcher dry run over content: the messages
// its action buttons would post, without a browser involved.
type PreviewResult struct {
	Markers  []sandbox.Marker   `json:"markers,omitempty"`
	Messages []*ActionMessage   `json:"messages,omitempty"`
	Console  []sandbox.LogEntry `json:"console,omitempty"`
	Duration time.Duration      `json:"duration"`
}

// NewService wires the pipeline.
func NewService(resolver *Resolver, builder *sandbox.Builder, manager *Manager, pool *sandbox.Pool, logger *logging.Logger, metrics *monitoring.Metrics) *Service {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Service{
		resolver: resolver,
		builder:  builder,
		manager:  manager,
		pool:     pool,
		logger:   logger,
		metrics:  metrics,
	}
}

// Manager exposes the session manager for message delivery.
func (s *Service) Manager() *Manager { return s.manager }

// PoolStats reports preview runtime occupancy.
func (s *Service) PoolStats() sandbox.PoolStats { return s.pool.Stats() }

// Render builds a sandbox document for content owned by hostKey and
// returns the session serving it. A re-render of the same host key
// supersedes the previous session.
func (s *Service) Render(ctx context.Context, hostKey, content string) (*RenderResult, error) {
	start := time.Now()

	session := s.manager.Open(hostKey)

	s.manager.Transition(session.ID, StateResolvingAttachments)
	resolved := s.resolver.Resolve(ctx, content)

	html, markers, err := s.builder.Build(session.ID, resolved)
	if err != nil {
		s.manager.Transition(session.ID, StateErrored)
		return nil, fmt.Errorf("build sandbox document: %w", err)
	}
	s.manager.Publish(session.ID, html)

	if s.metrics != nil {
		s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
		s.metrics.MarkersProcessed.Add(float64(len(markers)))
	}
	s.logger.Info("rendered sandbox document",
		zap.String("session_id", session.ID),
		zap.String("host_key", hostKey),
		zap.Int("markers", len(markers)),
		zap.Duration("duration", time.Since(start)))

	return &RenderResult{Session: session, HTML: html, Markers: markers}, nil
}

// Preview builds content without opening a session and executes the
// dispatch path in the script runtime, returning the tab-action
// messages each marker's button would emit.
func (s *Service) Preview(ctx context.Context, content string) (*PreviewResult, error) {
	sandboxID := id.NewSandbox()

	resolved := s.resolver.Resolve(ctx, content)
	html, markers, err := s.builder.Build(sandboxID, resolved)
	if err != nil {
		return nil, fmt.Errorf("build sandbox document: %w", err)
	}

	script, err := sandbox.PreviewScript(sandboxID, markers)
	if err != nil {
		return nil, err
	}
	dom, err := sandbox.ParseDOM(html)
	if err != nil {
		return nil, fmt.Errorf("parse built document: %w", err)
	}

	result, err := s.pool.Execute(ctx, script, dom)
	if err != nil {
		return nil, fmt.Errorf("execute preview: %w", err)
	}

	preview := &PreviewResult{
		Markers:  markers,
		Console:  result.Console,
		Duration: result.Duration,
	}
	for _, posted := range result.Posted {
		msg, err := actionFromPayload(posted.Payload)
		if err != nil {
			s.logger.Warn("skipping malformed preview message", zap.Error(err))
			continue
		}
		preview.Messages = append(preview.Messages, msg)
	}
	return preview, nil
}

// actionFromPayload converts an exported postMessage payload back into
// a typed action message.
func actionFromPayload(payload map[string]interface{}) (*ActionMessage, error) {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	if str("type") != TypeAction {
		return nil, fmt.Errorf("unexpected message type %q", payload["type"])
	}
	msg := &ActionMessage{
		Type:         TypeAction,
		ID:           str("id"),
		Action:       str("action"),
		DocID:        str("docId"),
		QuoteID:      str("quoteId"),
		AttachmentID: str("attachmentId"),
		Label:        str("label"),
		Variant:      str("variant"),
		Source:       str("source"),
	}
	if msg.TargetID() == "" {
		return nil, fmt.Errorf("action %q carries no target id", msg.Action)
	}
	return msg, nil
}
