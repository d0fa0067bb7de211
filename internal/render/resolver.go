// Package render implements the sandbox rendering pipeline: attachment
// reference resolution, sandbox document construction, and the
// session-scoped host message listener.
package render

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/render/signing"
)

// attachRefPattern matches attach://<id> placeholder URIs in stored
// content. Ids are the safe-id alphabet, so a simple pattern suffices.
var attachRefPattern = regexp.MustCompile(`attach://([a-zA-Z0-9_-]+)`)

// Resolver rewrites attachment placeholder URIs into signed URLs.
type Resolver struct {
	signer  signing.Signer
	ttl     time.Duration
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewResolver creates a resolver issuing URLs valid for ttl.
func NewResolver(signer signing.Signer, ttl time.Duration, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Resolver{signer: signer, ttl: ttl, logger: logger}
}

// WithMetrics attaches a metrics collector.
func (r *Resolver) WithMetrics(m *monitoring.Metrics) *Resolver {
	r.metrics = m
	return r
}

// Resolve replaces every attach://<id> occurrence with a signed URL.
// Content without placeholders passes through untouched and never
// triggers a signer call. A failed batch call logs and returns the
// original content: a broken media link beats a broken render.
func (r *Resolver) Resolve(ctx context.Context, content string) string {
	matches := attachRefPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return content
	}

	// Distinct ids, first-appearance order.
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	}

	if r.metrics != nil {
		r.metrics.Resolutions.Inc()
	}

	urls, err := r.signer.SignBatch(ctx, ids, r.ttl)
	if err != nil {
		r.logger.Warn("attachment resolution failed, rendering unresolved",
			zap.Int("ids", len(ids)),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.ResolutionErrors.Inc()
		}
		return content
	}

	if r.metrics != nil {
		r.metrics.AttachmentsSigned.Add(float64(len(urls)))
	}

	return attachRefPattern.ReplaceAllStringFunc(content, func(ref string) string {
		attID := attachRefPattern.FindStringSubmatch(ref)[1]
		if signed, ok := urls[attID]; ok {
			return signed
		}
		// Not in the batch response; leave the placeholder alone.
		return ref
	})
}
