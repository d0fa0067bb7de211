// Package http holds the REST API handlers.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tabnote/tabnote/internal/domain/attachment"
	"github.com/tabnote/tabnote/internal/domain/document"
	"github.com/tabnote/tabnote/internal/domain/quote"
	"github.com/tabnote/tabnote/internal/domain/refs"
	"github.com/tabnote/tabnote/internal/domain/version"
	"github.com/tabnote/tabnote/internal/infrastructure/logging"
	"github.com/tabnote/tabnote/internal/infrastructure/monitoring"
	"github.com/tabnote/tabnote/internal/refedit"
	"github.com/tabnote/tabnote/internal/render"
	"github.com/tabnote/tabnote/internal/render/signing"
)

// Handlers carries the wired services behind the REST routes.
type Handlers struct {
	documents   *document.Store
	quotes      *quote.Store
	attachments *attachment.Store
	versions    *version.Store
	refs        *refs.Service
	editors     *refedit.Manager
	renderer    *render.Service
	verifier    *signing.HMACSigner

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandlers creates the handler set.
func NewHandlers(
	documents *document.Store,
	quotes *quote.Store,
	attachments *attachment.Store,
	versions *version.Store,
	refService *refs.Service,
	editors *refedit.Manager,
	renderer *render.Service,
	verifier *signing.HMACSigner,
	logger *logging.Logger,
	metrics *monitoring.Metrics,
) *Handlers {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Handlers{
		documents:   documents,
		quotes:      quotes,
		attachments: attachments,
		versions:    versions,
		refs:        refService,
		editors:     editors,
		renderer:    renderer,
		verifier:    verifier,
		logger:      logger,
		metrics:     metrics,
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func notFound(c *gin.Context, what string) {
	fail(c, http.StatusNotFound, what+" not found")
}

// pageParams reads pagination query parameters; zero values let the
// store apply its defaults.
func pageParams(c *gin.Context) (page, pageSize int) {
	return atoiDefault(c.Query("page"), 1), atoiDefault(c.Query("page_size"), 0)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
