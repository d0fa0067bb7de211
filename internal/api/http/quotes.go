package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/shared/types"
	"github.com/tabnote/tabnote/internal/shared/utils"
)

// ListQuotes returns a page of quotes, or a search when q is set.
func (h *Handlers) ListQuotes(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		c.JSON(http.StatusOK, types.Envelope{Data: h.quotes.Search(query)})
		return
	}

	page, pageSize := pageParams(c)
	quotes, pagination := h.quotes.List(page, pageSize)
	c.JSON(http.StatusOK, types.Envelope{Data: quotes, Pagination: &pagination})
}

// CreateQuote stores a favorited excerpt.
func (h *Handlers) CreateQuote(c *gin.Context) {
	var req struct {
		Content     string `json:"content" binding:"required"`
		SourceDocID string `json:"source_doc_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateContent(req.Content); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.SourceDocID != "" {
		if _, ok := h.documents.Get(req.SourceDocID); !ok {
			fail(c, http.StatusBadRequest, "source document does not exist")
			return
		}
	}

	q, err := h.quotes.Create(req.Content, req.SourceDocID)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("quotes").Set(float64(h.quotes.Count()))
	}
	h.logger.Info("quote created", zap.String("quote_id", q.ID))
	c.JSON(http.StatusCreated, q)
}

// GetQuote returns one quote with hydrated reference summaries.
func (h *Handlers) GetQuote(c *gin.Context) {
	q, ok := h.quotes.Get(c.Param("id"))
	if !ok {
		notFound(c, "quote")
		return
	}

	ctx := c.Request.Context()
	refDocs, _ := h.refs.Hydrate(ctx, types.RefDocuments, q.Refs.Documents)
	refQuotes, _ := h.refs.Hydrate(ctx, types.RefQuotes, q.Refs.Quotes)
	refAtts, _ := h.refs.Hydrate(ctx, types.RefAttachments, q.Refs.Attachments)

	c.JSON(http.StatusOK, gin.H{
		"quote": q,
		"references": gin.H{
			"documents":   refDocs,
			"quotes":      refQuotes,
			"attachments": refAtts,
		},
	})
}

// UpdateQuote replaces a quote's content.
func (h *Handlers) UpdateQuote(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateContent(req.Content); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.quotes.Update(c.Param("id"), req.Content)
	if err != nil {
		notFound(c, "quote")
		return
	}
	c.JSON(http.StatusOK, q)
}

// DeleteQuote removes a quote.
func (h *Handlers) DeleteQuote(c *gin.Context) {
	quoteID := c.Param("id")
	if _, ok := h.quotes.Get(quoteID); !ok {
		notFound(c, "quote")
		return
	}
	if err := h.quotes.Delete(quoteID); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("quotes").Set(float64(h.quotes.Count()))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
