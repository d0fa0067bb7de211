package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/domain/export"
	"github.com/tabnote/tabnote/internal/shared/types"
	"github.com/tabnote/tabnote/internal/shared/utils"
)

type documentRequest struct {
	Title   string       `json:"title" binding:"required"`
	Content string       `json:"content"`
	Format  types.Format `json:"format"`
}

// ListDocuments returns a page of documents, or a search when q is set.
func (h *Handlers) ListDocuments(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		c.JSON(http.StatusOK, types.Envelope{Data: h.documents.Search(query)})
		return
	}

	page, pageSize := pageParams(c)
	docs, pagination := h.documents.List(page, pageSize)
	c.JSON(http.StatusOK, types.Envelope{Data: docs, Pagination: &pagination})
}

// CreateDocument stores a new document.
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateContent(req.Content); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.documents.Create(req.Title, req.Content, req.Format)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("documents").Set(float64(h.documents.Count()))
	}
	h.logger.Info("document created", zap.String("doc_id", doc.ID))
	c.JSON(http.StatusCreated, doc)
}

// GetDocument returns one document with hydrated reference summaries.
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, ok := h.documents.Get(c.Param("id"))
	if !ok {
		notFound(c, "document")
		return
	}

	ctx := c.Request.Context()
	refDocs, _ := h.refs.Hydrate(ctx, types.RefDocuments, doc.Refs.Documents)
	refQuotes, _ := h.refs.Hydrate(ctx, types.RefQuotes, doc.Refs.Quotes)
	refAtts, _ := h.refs.Hydrate(ctx, types.RefAttachments, doc.Refs.Attachments)

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"references": gin.H{
			"documents":   refDocs,
			"quotes":      refQuotes,
			"attachments": refAtts,
		},
	})
}

// UpdateDocument snapshots the current content, then applies the edit.
func (h *Handlers) UpdateDocument(c *gin.Context) {
	docID := c.Param("id")

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateTitle(req.Title); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidateContent(req.Content); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	current, ok := h.documents.Get(docID)
	if !ok {
		notFound(c, "document")
		return
	}
	if _, err := h.versions.Create(current); err != nil {
		// A failed snapshot must not block the edit itself.
		h.logger.Warn("version snapshot failed",
			zap.String("doc_id", docID), zap.Error(err))
	}

	doc, err := h.documents.Update(docID, req.Title, req.Content, req.Format)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeleteDocument removes a document. References held by other
// entities are left in place and surface as missing on hydration.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	docID := c.Param("id")
	if _, ok := h.documents.Get(docID); !ok {
		notFound(c, "document")
		return
	}
	if err := h.documents.Delete(docID); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("documents").Set(float64(h.documents.Count()))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListVersions returns a document's snapshots, newest first.
func (h *Handlers) ListVersions(c *gin.Context) {
	docID := c.Param("id")
	if _, ok := h.documents.Get(docID); !ok {
		notFound(c, "document")
		return
	}

	versions, err := h.versions.List(docID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, types.Envelope{Data: versions})
}

// GetVersion returns one snapshot with its content.
func (h *Handlers) GetVersion(c *gin.Context) {
	ver, err := h.versions.Get(c.Param("id"), c.Param("versionId"))
	if err != nil {
		notFound(c, "version")
		return
	}
	c.JSON(http.StatusOK, ver)
}

// ExportDocument serializes a document with its hydrated references.
func (h *Handlers) ExportDocument(c *gin.Context) {
	doc, ok := h.documents.Get(c.Param("id"))
	if !ok {
		notFound(c, "document")
		return
	}

	ctx := c.Request.Context()
	refDocs, _ := h.refs.Hydrate(ctx, types.RefDocuments, doc.Refs.Documents)
	refQuotes, _ := h.refs.Hydrate(ctx, types.RefQuotes, doc.Refs.Quotes)
	refAtts, _ := h.refs.Hydrate(ctx, types.RefAttachments, doc.Refs.Attachments)

	bundle := &export.Bundle{
		Document:    doc,
		Documents:   refDocs,
		Quotes:      refQuotes,
		Attachments: refAtts,
	}
	data, contentType, err := export.Encode(bundle, export.Format(c.DefaultQuery("format", "json")))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.Data(http.StatusOK, contentType, data)
}
