package http

import (
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tabnote/tabnote/internal/domain/attachment"
	"github.com/tabnote/tabnote/internal/shared/types"
)

// ListAttachments returns attachment metadata, or a search when q is set.
func (h *Handlers) ListAttachments(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		c.JSON(http.StatusOK, types.Envelope{Data: h.attachments.Search(query)})
		return
	}

	page, pageSize := pageParams(c)
	atts, pagination := h.attachments.List(page, pageSize)
	c.JSON(http.StatusOK, types.Envelope{Data: atts, Pagination: &pagination})
}

// UploadAttachment stores a multipart file upload. Content type and
// charset are sniffed server side; the client's claims are ignored.
func (h *Handlers) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, attachment.MaxBlobSize+1))
	if err != nil {
		fail(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(data)) > attachment.MaxBlobSize {
		fail(c, http.StatusRequestEntityTooLarge, "attachment exceeds size limit")
		return
	}

	att, err := h.attachments.Create(header.Filename, data)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("attachments").Set(float64(h.attachments.Count()))
	}
	h.logger.Info("attachment uploaded",
		zap.String("attachment_id", att.ID),
		zap.String("content_type", att.ContentType),
		zap.Int64("size", att.Size))
	c.JSON(http.StatusCreated, att)
}

// GetAttachment returns attachment metadata.
func (h *Handlers) GetAttachment(c *gin.Context) {
	att, ok := h.attachments.Get(c.Param("id"))
	if !ok {
		notFound(c, "attachment")
		return
	}
	c.JSON(http.StatusOK, att)
}

// DeleteAttachment removes metadata and blob.
func (h *Handlers) DeleteAttachment(c *gin.Context) {
	attID := c.Param("id")
	if _, ok := h.attachments.Get(attID); !ok {
		notFound(c, "attachment")
		return
	}
	if err := h.attachments.Delete(attID); err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.Entities.WithLabelValues("attachments").Set(float64(h.attachments.Count()))
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DownloadBlob serves attachment bytes behind a signed URL. These are
// the URLs the attachment resolver mints into rendered content; an
// invalid or expired signature is rejected before any disk access.
func (h *Handlers) DownloadBlob(c *gin.Context) {
	attID := c.Param("id")

	if err := h.verifier.VerifyQuery(attID, c.Query("exp"), c.Query("sig")); err != nil {
		fail(c, http.StatusForbidden, "invalid or expired signature")
		return
	}

	att, ok := h.attachments.Get(attID)
	if !ok {
		notFound(c, "attachment")
		return
	}
	data, err := h.attachments.Blob(attID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "blob unavailable")
		return
	}

	// FormatMediaType handles quoting and non-ASCII names (RFC 2231).
	c.Header("Content-Disposition",
		mime.FormatMediaType("inline", map[string]string{"filename": att.Name}))
	c.Data(http.StatusOK, att.ContentType, data)
}

// SignAttachments issues signed URLs for a batch of attachment ids.
// This is the endpoint a remote signer client calls; running it
// locally keeps single-node deployments self-contained.
func (h *Handlers) SignAttachments(c *gin.Context) {
	var req struct {
		IDs        []string `json:"ids" binding:"required"`
		TTLSeconds int      `json:"ttl_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	ttl := time.Duration(req.TTLSeconds) * time.Second
	urls, err := h.verifier.SignBatch(c.Request.Context(), req.IDs, ttl)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.AttachmentsSigned.Add(float64(len(urls)))
	}
	c.JSON(http.StatusOK, gin.H{"data": urls})
}
