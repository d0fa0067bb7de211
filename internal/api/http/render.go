package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabnote/tabnote/internal/shared/utils"
)

// PostRender builds a sandbox document. The request names either a
// stored document (doc_id) or inline content; each rendered block is
// keyed by host_key so a re-render supersedes the previous session.
func (h *Handlers) PostRender(c *gin.Context) {
	var req struct {
		DocID   string `json:"doc_id"`
		Content string `json:"content"`
		HostKey string `json:"host_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	content := req.Content
	hostKey := req.HostKey
	if req.DocID != "" {
		if err := utils.ValidateID(req.DocID, "doc_id", true); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		doc, ok := h.documents.Get(req.DocID)
		if !ok {
			notFound(c, "document")
			return
		}
		content = doc.Content
		if hostKey == "" {
			hostKey = doc.ID
		}
	}
	if hostKey == "" {
		fail(c, http.StatusBadRequest, "host_key is required for inline content")
		return
	}

	result, err := h.renderer.Render(c.Request.Context(), hostKey, content)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session": result.Session,
		"url":     "/render/" + result.Session.ID,
		"markers": result.Markers,
	})
}

// GetRenderedDocument serves a session's built document. This is the
// URL the host puts in its iframe src.
func (h *Handlers) GetRenderedDocument(c *gin.Context) {
	html, ok := h.renderer.Manager().Document(c.Param("id"))
	if !ok {
		notFound(c, "render session")
		return
	}
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetRenderSession reports a session's lifecycle state and height.
func (h *Handlers) GetRenderSession(c *gin.Context) {
	session, ok := h.renderer.Manager().Get(c.Param("id"))
	if !ok {
		notFound(c, "render session")
		return
	}
	c.JSON(http.StatusOK, session)
}

// PostRenderPreview runs the dispatcher dry run: it builds the
// content and returns the tab-action messages its buttons would post,
// without opening a session.
func (h *Handlers) PostRenderPreview(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	preview, err := h.renderer.Preview(c.Request.Context(), req.Content)
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.JSON(http.StatusOK, preview)
}
