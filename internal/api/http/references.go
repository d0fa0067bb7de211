package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tabnote/tabnote/internal/domain/refs"
	"github.com/tabnote/tabnote/internal/refedit"
	"github.com/tabnote/tabnote/internal/shared/types"
)

// ownerKind maps the route prefix to a reference owner collection.
func ownerKind(c *gin.Context) string {
	if strings.HasPrefix(c.FullPath(), "/quotes") {
		return refs.OwnerQuotes
	}
	return refs.OwnerDocuments
}

// PutReferences replaces one reference list on an owner in a single
// write. This is the direct path; the refedit endpoints drive the
// same write through an edit session.
func (h *Handlers) PutReferences(c *gin.Context) {
	kind := types.RefKind(c.Param("kind"))
	if !kind.Valid() {
		fail(c, http.StatusBadRequest, "unknown reference kind")
		return
	}

	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	owner := ownerKind(c)
	if err := h.refs.Persist(c.Request.Context(), owner, c.Param("id"), kind, req.IDs); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ids": req.IDs})
}

// GetReferences returns one hydrated reference list.
func (h *Handlers) GetReferences(c *gin.Context) {
	kind := types.RefKind(c.Param("kind"))
	if !kind.Valid() {
		fail(c, http.StatusBadRequest, "unknown reference kind")
		return
	}

	ids, err := h.refs.OwnerIDs(ownerKind(c), c.Param("id"), kind)
	if err != nil {
		notFound(c, "owner")
		return
	}
	items, err := h.refs.Hydrate(c.Request.Context(), kind, ids)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, types.Envelope{Data: items})
}

// OpenEditSession starts a reference edit session over the current
// persisted list.
func (h *Handlers) OpenEditSession(c *gin.Context) {
	var req struct {
		OwnerKind string `json:"owner_kind" binding:"required"`
		OwnerID   string `json:"owner_id" binding:"required"`
		Kind      string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	kind := types.RefKind(req.Kind)
	if !kind.Valid() {
		fail(c, http.StatusBadRequest, "unknown reference kind")
		return
	}
	ids, err := h.refs.OwnerIDs(req.OwnerKind, req.OwnerID, kind)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	sessionID, editor, err := h.editors.Open(c.Request.Context(), req.OwnerKind, req.OwnerID, kind, ids)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id": sessionID,
		"snapshot":   editor.Snapshot(),
	})
}

// GetEditSession returns an edit session's current snapshot.
func (h *Handlers) GetEditSession(c *gin.Context) {
	editor, err := h.editors.Get(c.Param("id"))
	if err != nil {
		notFound(c, "edit session")
		return
	}
	c.JSON(http.StatusOK, editor.Snapshot())
}

// AddEditItem appends a reference to the session's working list.
func (h *Handlers) AddEditItem(c *gin.Context) {
	editor, err := h.editors.Get(c.Param("id"))
	if err != nil {
		notFound(c, "edit session")
		return
	}

	var req struct {
		RefID string `json:"ref_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := editor.Add(c.Request.Context(), req.RefID); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	c.JSON(http.StatusOK, editor.Snapshot())
}

// RemoveEditItem drops a reference from the working list.
func (h *Handlers) RemoveEditItem(c *gin.Context) {
	editor, err := h.editors.Get(c.Param("id"))
	if err != nil {
		notFound(c, "edit session")
		return
	}
	if err := editor.Remove(c.Param("refId")); err != nil {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	c.JSON(http.StatusOK, editor.Snapshot())
}

// MoveEditItem reorders the working list.
func (h *Handlers) MoveEditItem(c *gin.Context) {
	editor, err := h.editors.Get(c.Param("id"))
	if err != nil {
		notFound(c, "edit session")
		return
	}

	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	if err := editor.Move(req.From, req.To); err != nil {
		if errors.Is(err, refedit.ErrOutOfRange) {
			fail(c, http.StatusBadRequest, err.Error())
		} else {
			fail(c, http.StatusConflict, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, editor.Snapshot())
}

// SaveEditSession persists the working order and closes the session.
// On failure the session stays open with its edits intact, so the
// client can retry without redoing them.
func (h *Handlers) SaveEditSession(c *gin.Context) {
	snapshot, err := h.editors.Save(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, refedit.ErrNoSession) {
			notFound(c, "edit session")
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success":  false,
			"error":    err.Error(),
			"snapshot": snapshot,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "snapshot": snapshot})
}

// DiscardEditSession drops the session's edits and closes it.
func (h *Handlers) DiscardEditSession(c *gin.Context) {
	snapshot, err := h.editors.Discard(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, refedit.ErrNoSession) {
			notFound(c, "edit session")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "snapshot": snapshot})
}
