package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/toms/backend/internal/application/session"
	"github.com/toms/backend/internal/interfaces/http/middleware"
)

// MarkDirtyRequest flags the session's current form as having unsaved changes
type MarkDirtyRequest struct {
	Path string `json:"path" binding:"required,max=500"`
}

// CheckNavigationRequest asks whether leaving for a target path needs a prompt
type CheckNavigationRequest struct {
	Target string `form:"target" binding:"required,max=500"`
}

// ResolveNavigationRequest carries the user's answer to a navigation prompt
type ResolveNavigationRequest struct {
	Leave bool `json:"leave"`
}

// EditStateResponse acknowledges an edit-state change
type EditStateResponse struct {
	Dirty bool `json:"dirty"`
}

// SessionHandler exposes the unsaved-changes guard. State is keyed by the
// session ID embedded in the access token, so a user editing in two browser
// tabs of the same login shares one guard entry.
type SessionHandler struct {
	BaseHandler
	guard *session.EditGuard
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(guard *session.EditGuard) *SessionHandler {
	return &SessionHandler{guard: guard}
}

// MarkDirty records that the session has unsaved changes on the given path.
func (h *SessionHandler) MarkDirty(c *gin.Context) {
	sessionID := middleware.GetJWTSessionID(c)
	if sessionID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req MarkDirtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.guard.MarkDirty(sessionID, req.Path)
	h.Success(c, EditStateResponse{Dirty: true})
}

// MarkClean clears the session's unsaved changes.
func (h *SessionHandler) MarkClean(c *gin.Context) {
	sessionID := middleware.GetJWTSessionID(c)
	if sessionID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.guard.MarkClean(sessionID)
	h.Success(c, EditStateResponse{Dirty: false})
}

// CheckNavigation reports whether moving to the target path should prompt
// the user about unsaved changes.
func (h *SessionHandler) CheckNavigation(c *gin.Context) {
	sessionID := middleware.GetJWTSessionID(c)
	if sessionID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CheckNavigationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.Success(c, h.guard.CheckNavigation(sessionID, req.Target))
}

// ResolveNavigation applies the user's answer to a navigation prompt.
func (h *SessionHandler) ResolveNavigation(c *gin.Context) {
	sessionID := middleware.GetJWTSessionID(c)
	if sessionID == "" {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req ResolveNavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	h.guard.Resolve(sessionID, req.Leave)
	h.Success(c, EditStateResponse{Dirty: !req.Leave})
}
