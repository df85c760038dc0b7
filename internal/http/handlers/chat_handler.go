package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eokafor/go-pharmacy-backend/internal/services"
)

// Conversationalist runs one conversational turn.
type Conversationalist interface {
	HandleMessage(ctx context.Context, name, message, requestedSessionID string) (*services.TurnResult, error)
}

// SessionEnder completes an active chat session.
type SessionEnder interface {
	End(ctx context.Context, sessionID string) error
}

// ChatHandler exposes the conversational endpoints.
type ChatHandler struct {
	Conversation Conversationalist
	Sessions     SessionEnder
}

// ChatRequest is the inbound body for POST /chat.
type ChatRequest struct {
	Name      string `json:"name" binding:"required"`
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the outbound body for POST /chat.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// Chat handles POST /chat: one user message in, one agent reply out.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, "invalid request body: name and message are required")
		return
	}

	res, err := h.Conversation.HandleMessage(c.Request.Context(), req.Name, req.Message, strings.TrimSpace(req.SessionID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName), errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusUnprocessableEntity, codeValidation, err.Error())
		default:
			logError(c, err, "conversation turn failed")
			fail(c, http.StatusInternalServerError, codeInternal, "could not process message")
		}
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  res.Response,
		SessionID: res.SessionID,
	})
}

// EndSession handles POST /sessions/:id/end, completing an active
// session. Ending an already-completed or unknown session is a 404.
func (h *ChatHandler) EndSession(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "session id is required")
		return
	}

	if err := h.Sessions.End(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			fail(c, http.StatusNotFound, codeSessionNotFound, "no active session with that id")
			return
		}
		logError(c, err, "session end failed")
		fail(c, http.StatusInternalServerError, codeInternal, "could not end session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "completed"})
}

// Test handles POST /test: a fixed acknowledgement used by deploy
// smoke checks. No state is read or written.
func (h *ChatHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "pharmacy chat backend is reachable"})
}

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
