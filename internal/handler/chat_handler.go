package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Rooms handles GET /support/chat/rooms.
func (h *ChatHandler) Rooms(c *gin.Context) {
	rooms, err := h.chat.Rooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

// Messages handles GET /support/chat/rooms/:roomId/messages.
func (h *ChatHandler) Messages(c *gin.Context) {
	id, ok := paramID(c, "roomId")
	if !ok {
		return
	}
	msgs, err := h.chat.Messages(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

// Send handles POST /support/chat/rooms/:roomId/messages.
func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := paramID(c, "roomId")
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.chat.SendMessage(c.Request.Context(), middleware.GetSession(c), id, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
