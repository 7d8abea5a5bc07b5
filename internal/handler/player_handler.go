package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type PlayerHandler struct {
	players *service.PlayerService
}

func NewPlayerHandler(players *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// List handles GET /support/userlist.
func (h *PlayerHandler) List(c *gin.Context) {
	page, err := h.players.List(c.Request.Context(), listOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /support/user/:userId.
func (h *PlayerHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "userId")
	if !ok {
		return
	}
	d, err := h.players.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// UpsertPlatformUsername handles PUT /support/user/:userId/platform-usernames.
func (h *PlayerHandler) UpsertPlatformUsername(c *gin.Context) {
	id, ok := paramID(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Platform string `json:"platform" binding:"required"`
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row, err := h.players.UpsertPlatformUsername(c.Request.Context(), middleware.GetSession(c), id, req.Platform, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
