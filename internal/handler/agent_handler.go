package handler

import (
	"net/http"

	"backoffice/internal/domain"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agents    *service.AgentService
	dashboard *service.DashboardService
}

func NewAgentHandler(agents *service.AgentService, dashboard *service.DashboardService) *AgentHandler {
	return &AgentHandler{agents: agents, dashboard: dashboard}
}

// Me handles GET /me.
func (h *AgentHandler) Me(c *gin.Context) {
	p, err := h.agents.Me(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Users handles GET /users.
func (h *AgentHandler) Users(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": agents})
}

// Home handles GET /home/:department.
func (h *AgentHandler) Home(c *gin.Context) {
	section, ok := domain.ParseSection(c.Param("department"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	d, err := h.dashboard.Summary(c.Request.Context(), middleware.GetSession(c), section)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
