package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/domain"
	"backoffice/internal/service"
	"backoffice/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type inboundChat struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

// UpgradeChatWS upgrades to WebSocket for chat; query: token, room_id. Without
// room_id the socket only receives room_updated events. Inbound
// {"type":"message","body":...} frames are sent as the agent.
func UpgradeChatWS(secret string, hub *ws.ChatHub, chat *service.ChatService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		s, err := auth.ParseSession(secret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !access.CanAccessSection(s.Role, domain.SectionSupport) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		var roomID uint
		if raw := c.Query("room_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room_id"})
				return
			}
			if _, err := chat.Room(c.Request.Context(), uint(id)); err != nil {
				respondError(c, err)
				return
			}
			roomID = uint(id)
		}

		// Registered before the handshake completes, so the agent receives
		// every event sent once the dial returns.
		client := ws.NewClient(s.AgentID)
		hub.Register(client)
		if roomID != 0 {
			hub.Join(roomID, client)
			defer hub.Leave(roomID, client)
		}
		conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			client.Close()
			log.Error().Err(err).Str("agent_id", s.AgentID).Msg("chat websocket upgrade")
			return
		}

		ctx := c.Request.Context()
		ws.Serve(conn, client, func(raw []byte) {
			var msg inboundChat
			if json.Unmarshal(raw, &msg) != nil || msg.Type != "message" || roomID == 0 {
				return
			}
			if _, err := chat.SendMessage(ctx, s, roomID, msg.Body); err != nil {
				hub.BroadcastToAgent(s.AgentID, gin.H{"type": "error", "room_id": roomID, "error": err.Error()})
			}
		})
	}
}
