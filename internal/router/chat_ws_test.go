package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backoffice/internal/domain"
	"backoffice/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, srv *httptest.Server, query string) (*websocket.Conn, int) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		require.NotNil(t, resp, err)
		return nil, resp.StatusCode
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, resp.StatusCode
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]any
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestChatWebSocket_Handshake(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	room := models.ChatRoom{PlayerID: s.player(t, "olga", "ENT1").ID}
	require.NoError(t, s.db.Create(&room).Error)

	cases := []struct {
		query string
		want  int
	}{
		{"", http.StatusBadRequest},
		{"token=junk", http.StatusUnauthorized},
		{"token=" + tokenFor(t, domain.RoleFinance), http.StatusForbidden},
		{"token=" + tokenFor(t, domain.RoleSupport) + "&room_id=abc", http.StatusBadRequest},
		{"token=" + tokenFor(t, domain.RoleSupport) + "&room_id=4040", http.StatusNotFound},
		{fmt.Sprintf("token=%s&room_id=%d", tokenFor(t, domain.RoleSupport), room.ID), http.StatusSwitchingProtocols},
		{"token=" + tokenFor(t, domain.RoleOperation), http.StatusSwitchingProtocols},
	}
	for _, tc := range cases {
		_, code := dialChat(t, srv, tc.query)
		assert.Equal(t, tc.want, code, tc.query)
	}
}

func TestChatWebSocket_SendAndFanOut(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	room := models.ChatRoom{PlayerID: s.player(t, "pia", "ENT2").ID}
	require.NoError(t, s.db.Create(&room).Error)

	agent, code := dialChat(t, srv, fmt.Sprintf("token=%s&room_id=%d", tokenFor(t, domain.RoleSupport), room.ID))
	require.Equal(t, http.StatusSwitchingProtocols, code)
	lobby, code := dialChat(t, srv, "token="+tokenFor(t, domain.RoleAdmin))
	require.Equal(t, http.StatusSwitchingProtocols, code)

	require.NoError(t, agent.WriteJSON(map[string]string{"type": "typing"}))
	require.NoError(t, agent.WriteJSON(map[string]string{"type": "message", "body": " on it "}))

	ev := readEvent(t, agent)
	assert.Equal(t, "message", ev["type"])
	assert.EqualValues(t, room.ID, ev["room_id"])
	msg, ok := ev["message"].(map[string]any)
	require.True(t, ok, ev)
	assert.Equal(t, "on it", msg["body"])
	assert.Equal(t, "agent-support", msg["sender_id"])

	ev = readEvent(t, agent)
	assert.Equal(t, "room_updated", ev["type"])
	ev = readEvent(t, lobby)
	assert.Equal(t, "room_updated", ev["type"])
	assert.EqualValues(t, room.ID, ev["room_id"])

	var stored []models.ChatMessage
	require.NoError(t, s.db.Where("room_id = ?", room.ID).Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.SenderAgent, stored[0].SenderType)

	require.NoError(t, agent.WriteJSON(map[string]string{"type": "message", "body": "   "}))
	ev = readEvent(t, agent)
	assert.Equal(t, "error", ev["type"])
	assert.EqualValues(t, room.ID, ev["room_id"])
	assert.Contains(t, ev["error"], "message must be")

	// The error went to the sender only: the lobby's next frame is the next update.
	require.NoError(t, agent.WriteJSON(map[string]string{"type": "message", "body": "done"}))
	assert.Equal(t, "message", readEvent(t, agent)["type"])
	assert.Equal(t, "room_updated", readEvent(t, lobby)["type"])
}
