package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/repository"

	"github.com/rs/zerolog"
)

const (
	chatRoomsEntity    = "chat_rooms"
	chatMessagesEntity = "chat_messages"
	maxMessageLen      = 4000
)

// ChatBroadcaster pushes chat events to connected agents.
type ChatBroadcaster interface {
	BroadcastToRoom(roomID uint, payload interface{})
	BroadcastAll(payload interface{})
}

// RoomWatchers reports which rooms have agents watching them. A broadcaster
// that implements it gets the messages of those rooms polled too.
type RoomWatchers interface {
	WatchedRooms() []uint
}

type RoomRow struct {
	ID            uint   `json:"id"`
	PlayerID      uint   `json:"player_id"`
	PlayerName    string `json:"player_name"`
	Username      string `json:"username"`
	Team          string `json:"team"`
	LastMessage   string `json:"last_message"`
	LastSender    string `json:"last_sender"`
	LastMessageAt string `json:"last_message_at"`
}

type MessageRow struct {
	ID         uint      `json:"id"`
	RoomID     uint      `json:"room_id"`
	SenderType string    `json:"sender_type"`
	SenderID   string    `json:"sender_id"`
	Body       string    `json:"body"`
	CreatedAt  string    `json:"created_at"`
	SentAt     time.Time `json:"sent_at"`
}

// ChatEvent is the payload pushed over the chat websocket.
type ChatEvent struct {
	Type    string      `json:"type"` // message | room_updated
	RoomID  uint        `json:"room_id"`
	Message *MessageRow `json:"message,omitempty"`
}

type ChatService struct {
	repo         *repository.ChatRepository
	cache        *cache.Client
	hub          ChatBroadcaster
	format       Formatter
	pollInterval time.Duration
	log          zerolog.Logger
}

func NewChatService(repo *repository.ChatRepository, c *cache.Client, hub ChatBroadcaster, format Formatter, pollInterval time.Duration, log zerolog.Logger) *ChatService {
	return &ChatService{
		repo:         repo,
		cache:        c,
		hub:          hub,
		format:       format,
		pollInterval: pollInterval,
		log:          log.With().Str("service", "chat").Logger(),
	}
}

func (svc *ChatService) roomRow(r models.ChatRoom) RoomRow {
	return RoomRow{
		ID:            r.ID,
		PlayerID:      r.PlayerID,
		PlayerName:    svc.format.Text(r.Player.Name),
		Username:      svc.format.Text(r.Player.Username),
		Team:          svc.format.Text(r.Player.Team),
		LastMessage:   svc.format.Text(r.LastMessage),
		LastSender:    svc.format.Text(r.LastSender),
		LastMessageAt: svc.format.TimePtr(r.LastMessageAt),
	}
}

func (svc *ChatService) messageRow(m models.ChatMessage) MessageRow {
	return MessageRow{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderType: m.SenderType,
		SenderID:   m.SenderID,
		Body:       m.Body,
		CreatedAt:  svc.format.Time(m.CreatedAt),
		SentAt:     m.CreatedAt,
	}
}

func roomsKey() cache.Key {
	return cache.NewKey(chatRoomsEntity, "all")
}

func (svc *ChatService) fetchRooms(ctx context.Context) ([]RoomRow, error) {
	rooms, err := svc.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoomRow, len(rooms))
	for i, r := range rooms {
		out[i] = svc.roomRow(r)
	}
	return out, nil
}

// Rooms lists the chat sidebar, most recently active first.
func (svc *ChatService) Rooms(ctx context.Context) ([]RoomRow, error) {
	rooms, err := cache.Fetch(ctx, svc.cache, roomsKey(), svc.fetchRooms)
	if err != nil {
		svc.log.Error().Err(err).Msg("list rooms")
	}
	return rooms, err
}

// Room returns one room of the sidebar.
func (svc *ChatService) Room(ctx context.Context, roomID uint) (RoomRow, error) {
	r, err := svc.repo.GetRoom(ctx, roomID)
	if err != nil {
		return RoomRow{}, err
	}
	return svc.roomRow(*r), nil
}

func messagesKey(roomID uint) cache.Key {
	return cache.NewKey(chatMessagesEntity, roomID)
}

func (svc *ChatService) fetchMessages(roomID uint) func(context.Context) ([]MessageRow, error) {
	return func(ctx context.Context) ([]MessageRow, error) {
		raw, err := svc.repo.ListMessages(ctx, roomID)
		if err != nil {
			return nil, err
		}
		out := make([]MessageRow, len(raw))
		for i, m := range raw {
			out[i] = svc.messageRow(m)
		}
		return out, nil
	}
}

// Messages returns the conversation of a room, oldest first.
func (svc *ChatService) Messages(ctx context.Context, roomID uint) ([]MessageRow, error) {
	if _, err := svc.repo.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}
	msgs, err := cache.Fetch(ctx, svc.cache, messagesKey(roomID), svc.fetchMessages(roomID))
	if err != nil {
		svc.log.Error().Err(err).Uint("room_id", roomID).Msg("list messages")
	}
	return msgs, err
}

// SendMessage posts an agent reply. The message and the room summary are
// written together; watchers of the room are notified afterwards.
func (svc *ChatService) SendMessage(ctx context.Context, s *auth.Session, roomID uint, body string) (MessageRow, error) {
	body = strings.TrimSpace(body)
	if body == "" || len([]rune(body)) > maxMessageLen {
		return MessageRow{}, fmt.Errorf("%w: message must be 1-%d characters", ErrInvalidInput, maxMessageLen)
	}
	msg := &models.ChatMessage{
		RoomID:     roomID,
		SenderType: domain.SenderAgent,
		SenderID:   s.AgentID,
		Body:       body,
	}
	if err := svc.repo.AppendMessage(ctx, msg); err != nil {
		svc.log.Error().Err(err).Uint("room_id", roomID).Str("agent_id", s.AgentID).Msg("send message")
		return MessageRow{}, err
	}
	svc.cache.Invalidate(chatRoomsEntity, chatMessagesEntity)

	row := svc.messageRow(*msg)
	if svc.hub != nil {
		svc.hub.BroadcastToRoom(roomID, ChatEvent{Type: "message", RoomID: roomID, Message: &row})
		svc.hub.BroadcastAll(ChatEvent{Type: "room_updated", RoomID: roomID})
	}
	return row, nil
}

// StartRoomPolling keeps the room list, and the messages of every watched room,
// warm until ctx is done, so new player messages written by other systems show
// up without an agent action.
func (svc *ChatService) StartRoomPolling(ctx context.Context) {
	if svc.pollInterval <= 0 {
		return
	}
	go svc.cache.Poll(ctx, roomsKey(), svc.pollInterval, func(ctx context.Context) (any, error) {
		return svc.fetchRooms(ctx)
	})
	if watchers, ok := svc.hub.(RoomWatchers); ok {
		go svc.pollWatchedRooms(ctx, watchers)
	}
}

func (svc *ChatService) pollWatchedRooms(ctx context.Context, watchers RoomWatchers) {
	ticker := time.NewTicker(svc.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, roomID := range watchers.WatchedRooms() {
				fetch := svc.fetchMessages(roomID)
				err := svc.cache.Refresh(ctx, messagesKey(roomID), func(ctx context.Context) (any, error) {
					return fetch(ctx)
				})
				if err != nil && ctx.Err() == nil {
					svc.log.Error().Err(err).Uint("room_id", roomID).Msg("poll room messages")
				}
			}
		}
	}
}
