package repository

import (
	"context"

	"backoffice/internal/models"

	"gorm.io/gorm"
)

const summaryLen = 255

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// ListRooms returns every room, most recently active first.
func (r *ChatRepository) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := r.db.WithContext(ctx).
		Preload("Player").
		Order("last_message_at IS NULL, last_message_at DESC, id DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *ChatRepository) GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	if err := r.db.WithContext(ctx).Preload("Player").First(&room, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &room, nil
}

// ListMessages returns the messages of a room in the order they were sent.
func (r *ChatRepository) ListMessages(ctx context.Context, roomID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

// AppendMessage stores msg and updates its room's summary atomically.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		summary := []rune(msg.Body)
		if len(summary) > summaryLen {
			summary = summary[:summaryLen]
		}
		res := tx.Model(&models.ChatRoom{}).Where("id = ?", msg.RoomID).Updates(map[string]any{
			"last_message":    string(summary),
			"last_sender":     msg.SenderType,
			"last_message_at": msg.CreatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
