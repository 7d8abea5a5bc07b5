package models

import "time"

// ChatRoom is the conversation with one player.
type ChatRoom struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PlayerID      uint       `gorm:"uniqueIndex;not null" json:"player_id"`
	LastMessage   string     `gorm:"size:1024" json:"last_message"`
	LastSender    string     `gorm:"size:16" json:"last_sender"`
	LastMessageAt *time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RoomID     uint      `gorm:"not null;index" json:"room_id"`
	SenderType string    `gorm:"size:16;not null" json:"sender_type"` // agent | player
	SenderID   string    `gorm:"size:36;not null" json:"sender_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
