package models

import "time"

type Player struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Team      string    `gorm:"size:32;index" json:"team"` // ENT code
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PlatformUsernames []PlatformUsername `gorm:"foreignKey:PlayerID" json:"platform_usernames,omitempty"`
}

func (Player) TableName() string {
	return "players"
}

// PlatformUsername is a player's account name on one game platform.
type PlatformUsername struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlayerID  uint      `gorm:"not null;uniqueIndex:idx_player_platform" json:"player_id"`
	Platform  string    `gorm:"size:64;not null;uniqueIndex:idx_player_platform" json:"platform"`
	Username  string    `gorm:"size:128;not null" json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlatformUsername) TableName() string {
	return "platform_usernames"
}
