package models

import (
	"time"

	"backoffice/internal/domain"
)

// Agent is a back-office user. ID is the subject of the session token.
type Agent struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Name       string     `gorm:"size:128" json:"name"`
	Email      string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Role       string     `gorm:"size:20;not null;index" json:"role"`
	Department string     `gorm:"size:20" json:"department"`
	Teams      StringList `gorm:"type:text" json:"teams"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}

// Unrestricted reports whether the agent sees every team.
func (a *Agent) Unrestricted() bool {
	r := domain.Role(a.Role)
	return r == domain.RoleAdmin || r == domain.RoleExecutive
}
