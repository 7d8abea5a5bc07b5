package models

import "time"

// AuditLog records one status change made by an agent.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AgentID    string    `gorm:"size:36;index" json:"agent_id"`
	Action     string    `gorm:"size:100;not null;index" json:"action"`
	Resource   string    `gorm:"size:100;index:idx_audit_resource" json:"resource"`
	ResourceID uint      `gorm:"index:idx_audit_resource" json:"resource_id"`
	FromStatus string    `gorm:"size:8" json:"from_status"`
	ToStatus   string    `gorm:"size:8" json:"to_status"`
	Metadata   string    `gorm:"type:text" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
