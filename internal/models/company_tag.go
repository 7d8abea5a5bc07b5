package models

import "time"

// CompanyTag is an internal account a recharge can be booked against.
type CompanyTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Platform  string    `gorm:"size:64" json:"platform"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CompanyTag) TableName() string {
	return "company_tags"
}
