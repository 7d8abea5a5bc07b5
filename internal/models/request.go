package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrUnbalancedRedeem is returned when a redeem ledger does not add up.
var ErrUnbalancedRedeem = errors.New("redeem ledger unbalanced: paid + hold + available must equal total")

// Request is implemented by every request table.
type Request interface {
	TableName() string
	RequestID() uint
	Status() string
	Requester() Player
	SearchFields() []string
}

type RechargeRequest struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PlayerID       uint            `gorm:"not null;index" json:"player_id"`
	Team           string          `gorm:"size:32;index" json:"team"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaymentMethod  string          `gorm:"size:64" json:"payment_method"`
	Platform       string          `gorm:"size:64" json:"platform"`
	TargetType     string          `gorm:"size:16" json:"target_type"` // company | redeem
	TargetID       *uint           `json:"target_id"`
	ScreenshotURLs StringList      `gorm:"column:screenshot_urls;type:text" json:"screenshot_urls"`
	ProcessStatus  string          `gorm:"size:8;not null;index" json:"process_status"`
	ProcessedBy    *string         `gorm:"size:36" json:"processed_by"`
	ProcessedAt    *time.Time      `json:"processed_at"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (RechargeRequest) TableName() string    { return "recharge_requests" }
func (r *RechargeRequest) RequestID() uint   { return r.ID }
func (r *RechargeRequest) Status() string    { return r.ProcessStatus }
func (r *RechargeRequest) Requester() Player { return r.Player }

func (r *RechargeRequest) SearchFields() []string {
	return []string{r.Player.Name, r.Player.Username, r.PaymentMethod, r.Platform}
}

// RedeemRequest is a player cashout. Recharges matched against it move money
// from Available to Hold, and from Hold to Paid once completed.
type RedeemRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PlayerID      uint            `gorm:"not null;index" json:"player_id"`
	Team          string          `gorm:"size:32;index" json:"team"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Platform      string          `gorm:"size:64" json:"platform"`
	PaymentMethod string          `gorm:"size:64" json:"payment_method"`
	PaymentTag    string          `gorm:"size:128" json:"payment_tag"`
	Total         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	Paid          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"paid"`
	Hold          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"hold"`
	Available     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"available"`
	ProcessStatus string          `gorm:"size:8;not null;index" json:"process_status"`
	ProcessedBy   *string         `gorm:"size:36" json:"processed_by"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (RedeemRequest) TableName() string    { return "redeem_requests" }
func (r *RedeemRequest) RequestID() uint   { return r.ID }
func (r *RedeemRequest) Status() string    { return r.ProcessStatus }
func (r *RedeemRequest) Requester() Player { return r.Player }

func (r *RedeemRequest) SearchFields() []string {
	return []string{r.Player.Name, r.Player.Username, r.Team, r.PaymentTag}
}

// Balanced reports whether paid + hold + available = total.
func (r *RedeemRequest) Balanced() bool {
	return r.Paid.Add(r.Hold).Add(r.Available).Equal(r.Total)
}

// Validate checks the ledger before it is written.
func (r *RedeemRequest) Validate() error {
	if r.Paid.IsNegative() || r.Hold.IsNegative() || r.Available.IsNegative() || !r.Balanced() {
		return ErrUnbalancedRedeem
	}
	return nil
}

func (r *RedeemRequest) BeforeSave(*gorm.DB) error {
	return r.Validate()
}

type TransferRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PlayerID      uint            `gorm:"not null;index" json:"player_id"`
	Team          string          `gorm:"size:32;index" json:"team"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	FromPlatform  string          `gorm:"size:64" json:"from_platform"`
	ToPlatform    string          `gorm:"size:64" json:"to_platform"`
	ProcessStatus string          `gorm:"size:8;not null;index" json:"process_status"`
	ProcessedBy   *string         `gorm:"size:36" json:"processed_by"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (TransferRequest) TableName() string    { return "transfer_requests" }
func (r *TransferRequest) RequestID() uint   { return r.ID }
func (r *TransferRequest) Status() string    { return r.ProcessStatus }
func (r *TransferRequest) Requester() Player { return r.Player }

func (r *TransferRequest) SearchFields() []string {
	return []string{r.Player.Name, r.Player.Username, r.FromPlatform, r.ToPlatform}
}

type ResetPasswordRequest struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	PlayerID         uint       `gorm:"not null;index" json:"player_id"`
	Team             string     `gorm:"size:32;index" json:"team"`
	Platform         string     `gorm:"size:64" json:"platform"`
	PlatformUsername string     `gorm:"size:128" json:"platform_username"`
	ProcessStatus    string     `gorm:"size:8;not null;index" json:"process_status"`
	ProcessedBy      *string    `gorm:"size:36" json:"processed_by"`
	ProcessedAt      *time.Time `json:"processed_at"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (ResetPasswordRequest) TableName() string    { return "resetpassword_requests" }
func (r *ResetPasswordRequest) RequestID() uint   { return r.ID }
func (r *ResetPasswordRequest) Status() string    { return r.ProcessStatus }
func (r *ResetPasswordRequest) Requester() Player { return r.Player }

func (r *ResetPasswordRequest) SearchFields() []string {
	return []string{r.Player.Name, r.Player.Username, r.Platform, r.PlatformUsername}
}

type NewAccountRequest struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	PlayerID          uint       `gorm:"not null;index" json:"player_id"`
	Team              string     `gorm:"size:32;index" json:"team"`
	Platform          string     `gorm:"size:64" json:"platform"`
	RequestedUsername string     `gorm:"size:128" json:"requested_username"`
	ProcessStatus     string     `gorm:"size:8;not null;index" json:"process_status"`
	ProcessedBy       *string    `gorm:"size:36" json:"processed_by"`
	ProcessedAt       *time.Time `json:"processed_at"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player"`
}

func (NewAccountRequest) TableName() string    { return "newaccount_requests" }
func (r *NewAccountRequest) RequestID() uint   { return r.ID }
func (r *NewAccountRequest) Status() string    { return r.ProcessStatus }
func (r *NewAccountRequest) Requester() Player { return r.Player }

func (r *NewAccountRequest) SearchFields() []string {
	return []string{r.Player.Name, r.Player.Username, r.Platform, r.RequestedUsername}
}

// All lists every table, in migration order.
func All() []any {
	return []any{
		&Player{}, &PlatformUsername{}, &Agent{}, &CompanyTag{},
		&RechargeRequest{}, &RedeemRequest{}, &TransferRequest{}, &ResetPasswordRequest{}, &NewAccountRequest{},
		&AuditLog{},
		&ChatRoom{}, &ChatMessage{},
	}
}
