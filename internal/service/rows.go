package service

import (
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/workflow"
)

// RequestRow is one request as shown in a tab table and its processing dialog.
type RequestRow struct {
	ID          uint               `json:"id"`
	Type        domain.RequestType `json:"type"`
	PlayerID    uint               `json:"player_id"`
	PlayerName  string             `json:"player_name"`
	Username    string             `json:"username"`
	Team        string             `json:"team"`
	Amount      string             `json:"amount"`
	Platform    string             `json:"platform"`
	Status      string             `json:"status"`
	StatusLabel string             `json:"status_label"`
	Bucket      domain.Bucket      `json:"bucket"`
	ProcessedBy string             `json:"processed_by"`
	ProcessedAt string             `json:"processed_at"`
	CreatedAt   string             `json:"created_at"`
	Fields      map[string]string  `json:"fields"`
	Screenshots []string           `json:"screenshots,omitempty"`
	Actions     []string           `json:"actions"`
}

func (f Formatter) requestRow(rt domain.RequestType, req models.Request) RequestRow {
	m := workflow.For(rt)
	code := workflow.StatusCode(req.Status())
	bucket, _ := m.BucketOf(code)
	player := req.Requester()

	row := RequestRow{
		ID:          req.RequestID(),
		Type:        rt,
		PlayerID:    player.ID,
		PlayerName:  f.Text(player.Name),
		Username:    f.Text(player.Username),
		Status:      string(code),
		StatusLabel: m.Label(code),
		Bucket:      bucket,
		Fields:      map[string]string{},
		Actions:     []string{},
	}
	for _, t := range m.Available(code) {
		row.Actions = append(row.Actions, t.Name)
	}

	switch r := req.(type) {
	case *models.RechargeRequest:
		row.Team = f.Text(r.Team)
		row.Amount = f.Money(r.Amount)
		row.Platform = f.Text(r.Platform)
		row.ProcessedBy = f.Processor(r.ProcessedBy)
		row.ProcessedAt = f.TimePtr(r.ProcessedAt)
		row.CreatedAt = f.Time(r.CreatedAt)
		row.Fields["payment_method"] = f.Text(r.PaymentMethod)
		row.Fields["target"] = rechargeTarget(r)
		row.Screenshots = append([]string(nil), r.ScreenshotURLs...)
	case *models.RedeemRequest:
		row.Team = f.Text(r.Team)
		row.Amount = f.Money(r.Amount)
		row.Platform = f.Text(r.Platform)
		row.ProcessedBy = f.Processor(r.ProcessedBy)
		row.ProcessedAt = f.TimePtr(r.ProcessedAt)
		row.CreatedAt = f.Time(r.CreatedAt)
		row.Fields["payment_method"] = f.Text(r.PaymentMethod)
		row.Fields["payment_tag"] = f.Text(r.PaymentTag)
		row.Fields["total"] = f.Money(r.Total)
		row.Fields["paid"] = f.Money(r.Paid)
		row.Fields["hold"] = f.Money(r.Hold)
		row.Fields["available"] = f.Money(r.Available)
	case *models.TransferRequest:
		row.Team = f.Text(r.Team)
		row.Amount = f.Money(r.Amount)
		row.Platform = f.Text(r.FromPlatform)
		row.ProcessedBy = f.Processor(r.ProcessedBy)
		row.ProcessedAt = f.TimePtr(r.ProcessedAt)
		row.CreatedAt = f.Time(r.CreatedAt)
		row.Fields["from_platform"] = f.Text(r.FromPlatform)
		row.Fields["to_platform"] = f.Text(r.ToPlatform)
	case *models.ResetPasswordRequest:
		row.Team = f.Text(r.Team)
		row.Amount = missingText
		row.Platform = f.Text(r.Platform)
		row.ProcessedBy = f.Processor(r.ProcessedBy)
		row.ProcessedAt = f.TimePtr(r.ProcessedAt)
		row.CreatedAt = f.Time(r.CreatedAt)
		row.Fields["platform_username"] = f.Text(r.PlatformUsername)
	case *models.NewAccountRequest:
		row.Team = f.Text(r.Team)
		row.Amount = missingText
		row.Platform = f.Text(r.Platform)
		row.ProcessedBy = f.Processor(r.ProcessedBy)
		row.ProcessedAt = f.TimePtr(r.ProcessedAt)
		row.CreatedAt = f.Time(r.CreatedAt)
		row.Fields["requested_username"] = f.Text(r.RequestedUsername)
	}
	return row
}

func rechargeTarget(r *models.RechargeRequest) string {
	if r.TargetID == nil || r.TargetType == "" {
		return missingText
	}
	return fmt.Sprintf("%s #%d", r.TargetType, *r.TargetID)
}
