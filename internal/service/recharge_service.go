package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/domain"
	"backoffice/internal/workflow"
	"backoffice/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxScreenshots = 10

// Attachment is an uploaded file not yet read.
type Attachment struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

// RechargeService holds the recharge-specific operations of the processing dialog.
type RechargeService struct {
	requests *RequestService
	stores   *Stores
	cloud    cloudinary.Client
	folder   string
	log      zerolog.Logger
}

// NewRechargeService builds the service; cloud may be nil, in which case
// screenshot uploads are refused.
func NewRechargeService(requests *RequestService, stores *Stores, cloud cloudinary.Client, folder string, log zerolog.Logger) *RechargeService {
	return &RechargeService{
		requests: requests,
		stores:   stores,
		cloud:    cloud,
		folder:   strings.TrimSuffix(folder, "/"),
		log:      log.With().Str("service", "recharge").Logger(),
	}
}

// AssignCompanyTag books a pending recharge against a company tag.
func (svc *RechargeService) AssignCompanyTag(ctx context.Context, s *auth.Session, rechargeID, tagID uint) (RequestRow, error) {
	return svc.requests.Advance(ctx, s, domain.RequestRecharge, rechargeID, workflow.AssignCompanyTag, AdvanceInput{TargetID: tagID})
}

// AssignRedeem books a pending recharge against a player's redeem, holding the
// recharge amount on the redeem.
func (svc *RechargeService) AssignRedeem(ctx context.Context, s *auth.Session, rechargeID, redeemID uint) (RequestRow, error) {
	return svc.requests.Advance(ctx, s, domain.RequestRecharge, rechargeID, workflow.AssignRedeem, AdvanceInput{TargetID: redeemID})
}

// UpdateStatus applies a recharge transition. The screenshot list is written
// only when urls is non-empty.
func (svc *RechargeService) UpdateStatus(ctx context.Context, s *auth.Session, rechargeID uint, transition string, urls []string) (RequestRow, error) {
	return svc.requests.Advance(ctx, s, domain.RequestRecharge, rechargeID, transition, AdvanceInput{ScreenshotURLs: urls})
}

// UploadScreenshots stores payment screenshots for a pending recharge and
// submits it for verification. Uploaded files are removed again if the
// submit fails.
func (svc *RechargeService) UploadScreenshots(ctx context.Context, s *auth.Session, rechargeID uint, files []Attachment) (RequestRow, error) {
	if svc.cloud == nil {
		return RequestRow{}, ErrNoUploads
	}
	if len(files) == 0 || len(files) > maxScreenshots {
		return RequestRow{}, fmt.Errorf("%w: between 1 and %d screenshots required", ErrInvalidInput, maxScreenshots)
	}
	if s == nil || !access.CanAccessSection(s.Role, domain.SectionSupport) {
		return RequestRow{}, ErrAccessDenied
	}
	st, _ := svc.stores.For(domain.RequestRecharge)
	current, err := st.Get(ctx, rechargeID)
	if err != nil {
		return RequestRow{}, err
	}
	m := workflow.For(domain.RequestRecharge)
	code := workflow.StatusCode(current.Status())
	if b, _ := m.BucketOf(code); b != domain.BucketPending {
		return RequestRow{}, fmt.Errorf("%w: screenshots are taken while the recharge is pending", workflow.ErrIllegalTransition)
	}
	if _, err := m.Apply(code, workflow.Submit); err != nil {
		return RequestRow{}, err
	}

	folder := fmt.Sprintf("%s/recharge/%d", svc.folder, rechargeID)
	var uploaded []cloudinary.UploadResult
	for _, f := range files {
		res, err := svc.upload(ctx, f, folder)
		if err != nil {
			svc.log.Error().Err(err).Uint("recharge_id", rechargeID).Str("file", f.Filename).Msg("upload screenshot")
			svc.discard(uploaded)
			return RequestRow{}, fmt.Errorf("upload %s: %w", f.Filename, err)
		}
		uploaded = append(uploaded, res)
	}

	urls := make([]string, len(uploaded))
	for i, u := range uploaded {
		urls[i] = u.URL
	}
	row, err := svc.UpdateStatus(ctx, s, rechargeID, workflow.Submit, urls)
	if err != nil {
		svc.discard(uploaded)
		return RequestRow{}, err
	}
	return row, nil
}

func (svc *RechargeService) upload(ctx context.Context, f Attachment, folder string) (cloudinary.UploadResult, error) {
	rc, err := f.Open()
	if err != nil {
		return cloudinary.UploadResult{}, err
	}
	defer rc.Close()
	publicID := "shot_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return svc.cloud.UploadImage(ctx, rc, folder, publicID)
}

// discard deletes uploads whose recharge update did not go through.
func (svc *RechargeService) discard(uploaded []cloudinary.UploadResult) {
	for _, u := range uploaded {
		if err := svc.cloud.Delete(context.Background(), u.PublicID); err != nil {
			svc.log.Error().Err(err).Str("public_id", u.PublicID).Msg("discard screenshot")
		}
	}
}
