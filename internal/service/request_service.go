package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/config"
	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/listing"
	"backoffice/internal/models"
	"backoffice/internal/repository"
	"backoffice/internal/workflow"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	agentsEntity = "agents"
	auditEntity  = "audit_logs"
)

// ListOptions are the user-controlled filters of a tab.
type ListOptions struct {
	Team     string
	Search   string
	Page     int
	PageSize int
	// Cursor is the token of the previous page. Issued for another filter, it
	// resets Page to 0.
	Cursor string
}

// RequestList is one page of a tab.
type RequestList struct {
	Type   domain.RequestType `json:"type"`
	Bucket domain.Bucket      `json:"bucket"`
	listing.Page[RequestRow]
}

// HistoryRow is one audited transition of a request.
type HistoryRow struct {
	Action    string `json:"action"`
	AgentID   string `json:"agent_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// AdvanceInput carries the data some transitions need.
type AdvanceInput struct {
	// TargetID is the company tag or redeem a recharge is assigned to.
	TargetID       uint
	ScreenshotURLs []string
	// Amount is the payment recorded against a redeem.
	Amount decimal.Decimal
}

type RequestService struct {
	stores  *Stores
	agents  *repository.AgentRepository
	tags    *repository.CompanyTagRepository
	ledger  *repository.LedgerRepository
	audit   *repository.AuditLogRepository
	cache   *cache.Client
	format  Formatter
	listing config.ListingConfig
	now     func() time.Time
	log     zerolog.Logger
}

func NewRequestService(
	stores *Stores,
	agents *repository.AgentRepository,
	tags *repository.CompanyTagRepository,
	ledger *repository.LedgerRepository,
	audit *repository.AuditLogRepository,
	c *cache.Client,
	format Formatter,
	listingCfg config.ListingConfig,
	log zerolog.Logger,
) *RequestService {
	return &RequestService{
		stores:  stores,
		agents:  agents,
		tags:    tags,
		ledger:  ledger,
		audit:   audit,
		cache:   c,
		format:  format,
		listing: listingCfg,
		now:     time.Now,
		log:     log.With().Str("service", "requests").Logger(),
	}
}

func (svc *RequestService) pageSize(rt domain.RequestType, requested int) int {
	size := svc.listing.PageSize
	if rt == domain.RequestRecharge && svc.listing.RechargePageSize > 0 {
		size = svc.listing.RechargePageSize
	}
	if requested > 0 {
		size = requested
	}
	if svc.listing.MaxPageSize > 0 && size > svc.listing.MaxPageSize {
		size = svc.listing.MaxPageSize
	}
	if size <= 0 {
		size = 10
	}
	return size
}

// allowedTeams returns the teams the agent may see; unrestricted is true for
// roles that see every team.
func (svc *RequestService) allowedTeams(ctx context.Context, s *auth.Session) (teams []string, unrestricted bool, err error) {
	if s.Role == domain.RoleAdmin || s.Role == domain.RoleExecutive {
		return nil, true, nil
	}
	agent, err := cache.Fetch(ctx, svc.cache, cache.NewKey(agentsEntity, "id", s.AgentID), func(ctx context.Context) (*models.Agent, error) {
		return svc.agents.GetByID(ctx, s.AgentID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return agent.Teams, false, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// List returns a page of rt requests in the bucket named by segment.
func (svc *RequestService) List(ctx context.Context, s *auth.Session, rt domain.RequestType, segment string, opts ListOptions) (RequestList, error) {
	st, ok := svc.stores.For(rt)
	if !ok {
		return RequestList{}, ErrUnknownType
	}
	q := listing.Query{
		Statuses: workflow.Strings(workflow.BucketForPath(rt, segment)),
		Team:     strings.TrimSpace(opts.Team),
		Search:   strings.TrimSpace(opts.Search),
		PageSize: svc.pageSize(rt, opts.PageSize),
	}
	out := RequestList{Type: rt, Bucket: workflow.ResolveBucket(rt, segment)}

	if rt == domain.RequestRedeem {
		teams, unrestricted, err := svc.allowedTeams(ctx, s)
		if err != nil {
			return RequestList{}, err
		}
		if !unrestricted {
			if len(teams) == 0 || (q.Team != "" && !containsFold(teams, q.Team)) {
				out.Page = listing.NewPage[RequestRow](nil, 0, 0, q.PageSize)
				return out, nil
			}
			q.Teams = teams
		}
	}
	q.Page = listing.ResolvePage(q, opts.Cursor, opts.Page)

	key := cache.NewKey(st.Table(), "list", q.Statuses, q.Teams, strings.ToLower(q.Team), strings.ToLower(q.Search), q.Page, q.PageSize)
	page, err := cache.Fetch(ctx, svc.cache, key, func(ctx context.Context) (listing.Page[RequestRow], error) {
		raw, err := st.List(ctx, q)
		if err != nil {
			return listing.Page[RequestRow]{}, err
		}
		return listing.MapPage(raw, func(r models.Request) RequestRow { return svc.format.requestRow(rt, r) }), nil
	})
	if err != nil {
		svc.log.Error().Err(err).Str("type", string(rt)).Str("key", key.String()).Msg("list requests")
		return RequestList{}, err
	}
	page.Cursor = listing.EncodeCursor(q)
	out.Page = page
	return out, nil
}

// Get returns one request as a detail row.
func (svc *RequestService) Get(ctx context.Context, rt domain.RequestType, id uint) (RequestRow, error) {
	st, ok := svc.stores.For(rt)
	if !ok {
		return RequestRow{}, ErrUnknownType
	}
	return cache.Fetch(ctx, svc.cache, cache.NewKey(st.Table(), "id", id), func(ctx context.Context) (RequestRow, error) {
		req, err := st.Get(ctx, id)
		if err != nil {
			return RequestRow{}, err
		}
		return svc.format.requestRow(rt, req), nil
	})
}

// Advance applies the named transition to a request on behalf of the agent.
func (svc *RequestService) Advance(ctx context.Context, s *auth.Session, rt domain.RequestType, id uint, name string, in AdvanceInput) (RequestRow, error) {
	st, ok := svc.stores.For(rt)
	if !ok {
		return RequestRow{}, ErrUnknownType
	}
	m := workflow.For(rt)
	t, ok := m.Transition(name)
	if !ok {
		return RequestRow{}, fmt.Errorf("%w: %s has no %q", workflow.ErrUnknownTransition, rt, name)
	}
	if s == nil || !access.CanAccessSection(s.Role, t.Section) {
		return RequestRow{}, ErrAccessDenied
	}
	current, err := st.Get(ctx, id)
	if err != nil {
		return RequestRow{}, err
	}
	if _, err := m.Apply(workflow.StatusCode(current.Status()), name); err != nil {
		return RequestRow{}, err
	}
	if len(in.ScreenshotURLs) > 0 && rt != domain.RequestRecharge {
		return RequestRow{}, fmt.Errorf("%w: only recharges take screenshots", ErrInvalidInput)
	}

	from, to := current.Status(), string(t.To)
	fields := map[string]any{
		"processed_by": s.AgentID,
		"processed_at": svc.now(),
	}
	if len(in.ScreenshotURLs) > 0 {
		fields["screenshot_urls"] = models.StringList(in.ScreenshotURLs)
	}
	entities := []string{st.Table()}
	redeemEntity := svc.stores.Entity(domain.RequestRedeem)

	switch {
	case rt == domain.RequestRecharge && name == workflow.AssignCompanyTag:
		err = svc.assignCompanyTag(ctx, st, id, from, to, in.TargetID, fields)
	case rt == domain.RequestRecharge && name == workflow.AssignRedeem:
		if in.TargetID == 0 {
			return RequestRow{}, fmt.Errorf("%w: redeem id required", ErrInvalidInput)
		}
		err = svc.ledger.HoldForRecharge(ctx, id, in.TargetID, from, to, fields, redeemPayable)
		entities = append(entities, redeemEntity)
	case rt == domain.RequestRecharge && name == workflow.Complete:
		err = svc.ledger.SettleRecharge(ctx, id, from, to, fields, settleRedeem)
		entities = append(entities, redeemEntity)
	case rt == domain.RequestRedeem && name == workflow.RecordPayment:
		if !in.Amount.IsPositive() {
			return RequestRow{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
		}
		to, err = svc.ledger.RecordPayment(ctx, id, in.Amount, from, fields, settleRedeem)
	case rt == domain.RequestRedeem && name == workflow.Complete:
		if rd, ok := current.(*models.RedeemRequest); ok && !rd.Hold.IsZero() {
			return RequestRow{}, ErrRedeemOnHold
		}
		err = st.Transition(ctx, id, from, to, fields)
	default:
		err = st.Transition(ctx, id, from, to, fields)
	}
	if err != nil {
		svc.log.Error().Err(err).
			Str("type", string(rt)).
			Uint("id", id).
			Str("transition", name).
			Str("agent_id", s.AgentID).
			Msg("advance request")
		return RequestRow{}, err
	}

	svc.cache.Invalidate(entities...)
	svc.record(ctx, s, st.Table(), id, name, from, to, in)
	svc.log.Info().Str("type", string(rt)).Uint("id", id).Str("transition", name).Str("from", from).Str("to", to).Str("agent_id", s.AgentID).Msg("request advanced")
	return svc.Get(ctx, rt, id)
}

// record appends the transition to the audit trail. The status change has
// already been committed, so a failure here is only logged.
func (svc *RequestService) record(ctx context.Context, s *auth.Session, table string, id uint, name, from, to string, in AdvanceInput) {
	var meta []string
	if in.TargetID != 0 {
		meta = append(meta, fmt.Sprintf("target_id=%d", in.TargetID))
	}
	if !in.Amount.IsZero() {
		meta = append(meta, "amount="+in.Amount.StringFixed(2))
	}
	if n := len(in.ScreenshotURLs); n > 0 {
		meta = append(meta, fmt.Sprintf("screenshots=%d", n))
	}
	entry := &models.AuditLog{
		AgentID:    s.AgentID,
		Action:     name,
		Resource:   table,
		ResourceID: id,
		FromStatus: from,
		ToStatus:   to,
		Metadata:   strings.Join(meta, " "),
	}
	if err := svc.audit.Create(ctx, entry); err != nil {
		svc.log.Error().Err(err).Str("resource", table).Uint("id", id).Str("transition", name).Msg("audit transition")
		return
	}
	svc.cache.Invalidate(auditEntity)
}

// History lists the recorded transitions of one request.
func (svc *RequestService) History(ctx context.Context, rt domain.RequestType, id uint) ([]HistoryRow, error) {
	st, ok := svc.stores.For(rt)
	if !ok {
		return nil, ErrUnknownType
	}
	if _, err := svc.Get(ctx, rt, id); err != nil {
		return nil, err
	}
	m := workflow.For(rt)
	return cache.Fetch(ctx, svc.cache, cache.NewKey(auditEntity, st.Table(), id), func(ctx context.Context) ([]HistoryRow, error) {
		logs, err := svc.audit.ListForResource(ctx, st.Table(), id)
		if err != nil {
			return nil, err
		}
		out := make([]HistoryRow, len(logs))
		for i, l := range logs {
			out[i] = HistoryRow{
				Action:    l.Action,
				AgentID:   l.AgentID,
				From:      m.Label(workflow.StatusCode(l.FromStatus)),
				To:        m.Label(workflow.StatusCode(l.ToStatus)),
				Details:   svc.format.Text(l.Metadata),
				CreatedAt: svc.format.Time(l.CreatedAt),
			}
		}
		return out, nil
	})
}

func (svc *RequestService) assignCompanyTag(ctx context.Context, st requestStore, id uint, from, to string, tagID uint, fields map[string]any) error {
	if tagID == 0 {
		return fmt.Errorf("%w: company tag id required", ErrInvalidInput)
	}
	tag, err := svc.tags.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	if !tag.Active {
		return fmt.Errorf("%w: company tag %s is inactive", ErrInvalidInput, tag.Name)
	}
	fields["target_type"] = domain.TargetCompany
	fields["target_id"] = tag.ID
	return st.Transition(ctx, id, from, to, fields)
}

// redeemPayable accepts only redeems that are waiting to be paid.
func redeemPayable(r *models.RedeemRequest) error {
	b, _ := workflow.For(domain.RequestRedeem).BucketOf(workflow.StatusCode(r.ProcessStatus))
	if b != domain.BucketLive {
		return ErrNotPayable
	}
	return nil
}

// settleRedeem picks the redeem status after a recharge paid into it.
func settleRedeem(r *models.RedeemRequest) (string, error) {
	name := workflow.RecordPayment
	if r.Paid.Equal(r.Total) {
		name = workflow.Complete
	}
	t, err := workflow.For(domain.RequestRedeem).Apply(workflow.StatusCode(r.ProcessStatus), name)
	if err != nil {
		return "", err
	}
	return string(t.To), nil
}
