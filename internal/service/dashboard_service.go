package service

import (
	"context"

	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/cache"
	"backoffice/internal/domain"
	"backoffice/internal/workflow"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BucketCount is the number of requests of one type in one bucket.
type BucketCount struct {
	Type   domain.RequestType `json:"type"`
	Bucket domain.Bucket      `json:"bucket"`
	Count  int64              `json:"count"`
}

// Dashboard is the landing page of a department.
type Dashboard struct {
	Department domain.Section   `json:"department"`
	Sections   []domain.Section `json:"sections"`
	Counts     []BucketCount    `json:"counts"`
}

type DashboardService struct {
	stores *Stores
	cache  *cache.Client
	log    zerolog.Logger
}

func NewDashboardService(stores *Stores, c *cache.Client, log zerolog.Logger) *DashboardService {
	return &DashboardService{stores: stores, cache: c, log: log.With().Str("service", "dashboard").Logger()}
}

// typesFor lists the request types a department acts on: those with at
// least one transition owned by the section.
func typesFor(section domain.Section) []domain.RequestType {
	var out []domain.RequestType
	for _, rt := range domain.RequestTypes {
		for _, t := range workflow.For(rt).Transitions() {
			if t.Section == section {
				out = append(out, rt)
				break
			}
		}
	}
	return out
}

// Summary counts every bucket of every request type the department handles.
// Each count is its own cached query; they run concurrently.
func (svc *DashboardService) Summary(ctx context.Context, s *auth.Session, department domain.Section) (Dashboard, error) {
	if s == nil || !access.CanAccessSection(s.Role, department) {
		return Dashboard{}, ErrAccessDenied
	}
	var counts []BucketCount
	for _, rt := range typesFor(department) {
		for _, b := range workflow.For(rt).Buckets() {
			counts = append(counts, BucketCount{Type: rt, Bucket: b})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range counts {
		bc := &counts[i]
		st, _ := svc.stores.For(bc.Type)
		statuses := workflow.Strings(workflow.For(bc.Type).Bucket(bc.Bucket))
		g.Go(func() error {
			n, err := cache.Fetch(gctx, svc.cache, cache.NewKey(st.Table(), "count", statuses), func(ctx context.Context) (int64, error) {
				return st.Count(ctx, statuses, nil)
			})
			bc.Count = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		svc.log.Error().Err(err).Str("department", string(department)).Msg("dashboard counts")
		return Dashboard{}, err
	}
	if counts == nil {
		counts = []BucketCount{}
	}
	return Dashboard{Department: department, Sections: access.SectionsFor(s.Role), Counts: counts}, nil
}
