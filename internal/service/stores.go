package service

import (
	"context"

	"backoffice/internal/domain"
	"backoffice/internal/listing"
	"backoffice/internal/models"
	"backoffice/internal/repository"

	"gorm.io/gorm"
)

// requestStore is the type-erased view of one request repository.
type requestStore interface {
	Table() string
	List(ctx context.Context, q listing.Query) (listing.Page[models.Request], error)
	Get(ctx context.Context, id uint) (models.Request, error)
	Count(ctx context.Context, statuses, teams []string) (int64, error)
	CountByPlayer(ctx context.Context, playerID uint) (int64, error)
	Transition(ctx context.Context, id uint, from, to string, fields map[string]any) error
}

type typedStore[T any, P interface {
	*T
	models.Request
}] struct {
	repo *repository.RequestRepository[T, P]
}

func (s typedStore[T, P]) Table() string {
	return s.repo.Table()
}

func (s typedStore[T, P]) List(ctx context.Context, q listing.Query) (listing.Page[models.Request], error) {
	page, err := s.repo.List(ctx, q)
	if err != nil {
		return listing.Page[models.Request]{}, err
	}
	return listing.MapPage(page, func(row T) models.Request { return P(&row) }), nil
}

func (s typedStore[T, P]) Get(ctx context.Context, id uint) (models.Request, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(row), nil
}

func (s typedStore[T, P]) Count(ctx context.Context, statuses, teams []string) (int64, error) {
	return s.repo.CountByStatuses(ctx, statuses, teams)
}

func (s typedStore[T, P]) CountByPlayer(ctx context.Context, playerID uint) (int64, error) {
	return s.repo.CountByPlayer(ctx, playerID)
}

func (s typedStore[T, P]) Transition(ctx context.Context, id uint, from, to string, fields map[string]any) error {
	return s.repo.Transition(ctx, id, from, to, fields)
}

func newStore[T any, P interface {
	*T
	models.Request
}](db *gorm.DB) requestStore {
	return typedStore[T, P]{repo: repository.NewRequestRepository[T, P](db)}
}

// Stores holds one repository per request type.
type Stores struct {
	byType map[domain.RequestType]requestStore
}

func NewStores(db *gorm.DB) *Stores {
	return &Stores{byType: map[domain.RequestType]requestStore{
		domain.RequestRecharge:      newStore[models.RechargeRequest](db),
		domain.RequestRedeem:        newStore[models.RedeemRequest](db),
		domain.RequestTransfer:      newStore[models.TransferRequest](db),
		domain.RequestResetPassword: newStore[models.ResetPasswordRequest](db),
		domain.RequestNewAccount:    newStore[models.NewAccountRequest](db),
	}}
}

func (s *Stores) For(rt domain.RequestType) (requestStore, bool) {
	st, ok := s.byType[rt]
	return st, ok
}

// Entity is the cache entity of a request type.
func (s *Stores) Entity(rt domain.RequestType) string {
	if st, ok := s.byType[rt]; ok {
		return st.Table()
	}
	return string(rt)
}
