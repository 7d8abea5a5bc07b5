package repository

import (
	"context"
	"strings"

	"backoffice/internal/listing"
	"backoffice/internal/models"

	"gorm.io/gorm"
)

const defaultPageSize = 10

// RequestRepository reads and advances one request table.
type RequestRepository[T any, P interface {
	*T
	models.Request
}] struct {
	db *gorm.DB
}

func NewRequestRepository[T any, P interface {
	*T
	models.Request
}](db *gorm.DB) *RequestRepository[T, P] {
	return &RequestRepository[T, P]{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RequestRepository[T, P]) WithTx(tx *gorm.DB) *RequestRepository[T, P] {
	return &RequestRepository[T, P]{db: tx}
}

// Table is the name of the underlying table, also used as its cache entity.
func (r *RequestRepository[T, P]) Table() string {
	var t T
	return P(&t).TableName()
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func (r *RequestRepository[T, P]) filtered(ctx context.Context, q listing.Query) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(new(T))
	if len(q.Statuses) > 0 {
		tx = tx.Where("process_status IN ?", q.Statuses)
	}
	if len(q.Teams) > 0 {
		tx = tx.Where("LOWER(team) IN ?", lowerAll(q.Teams))
	}
	if q.Team != "" {
		tx = tx.Where("LOWER(team) = ?", strings.ToLower(q.Team))
	}
	return tx
}

// List returns one page of rows matching q, newest first. Without a search term
// the database pages; with one, the whole filtered set is loaded and searched
// over the display fields before paging.
func (r *RequestRepository[T, P]) List(ctx context.Context, q listing.Query) (listing.Page[T], error) {
	size := q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	if strings.TrimSpace(q.Search) == "" {
		var total int64
		if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
			return listing.Page[T]{}, err
		}
		var rows []T
		err := r.filtered(ctx, q).
			Preload("Player").
			Order("created_at DESC, id DESC").
			Offset(listing.Offset(page, size)).
			Limit(size).
			Find(&rows).Error
		if err != nil {
			return listing.Page[T]{}, err
		}
		return listing.NewPage(rows, total, page, size), nil
	}

	var rows []T
	if err := r.filtered(ctx, q).Preload("Player").Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return listing.Page[T]{}, err
	}
	matched := listing.Filter(rows, q.Search, func(row T) []string { return P(&row).SearchFields() })
	return listing.NewPage(listing.Slice(matched, page, size), int64(len(matched)), page, size), nil
}

func (r *RequestRepository[T, P]) GetByID(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).Preload("Player").First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// CountByStatuses counts rows in any of statuses, optionally restricted to teams.
func (r *RequestRepository[T, P]) CountByStatuses(ctx context.Context, statuses, teams []string) (int64, error) {
	var n int64
	err := r.filtered(ctx, listing.Query{Statuses: statuses, Teams: teams}).Count(&n).Error
	return n, err
}

func (r *RequestRepository[T, P]) CountByPlayer(ctx context.Context, playerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Where("player_id = ?", playerID).Count(&n).Error
	return n, err
}

// Transition moves row id from status from to status to, writing fields in the
// same statement. It fails with ErrStatusConflict when the row is no longer in
// from.
func (r *RequestRepository[T, P]) Transition(ctx context.Context, id uint, from, to string, fields map[string]any) error {
	return transition(r.db.WithContext(ctx), new(T), id, from, to, fields)
}

func transition(db *gorm.DB, model any, id uint, from, to string, fields map[string]any) error {
	updates := map[string]any{"process_status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := db.Model(model).Where("id = ? AND process_status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}
