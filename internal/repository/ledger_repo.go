package repository

import (
	"context"
	"fmt"

	"backoffice/internal/domain"
	"backoffice/internal/models"
	"backoffice/internal/pkg/lock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository writes a recharge and the redeem it pays in one
// transaction. Writes touching the same redeem are serialized in-process.
type LedgerRepository struct {
	db    *gorm.DB
	locks *lock.KeyedLock
}

func NewLedgerRepository(db *gorm.DB, locks *lock.KeyedLock) *LedgerRepository {
	return &LedgerRepository{db: db, locks: locks}
}

func redeemKey(id uint) string {
	return fmt.Sprintf("redeem:%d", id)
}

// HoldForRecharge points recharge rechargeID at redeem redeemID and moves the
// recharge amount from the redeem's available balance to hold. check may
// reject the redeem before anything is written.
func (r *LedgerRepository) HoldForRecharge(ctx context.Context, rechargeID, redeemID uint, from, to string, fields map[string]any, check func(*models.RedeemRequest) error) error {
	return r.locks.WithLock(ctx, redeemKey(redeemID), func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var recharge models.RechargeRequest
			if err := tx.First(&recharge, rechargeID).Error; err != nil {
				return notFound(err)
			}
			var redeem models.RedeemRequest
			if err := tx.First(&redeem, redeemID).Error; err != nil {
				return notFound(err)
			}
			if check != nil {
				if err := check(&redeem); err != nil {
					return err
				}
			}
			if redeem.Available.LessThan(recharge.Amount) {
				return ErrInsufficientAvailable
			}
			redeem.Available = redeem.Available.Sub(recharge.Amount)
			redeem.Hold = redeem.Hold.Add(recharge.Amount)
			if err := redeem.Validate(); err != nil {
				return err
			}
			if err := tx.Model(&redeem).Updates(map[string]any{
				"available": redeem.Available,
				"hold":      redeem.Hold,
			}).Error; err != nil {
				return err
			}

			updates := map[string]any{"target_type": domain.TargetRedeem, "target_id": redeemID}
			for k, v := range fields {
				updates[k] = v
			}
			return transition(tx, &models.RechargeRequest{}, rechargeID, from, to, updates)
		})
	})
}

// SettleRecharge completes a recharge booked against a redeem: the redeem's
// hold for it becomes paid, and the redeem moves to the status next returns.
func (r *LedgerRepository) SettleRecharge(ctx context.Context, rechargeID uint, from, to string, fields map[string]any, next func(*models.RedeemRequest) (string, error)) error {
	var recharge models.RechargeRequest
	if err := r.db.WithContext(ctx).First(&recharge, rechargeID).Error; err != nil {
		return notFound(err)
	}
	if recharge.TargetType != domain.TargetRedeem || recharge.TargetID == nil {
		return transition(r.db.WithContext(ctx), &models.RechargeRequest{}, rechargeID, from, to, fields)
	}
	redeemID := *recharge.TargetID

	return r.locks.WithLock(ctx, redeemKey(redeemID), func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := transition(tx, &models.RechargeRequest{}, rechargeID, from, to, fields); err != nil {
				return err
			}
			var redeem models.RedeemRequest
			if err := tx.First(&redeem, redeemID).Error; err != nil {
				return notFound(err)
			}
			if redeem.Hold.LessThan(recharge.Amount) {
				return models.ErrUnbalancedRedeem
			}
			redeem.Hold = redeem.Hold.Sub(recharge.Amount)
			redeem.Paid = redeem.Paid.Add(recharge.Amount)
			if err := redeem.Validate(); err != nil {
				return err
			}
			status, err := next(&redeem)
			if err != nil {
				return err
			}
			return transition(tx, &models.RedeemRequest{}, redeem.ID, redeem.ProcessStatus, status, map[string]any{
				"hold": redeem.Hold,
				"paid": redeem.Paid,
			})
		})
	})
}

// RecordPayment pays amount of a redeem out of its available balance and
// moves it to the status next returns for the new balances. It returns that
// status.
func (r *LedgerRepository) RecordPayment(ctx context.Context, redeemID uint, amount decimal.Decimal, from string, fields map[string]any, next func(*models.RedeemRequest) (string, error)) (string, error) {
	var status string
	err := r.locks.WithLock(ctx, redeemKey(redeemID), func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var redeem models.RedeemRequest
			if err := tx.First(&redeem, redeemID).Error; err != nil {
				return notFound(err)
			}
			if redeem.ProcessStatus != from {
				return ErrStatusConflict
			}
			if redeem.Available.LessThan(amount) {
				return ErrInsufficientAvailable
			}
			redeem.Available = redeem.Available.Sub(amount)
			redeem.Paid = redeem.Paid.Add(amount)
			if err := redeem.Validate(); err != nil {
				return err
			}
			to, err := next(&redeem)
			if err != nil {
				return err
			}
			updates := map[string]any{"available": redeem.Available, "paid": redeem.Paid}
			for k, v := range fields {
				updates[k] = v
			}
			if err := transition(tx, &models.RedeemRequest{}, redeemID, from, to, updates); err != nil {
				return err
			}
			status = to
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return status, nil
}
