package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict means the row left the expected status before the write.
	ErrStatusConflict        = errors.New("request status changed concurrently")
	ErrInsufficientAvailable = errors.New("redeem has insufficient available balance")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
