package service

import (
	"errors"

	"backoffice/internal/repository"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownType  = errors.New("unknown request type")
	ErrRedeemOnHold = errors.New("redeem has recharges on hold")
	ErrNotPayable   = errors.New("redeem is not awaiting payment")
	ErrNoUploads    = errors.New("screenshot uploads are not configured")

	ErrNotFound              = repository.ErrNotFound
	ErrInsufficientAvailable = repository.ErrInsufficientAvailable
)
