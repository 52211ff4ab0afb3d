package service

import (
	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

var (
	ErrInsufficientFunds        = domain.ErrInsufficientFunds
	ErrDuplicateKey             = domain.ErrDuplicateKey
	ErrKeyConflict              = domain.ErrKeyConflict
	ErrInvalidAmount            = domain.ErrInvalidAmount
	ErrAccountArchived          = domain.ErrAccountArchived
	ErrProfileIncomplete        = domain.ErrProfileIncomplete
	ErrEntryAlreadySettled      = domain.ErrEntryAlreadySettled
	ErrInvalidEntryStatus       = domain.ErrInvalidEntryStatus
	ErrContestNotOpen           = domain.ErrContestNotOpen
	ErrAlreadyDrawn             = domain.ErrAlreadyDrawn
	ErrContestInactive          = domain.ErrContestInactive
	ErrInvalidSelectionCount    = domain.ErrInvalidSelectionCount
	ErrInvalidNumberRange       = domain.ErrInvalidNumberRange
	ErrInvalidPriceConfig       = domain.ErrInvalidPriceConfig
	ErrUnknownGatewayPayment    = domain.ErrUnknownGatewayPayment
	ErrRemoteGatewayUnavailable = domain.ErrRemoteGatewayUnavailable

	ErrAccountNotFound = repository.ErrAccountNotFound
	ErrEntryNotFound   = repository.ErrEntryNotFound
	ErrContestNotFound = repository.ErrContestNotFound
	ErrDrawNotFound    = repository.ErrDrawNotFound
	ErrBetNotFound     = repository.ErrBetNotFound
)
