package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrDuplicateKey             = errors.New("duplicate idempotency key")
	ErrKeyConflict              = errors.New("idempotency key is used by another request")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrAccountArchived          = errors.New("account is archived")
	ErrProfileIncomplete        = errors.New("account profile is incomplete")
	ErrEntryAlreadySettled      = errors.New("ledger entry already settled")
	ErrInvalidEntryStatus       = errors.New("invalid ledger entry status")
	ErrContestNotOpen           = errors.New("contest is not open for bets")
	ErrAlreadyDrawn             = errors.New("round already drawn")
	ErrContestInactive          = errors.New("contest is inactive")
	ErrInvalidSelectionCount    = errors.New("invalid selection count")
	ErrInvalidNumberRange       = errors.New("invalid number range")
	ErrInvalidPriceConfig       = errors.New("invalid price config")
	ErrUnknownGatewayPayment    = errors.New("unknown gateway payment")
	ErrRemoteGatewayUnavailable = errors.New("remote gateway unavailable")
)

// InsufficientFundsError reports how much is missing to cover a debit.
type InsufficientFundsError struct {
	Balance  Money
	Required Money
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s, shortfall %s",
		e.Balance, e.Required, e.Shortfall())
}

func (e *InsufficientFundsError) Shortfall() Money {
	return e.Required - e.Balance
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
