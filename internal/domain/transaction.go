package domain

import (
	"time"
)

type EntryKind string

const (
	EntryDeposit    EntryKind = "DEPOSIT"
	EntryBet        EntryKind = "BET"
	EntryPrize      EntryKind = "PRIZE"
	EntryWithdrawal EntryKind = "WITHDRAWAL"
)

type EntryStatus string

const (
	EntryPending   EntryStatus = "PENDING"
	EntrySettled   EntryStatus = "SETTLED"
	EntryFailed    EntryStatus = "FAILED"
	EntryCancelled EntryStatus = "CANCELLED"
)

// LedgerEntry is one balance mutation of an account. Amount is signed: debits are negative.
type LedgerEntry struct {
	ID             uint        `json:"id"`
	AccountID      uint        `json:"account_id"`
	Kind           EntryKind   `json:"kind"`
	Amount         Money       `json:"amount_cents"`
	Status         EntryStatus `json:"status"`
	IdempotencyKey string      `json:"idempotency_key"`
	GatewayID      string      `json:"gateway_id,omitempty"`
	Memo           string      `json:"memo"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (e *LedgerEntry) IsSettled() bool {
	return e.Status == EntrySettled
}

// Settle flips a not-yet-applied entry to SETTLED.
func (e *LedgerEntry) Settle() error {
	if e.Status == EntrySettled {
		return ErrEntryAlreadySettled
	}
	e.Status = EntrySettled

	return nil
}

// Close marks an unsettled entry FAILED or CANCELLED. Settled entries are final.
func (e *LedgerEntry) Close(status EntryStatus) error {
	if e.Status == EntrySettled {
		return ErrEntryAlreadySettled
	}
	if status != EntryFailed && status != EntryCancelled {
		return ErrInvalidEntryStatus
	}
	e.Status = status

	return nil
}
