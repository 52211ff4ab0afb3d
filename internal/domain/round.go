package domain

import (
	"fmt"
	"time"
)

type RoundStatus string

const (
	RoundActive   RoundStatus = "ACTIVE"
	RoundInactive RoundStatus = "INACTIVE"
	RoundDrawn    RoundStatus = "DRAWN"
)

type SourceKind string

const (
	SourceContest SourceKind = "contest"
	SourceDraw    SourceKind = "draw"
)

// SourceRef identifies the round a bet belongs to.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	ID   uint       `json:"id"`
}

func ContestRef(id uint) SourceRef { return SourceRef{Kind: SourceContest, ID: id} }
func DrawRef(id uint) SourceRef    { return SourceRef{Kind: SourceDraw, ID: id} }

func (r SourceRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Round is the lifecycle shared by contests and legacy draws.
//
// Drawing happens in two steps. MarkDrawn closes the round and records the numbers;
// MarkSettled sets IsDrawn once every winner has been paid. A round that is DRAWN but
// not IsDrawn stopped part-way through settlement and may be settled again with the
// same numbers.
type Round struct {
	Status    RoundStatus      `json:"status"`
	IsActive  bool             `json:"is_active"`
	IsDrawn   bool             `json:"is_drawn"`
	Numbers   *OfficialNumbers `json:"numbers,omitempty"`
	DrawnAt   *time.Time       `json:"drawn_at,omitempty"`
	SettledAt *time.Time       `json:"settled_at,omitempty"`
}

func NewRound() Round {
	return Round{Status: RoundActive, IsActive: true}
}

func (r *Round) AcceptsBets() bool {
	return r.Status == RoundActive
}

func (r *Round) MarkDrawn(numbers OfficialNumbers, at time.Time) error {
	if r.IsDrawn {
		return ErrAlreadyDrawn
	}

	switch r.Status {
	case RoundInactive:
		return ErrContestInactive
	case RoundDrawn:
		if r.Numbers == nil || *r.Numbers != numbers {
			return fmt.Errorf("%w: numbers already recorded", ErrAlreadyDrawn)
		}
		return nil
	}

	r.Status = RoundDrawn
	r.IsActive = false
	r.Numbers = &numbers
	r.DrawnAt = &at

	return nil
}

func (r *Round) MarkSettled(at time.Time) error {
	if r.Status != RoundDrawn {
		return ErrContestNotOpen
	}
	if r.IsDrawn {
		return ErrAlreadyDrawn
	}
	r.IsDrawn = true
	r.SettledAt = &at

	return nil
}

func (r *Round) Deactivate() error {
	if r.Status == RoundDrawn {
		return ErrAlreadyDrawn
	}
	r.Status = RoundInactive
	r.IsActive = false

	return nil
}

func (r *Round) Reactivate() error {
	if r.Status == RoundDrawn {
		return ErrAlreadyDrawn
	}
	r.Status = RoundActive
	r.IsActive = true

	return nil
}

// SettlementSource is either a *Contest or a *LegacyDraw.
type SettlementSource interface {
	Ref() SourceRef
	State() *Round
	// PrizePool returns the amount to split among jackpot winners given the round's revenue.
	PrizePool(revenue Money) Money

	settlementSource()
}

type RoundStats struct {
	Bets    int   `json:"bets"`
	Winners int   `json:"winners"`
	Revenue Money `json:"revenue_cents"`
}
