package domain

import "time"

// Contest is a prize round with a pool fixed at creation.
type Contest struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Pool        Money      `json:"prize_pool_cents"`
	UnitPrice   Money      `json:"unit_price_cents"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Round
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Contest) Ref() SourceRef          { return ContestRef(c.ID) }
func (c *Contest) State() *Round           { return &c.Round }
func (c *Contest) PrizePool(_ Money) Money { return c.Pool }
func (c *Contest) settlementSource()       {}

// HouseResult is what the operator keeps once the pool is paid, never negative.
func (c *Contest) HouseResult(revenue Money) Money {
	if revenue <= c.Pool {
		return 0
	}

	return revenue - c.Pool
}

type ContestUpdate struct {
	Title       *string
	Pool        *Money
	UnitPrice   *Money
	ScheduledAt *time.Time
}

func (c *Contest) Apply(u ContestUpdate) error {
	if c.Status == RoundDrawn {
		return ErrAlreadyDrawn
	}
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Pool != nil {
		if *u.Pool < 0 {
			return ErrInvalidAmount
		}
		c.Pool = *u.Pool
	}
	if u.UnitPrice != nil {
		if *u.UnitPrice <= 0 {
			return ErrInvalidAmount
		}
		c.UnitPrice = *u.UnitPrice
	}
	if u.ScheduledAt != nil {
		c.ScheduledAt = u.ScheduledAt
	}

	return nil
}

type ContestSummary struct {
	Contest
	Stats       RoundStats `json:"stats"`
	HouseResult Money      `json:"house_result_cents"`
}
