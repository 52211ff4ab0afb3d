package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultRevenueGoal     Money = 300000
	DefaultInitialRateBps        = 3000
	DefaultPostGoalRateBps       = 9000
)

// LegacyDraw is the older single-round format. Its pool grows with revenue: the house keeps
// InitialRateBps of revenue up to RevenueGoal and PostGoalRateBps of everything above it.
type LegacyDraw struct {
	ID              uint  `json:"id"`
	BasePrize       Money `json:"base_prize_cents"`
	RevenueGoal     Money `json:"revenue_goal_cents"`
	InitialRateBps  int64 `json:"initial_rate_bps"`
	PostGoalRateBps int64 `json:"post_goal_rate_bps"`
	Round
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewLegacyDraw(basePrize Money) LegacyDraw {
	return LegacyDraw{
		BasePrize:       basePrize,
		RevenueGoal:     DefaultRevenueGoal,
		InitialRateBps:  DefaultInitialRateBps,
		PostGoalRateBps: DefaultPostGoalRateBps,
		Round:           NewRound(),
	}
}

func (d *LegacyDraw) Ref() SourceRef    { return DrawRef(d.ID) }
func (d *LegacyDraw) State() *Round     { return &d.Round }
func (d *LegacyDraw) settlementSource() {}

func (d *LegacyDraw) PrizePool(revenue Money) Money {
	return d.BasePrize + d.PrizeFund(revenue)
}

func (d *LegacyDraw) HouseCut(revenue Money) Money {
	if revenue <= 0 {
		return 0
	}

	rev := revenue.Decimal()
	goal := d.RevenueGoal.Decimal()
	initial := decimal.New(d.InitialRateBps, -4)
	post := decimal.New(d.PostGoalRateBps, -4)

	if rev.LessThanOrEqual(goal) {
		return MoneyFromDecimal(rev.Mul(initial))
	}

	return MoneyFromDecimal(goal.Mul(initial).Add(rev.Sub(goal).Mul(post)))
}

func (d *LegacyDraw) PrizeFund(revenue Money) Money {
	if revenue <= 0 {
		return 0
	}

	return revenue - d.HouseCut(revenue)
}
