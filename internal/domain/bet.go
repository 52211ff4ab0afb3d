package domain

import (
	"fmt"
	"time"
)

type Bet struct {
	ID           uint      `json:"id"`
	AccountID    uint      `json:"account_id"`
	Source       SourceRef `json:"source"`
	PlacementKey string    `json:"placement_key"`
	Selection    Selection `json:"selection"`
	AmountPaid   Money     `json:"amount_paid_cents"`
	PlacedAt     time.Time `json:"placed_at"`
	BetResult
}

// BetResult holds the post-draw fields. They stay zero until the round is drawn and are
// written once.
type BetResult struct {
	Settled         bool  `json:"settled"`
	WhiteMatches    int   `json:"white_matches"`
	SpecialMatch    bool  `json:"special_match"`
	MatchCount      int   `json:"match_count"`
	IsWinner        bool  `json:"is_winner"`
	PrizeShareIndex int   `json:"prize_share_index"`
	PrizeAmount     Money `json:"prize_amount_cents"`
}

type BetOutcome string

const (
	BetWaiting BetOutcome = "WAITING"
	BetWon     BetOutcome = "WON"
	BetLost    BetOutcome = "LOST"
)

func (b *Bet) Outcome() BetOutcome {
	switch {
	case !b.Settled:
		return BetWaiting
	case b.IsWinner:
		return BetWon
	default:
		return BetLost
	}
}

// PrizeKey is the idempotency key of the prize credit for this bet.
func (b *Bet) PrizeKey() string {
	return fmt.Sprintf("%s:account:%d:bet:%d", b.Source, b.AccountID, b.ID)
}

type SettledBet struct {
	BetID  uint
	Result BetResult
}
