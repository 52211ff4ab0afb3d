package response

import (
	"time"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/service"
)

type LoginResponse struct {
	Token string       `json:"token"`
	Admin domain.Admin `json:"admin"`
}

type FeedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BalanceResponse struct {
	ExternalID string       `json:"external_id"`
	Balance    domain.Money `json:"balance_cents"`
	Formatted  string       `json:"balance"`
}

type PriceResponse struct {
	Price     domain.Money `json:"price_cents"`
	Formatted string       `json:"price"`
}

// BetView is a bet with its WAITING/WON/LOST outcome spelled out.
type BetView struct {
	domain.Bet
	Outcome domain.BetOutcome `json:"outcome"`
}

func NewBetViews(bets []domain.Bet) []BetView {
	out := make([]BetView, 0, len(bets))
	for i := range bets {
		out = append(out, BetView{Bet: bets[i], Outcome: bets[i].Outcome()})
	}

	return out
}

type WebhookResponse struct {
	Status service.Outcome `json:"status"`
}
