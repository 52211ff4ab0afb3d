package memory

import (
	"context"
	"sort"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type BetRepository struct {
	s *Store
}

func (r *BetRepository) Attach(_ context.Context, bet domain.Bet) (domain.Bet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	round, err := r.s.roundState(bet.Source)
	if err != nil {
		return domain.Bet{}, err
	}
	if !round.AcceptsBets() {
		return domain.Bet{}, repository.ErrRoundClosed
	}
	for _, b := range r.s.bets {
		if b.PlacementKey == bet.PlacementKey {
			return domain.Bet{}, repository.ErrDuplicateBet
		}
	}

	r.s.nextBet++
	bet.ID = r.s.nextBet
	r.s.bets[bet.ID] = bet

	return bet, nil
}

func (r *BetRepository) FindByPlacementKey(_ context.Context, key string) (domain.Bet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, b := range r.s.bets {
		if b.PlacementKey == key {
			return b, nil
		}
	}

	return domain.Bet{}, repository.ErrBetNotFound
}

func (r *BetRepository) ListBySource(_ context.Context, src domain.SourceRef) ([]domain.Bet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bets := r.s.filterBets(func(b domain.Bet) bool { return b.Source == src })
	sort.Slice(bets, func(i, j int) bool {
		if !bets[i].PlacedAt.Equal(bets[j].PlacedAt) {
			return bets[i].PlacedAt.Before(bets[j].PlacedAt)
		}
		return bets[i].ID < bets[j].ID
	})

	return bets, nil
}

func (r *BetRepository) ListByAccount(_ context.Context, accountID uint, limit int) ([]domain.Bet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bets := r.s.filterBets(func(b domain.Bet) bool { return b.AccountID == accountID })
	sort.Slice(bets, func(i, j int) bool {
		if !bets[i].PlacedAt.Equal(bets[j].PlacedAt) {
			return bets[i].PlacedAt.After(bets[j].PlacedAt)
		}
		return bets[i].ID > bets[j].ID
	})

	return truncate(bets, limit), nil
}

// ApplyResults writes each result once; bets already settled keep theirs.
func (r *BetRepository) ApplyResults(_ context.Context, results []domain.SettledBet) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	updated := 0
	for _, res := range results {
		b, ok := r.s.bets[res.BetID]
		if !ok || b.Settled {
			continue
		}
		b.BetResult = res.Result
		b.Settled = true
		r.s.bets[b.ID] = b
		updated++
	}

	return updated, nil
}

func (r *BetRepository) StatsBySource(_ context.Context, src domain.SourceRef) (domain.RoundStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats domain.RoundStats
	for _, b := range r.s.bets {
		if b.Source != src {
			continue
		}
		stats.Bets++
		stats.Revenue += b.AmountPaid
		if b.IsWinner {
			stats.Winners++
		}
	}

	return stats, nil
}

func (r *BetRepository) StatsByAccount(_ context.Context, accountID uint) (domain.PlayerStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats domain.PlayerStats
	for _, b := range r.s.bets {
		if b.AccountID != accountID {
			continue
		}
		stats.TotalBets++
		stats.TotalSpent += b.AmountPaid
		stats.TotalWon += b.PrizeAmount
		if !b.Settled {
			stats.ActiveBets++
		}
		if b.IsWinner {
			stats.Wins++
		}
	}

	return stats, nil
}

func (s *Store) filterBets(keep func(domain.Bet) bool) []domain.Bet {
	var out []domain.Bet
	for _, b := range s.bets {
		if keep(b) {
			out = append(out, b)
		}
	}

	return out
}
