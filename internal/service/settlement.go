package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/keylock"
)

const defaultCreditConcurrency = 8

type Payout struct {
	BetID      uint         `json:"bet_id"`
	AccountID  uint         `json:"account_id"`
	ShareIndex int          `json:"prize_share_index"`
	Amount     domain.Money `json:"amount_cents"`
}

type SettlementReport struct {
	Source  domain.SourceRef       `json:"source"`
	Numbers domain.OfficialNumbers `json:"numbers"`
	Bets    int                    `json:"bets"`
	Winners int                    `json:"winners"`
	Revenue domain.Money           `json:"revenue_cents"`
	Pool    domain.Money           `json:"pool_cents"`
	Payouts []Payout               `json:"payouts"`
}

type SettlementService struct {
	contests *ContestService
	bets     BetStore
	ledger   *LedgerService
	locks    *keylock.Locker[domain.SourceRef]
	limit    int
}

func NewSettlementService(contests *ContestService, bets BetStore, ledger *LedgerService, concurrency int) *SettlementService {
	if concurrency <= 0 {
		concurrency = defaultCreditConcurrency
	}

	return &SettlementService{
		contests: contests,
		bets:     bets,
		ledger:   ledger,
		locks:    keylock.New[domain.SourceRef](),
		limit:    concurrency,
	}
}

// Settle draws the round with the official numbers, records every bet's result and pays the
// jackpot winners. Calling it again after a partial failure finishes the job without paying
// anyone twice; calling it after completion returns ErrAlreadyDrawn.
func (s *SettlementService) Settle(ctx context.Context, ref domain.SourceRef, numbers domain.OfficialNumbers) (SettlementReport, error) {
	numbers, err := domain.NewOfficialNumbers(numbers.White[:], []int{numbers.Special})
	if err != nil {
		return SettlementReport{}, err
	}

	unlock := s.locks.Lock(ref)
	defer unlock()

	source, err := s.contests.MarkDrawn(ctx, ref, numbers)
	if err != nil {
		return SettlementReport{}, fmt.Errorf("s.contests.MarkDrawn -> %w", err)
	}

	bets, err := s.bets.ListBySource(ctx, ref)
	if err != nil {
		return SettlementReport{}, fmt.Errorf("s.bets.ListBySource -> %w", err)
	}

	var revenue domain.Money
	for _, b := range bets {
		revenue += b.AmountPaid
	}
	pool := source.PrizePool(revenue)

	results, payouts := scoreBets(bets, numbers, pool)
	report := SettlementReport{
		Source:  ref,
		Numbers: numbers,
		Bets:    len(bets),
		Winners: len(payouts),
		Revenue: revenue,
		Pool:    pool,
		Payouts: payouts,
	}

	if _, err := s.bets.ApplyResults(ctx, results); err != nil {
		return report, fmt.Errorf("s.bets.ApplyResults -> %w", err)
	}

	if err := s.pay(ctx, ref, payouts); err != nil {
		return report, err
	}

	if err := s.contests.MarkSettled(ctx, ref); err != nil {
		return report, fmt.Errorf("s.contests.MarkSettled -> %w", err)
	}

	zap.L().Info("round settled",
		zap.Stringer("source", ref),
		zap.Int("bets", report.Bets),
		zap.Int("winners", report.Winners),
		zap.Stringer("pool", pool))

	return report, nil
}

func (s *SettlementService) pay(ctx context.Context, ref domain.SourceRef, payouts []Payout) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for _, p := range payouts {
		if p.Amount <= 0 {
			continue
		}

		p := p
		g.Go(func() error {
			bet := domain.Bet{ID: p.BetID, AccountID: p.AccountID, Source: ref}
			_, err := s.ledger.Credit(gctx, CreditRequest{
				AccountID: p.AccountID,
				Kind:      domain.EntryPrize,
				Amount:    p.Amount,
				Key:       bet.PrizeKey(),
				Memo:      fmt.Sprintf("prize %s share %d", ref, p.ShareIndex),
			})
			if err != nil {
				zap.L().Error("prize credit failed",
					zap.Stringer("source", ref),
					zap.Uint("bet_id", p.BetID),
					zap.Uint("account_id", p.AccountID),
					zap.Error(err))
				return fmt.Errorf("s.ledger.Credit bet %d -> %w", p.BetID, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// scoreBets matches every bet against the numbers and splits pool among the jackpot winners.
// bets must be ordered by placement time; earlier winners receive the leftover cents.
func scoreBets(bets []domain.Bet, numbers domain.OfficialNumbers, pool domain.Money) ([]domain.SettledBet, []Payout) {
	results := make([]domain.SettledBet, len(bets))
	var winners []int

	for i, b := range bets {
		m := b.Selection.Match(numbers)
		results[i] = domain.SettledBet{
			BetID: b.ID,
			Result: domain.BetResult{
				Settled:      true,
				WhiteMatches: m.WhiteMatches,
				SpecialMatch: m.SpecialMatch,
				MatchCount:   m.Total(),
				IsWinner:     m.IsJackpot(),
			},
		}
		if m.IsJackpot() {
			winners = append(winners, i)
		}
	}

	shares := splitPool(pool, len(winners))
	payouts := make([]Payout, len(winners))
	for rank, i := range winners {
		results[i].Result.PrizeShareIndex = rank + 1
		results[i].Result.PrizeAmount = shares[rank]
		payouts[rank] = Payout{
			BetID:      bets[i].ID,
			AccountID:  bets[i].AccountID,
			ShareIndex: rank + 1,
			Amount:     shares[rank],
		}
	}

	return results, payouts
}

// splitPool divides pool into n shares that differ by at most one cent and sum to pool.
func splitPool(pool domain.Money, n int) []domain.Money {
	if n <= 0 {
		return nil
	}

	base := pool / domain.Money(n)
	remainder := int(pool - base*domain.Money(n))

	shares := make([]domain.Money, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}

	return shares
}
