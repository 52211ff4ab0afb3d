package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

var (
	ErrBetNotFound  = dao.ErrBetNotFound
	ErrDuplicateBet = dao.ErrDuplicateBet
	ErrRoundClosed  = dao.ErrRoundClosed
)

type BetDAO interface {
	Attach(ctx context.Context, bet dao.Bet) (dao.Bet, error)
	FindByPlacementKey(ctx context.Context, key string) (dao.Bet, error)
	ListBySource(ctx context.Context, src dao.BetSource) ([]dao.Bet, error)
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]dao.Bet, error)
	ApplyResults(ctx context.Context, rows []dao.BetResultRow) (int64, error)
	TotalsBySource(ctx context.Context, src dao.BetSource) (dao.BetTotals, error)
	TotalsByAccount(ctx context.Context, accountID uint) (dao.PlayerTotals, error)
}

type BetRepository struct {
	dao BetDAO
}

func NewBetRepository(dao BetDAO) *BetRepository {
	return &BetRepository{
		dao: dao,
	}
}

func (r *BetRepository) Attach(ctx context.Context, bet domain.Bet) (domain.Bet, error) {
	row, err := betDomainToDAO(bet)
	if err != nil {
		return domain.Bet{}, err
	}

	created, err := r.dao.Attach(ctx, row)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("r.dao.Attach -> %w", err)
	}

	return betDAOToDomain(created)
}

func (r *BetRepository) FindByPlacementKey(ctx context.Context, key string) (domain.Bet, error) {
	found, err := r.dao.FindByPlacementKey(ctx, key)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("r.dao.FindByPlacementKey -> %w", err)
	}

	return betDAOToDomain(found)
}

func (r *BetRepository) ListBySource(ctx context.Context, src domain.SourceRef) ([]domain.Bet, error) {
	found, err := r.dao.ListBySource(ctx, betSource(src))
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListBySource -> %w", err)
	}

	return betsDAOToDomain(found)
}

func (r *BetRepository) ListByAccount(ctx context.Context, accountID uint, limit int) ([]domain.Bet, error) {
	found, err := r.dao.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByAccount -> %w", err)
	}

	return betsDAOToDomain(found)
}

func (r *BetRepository) ApplyResults(ctx context.Context, results []domain.SettledBet) (int, error) {
	rows := make([]dao.BetResultRow, len(results))
	for i, res := range results {
		rows[i] = dao.BetResultRow{
			BetID:           res.BetID,
			WhiteMatches:    res.Result.WhiteMatches,
			SpecialMatch:    res.Result.SpecialMatch,
			MatchCount:      res.Result.MatchCount,
			IsWinner:        res.Result.IsWinner,
			PrizeShareIndex: res.Result.PrizeShareIndex,
			PrizeCents:      int64(res.Result.PrizeAmount),
		}
	}

	updated, err := r.dao.ApplyResults(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("r.dao.ApplyResults -> %w", err)
	}

	return int(updated), nil
}

func (r *BetRepository) StatsBySource(ctx context.Context, src domain.SourceRef) (domain.RoundStats, error) {
	totals, err := r.dao.TotalsBySource(ctx, betSource(src))
	if err != nil {
		return domain.RoundStats{}, fmt.Errorf("r.dao.TotalsBySource -> %w", err)
	}

	return domain.RoundStats{
		Bets:    int(totals.Bets),
		Winners: int(totals.Winners),
		Revenue: domain.Money(totals.Revenue),
	}, nil
}

func (r *BetRepository) StatsByAccount(ctx context.Context, accountID uint) (domain.PlayerStats, error) {
	totals, err := r.dao.TotalsByAccount(ctx, accountID)
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("r.dao.TotalsByAccount -> %w", err)
	}

	return domain.PlayerStats{
		TotalBets:  int(totals.Bets),
		ActiveBets: int(totals.Active),
		Wins:       int(totals.Wins),
		TotalSpent: domain.Money(totals.Spent),
		TotalWon:   domain.Money(totals.Won),
	}, nil
}

func betSource(src domain.SourceRef) dao.BetSource {
	id := src.ID
	if src.Kind == domain.SourceDraw {
		return dao.BetSource{DrawID: &id}
	}

	return dao.BetSource{ContestID: &id}
}

func betDomainToDAO(b domain.Bet) (dao.Bet, error) {
	white, err := json.Marshal(b.Selection.White)
	if err != nil {
		return dao.Bet{}, fmt.Errorf("json.Marshal -> %w", err)
	}
	special, err := json.Marshal(b.Selection.Special)
	if err != nil {
		return dao.Bet{}, fmt.Errorf("json.Marshal -> %w", err)
	}

	src := betSource(b.Source)

	return dao.Bet{
		ID:              b.ID,
		AccountID:       b.AccountID,
		ContestID:       src.ContestID,
		DrawID:          src.DrawID,
		PlacementKey:    b.PlacementKey,
		White:           datatypes.JSON(white),
		Special:         datatypes.JSON(special),
		AmountPaidCents: int64(b.AmountPaid),
		PlacedAt:        b.PlacedAt,
		Settled:         b.Settled,
		WhiteMatches:    b.WhiteMatches,
		SpecialMatch:    b.SpecialMatch,
		MatchCount:      b.MatchCount,
		IsWinner:        b.IsWinner,
		PrizeShareIndex: b.PrizeShareIndex,
		PrizeCents:      int64(b.PrizeAmount),
	}, nil
}

func betDAOToDomain(b dao.Bet) (domain.Bet, error) {
	bet := domain.Bet{
		ID:           b.ID,
		AccountID:    b.AccountID,
		PlacementKey: b.PlacementKey,
		AmountPaid:   domain.Money(b.AmountPaidCents),
		PlacedAt:     b.PlacedAt,
		BetResult: domain.BetResult{
			Settled:         b.Settled,
			WhiteMatches:    b.WhiteMatches,
			SpecialMatch:    b.SpecialMatch,
			MatchCount:      b.MatchCount,
			IsWinner:        b.IsWinner,
			PrizeShareIndex: b.PrizeShareIndex,
			PrizeAmount:     domain.Money(b.PrizeCents),
		},
	}

	switch {
	case b.ContestID != nil:
		bet.Source = domain.ContestRef(*b.ContestID)
	case b.DrawID != nil:
		bet.Source = domain.DrawRef(*b.DrawID)
	}

	if err := json.Unmarshal(b.White, &bet.Selection.White); err != nil {
		return domain.Bet{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}
	if err := json.Unmarshal(b.Special, &bet.Selection.Special); err != nil {
		return domain.Bet{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return bet, nil
}

func betsDAOToDomain(rows []dao.Bet) ([]domain.Bet, error) {
	bets := make([]domain.Bet, 0, len(rows))
	for _, row := range rows {
		bet, err := betDAOToDomain(row)
		if err != nil {
			return nil, err
		}
		bets = append(bets, bet)
	}

	return bets, nil
}
