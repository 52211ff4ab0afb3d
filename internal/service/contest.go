package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type RoundStore interface {
	CreateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error)
	FindContest(ctx context.Context, id uint) (domain.Contest, error)
	FindActiveContest(ctx context.Context) (domain.Contest, error)
	ListContests(ctx context.Context) ([]domain.Contest, error)
	UpdateContest(ctx context.Context, id uint, fn func(*domain.Contest) error) (domain.Contest, error)
	CreateDraw(ctx context.Context, draw domain.LegacyDraw) (domain.LegacyDraw, error)
	FindDraw(ctx context.Context, id uint) (domain.LegacyDraw, error)
	FindActiveDraw(ctx context.Context) (domain.LegacyDraw, error)
	UpdateDraw(ctx context.Context, id uint, fn func(*domain.LegacyDraw) error) (domain.LegacyDraw, error)
}

type BetStore interface {
	Attach(ctx context.Context, bet domain.Bet) (domain.Bet, error)
	FindByPlacementKey(ctx context.Context, key string) (domain.Bet, error)
	ListBySource(ctx context.Context, src domain.SourceRef) ([]domain.Bet, error)
	ApplyResults(ctx context.Context, results []domain.SettledBet) (int, error)
	StatsBySource(ctx context.Context, src domain.SourceRef) (domain.RoundStats, error)
}

type ContestInput struct {
	Title       string
	Pool        domain.Money
	UnitPrice   domain.Money
	ScheduledAt *time.Time
}

type PlaceBetRequest struct {
	AccountExternalID string
	AccountName       string
	Source            domain.SourceRef
	White             []int
	Special           []int
	AmountPaid        domain.Money
	Key               string
}

type Dashboard struct {
	Source      domain.SourceRef  `json:"source"`
	Stats       domain.RoundStats `json:"stats"`
	PrizeFund   domain.Money      `json:"prize_fund_cents"`
	HouseResult domain.Money      `json:"house_result_cents"`
}

type ContestService struct {
	rounds   RoundStore
	bets     BetStore
	accounts *AccountService
	ledger   *LedgerService
	pricing  *PricingService
	now      func() time.Time
}

func NewContestService(rounds RoundStore, bets BetStore, accounts *AccountService, ledger *LedgerService, pricing *PricingService) *ContestService {
	return &ContestService{
		rounds:   rounds,
		bets:     bets,
		accounts: accounts,
		ledger:   ledger,
		pricing:  pricing,
		now:      time.Now,
	}
}

func (s *ContestService) CreateContest(ctx context.Context, in ContestInput) (domain.Contest, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Contest{}, fmt.Errorf("%w: title is required", ErrInvalidAmount)
	}
	if in.Pool < 0 || in.UnitPrice <= 0 {
		return domain.Contest{}, ErrInvalidAmount
	}

	created, err := s.rounds.CreateContest(ctx, domain.Contest{
		Title:       title,
		Pool:        in.Pool,
		UnitPrice:   in.UnitPrice,
		ScheduledAt: in.ScheduledAt,
		Round:       domain.NewRound(),
	})
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.rounds.CreateContest -> %w", err)
	}

	return created, nil
}

func (s *ContestService) UpdateContest(ctx context.Context, id uint, u domain.ContestUpdate) (domain.Contest, error) {
	updated, err := s.rounds.UpdateContest(ctx, id, func(c *domain.Contest) error {
		return c.Apply(u)
	})
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.rounds.UpdateContest -> %w", err)
	}

	return updated, nil
}

func (s *ContestService) Deactivate(ctx context.Context, id uint) (domain.Contest, error) {
	updated, err := s.rounds.UpdateContest(ctx, id, func(c *domain.Contest) error {
		return c.Deactivate()
	})
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.rounds.UpdateContest -> %w", err)
	}

	return updated, nil
}

func (s *ContestService) Reactivate(ctx context.Context, id uint) (domain.Contest, error) {
	updated, err := s.rounds.UpdateContest(ctx, id, func(c *domain.Contest) error {
		return c.Reactivate()
	})
	if err != nil {
		return domain.Contest{}, fmt.Errorf("s.rounds.UpdateContest -> %w", err)
	}

	return updated, nil
}

func (s *ContestService) GetContest(ctx context.Context, id uint) (domain.ContestSummary, error) {
	contest, err := s.rounds.FindContest(ctx, id)
	if err != nil {
		return domain.ContestSummary{}, fmt.Errorf("s.rounds.FindContest -> %w", err)
	}

	return s.summarize(ctx, contest)
}

func (s *ContestService) ListContests(ctx context.Context) ([]domain.ContestSummary, error) {
	contests, err := s.rounds.ListContests(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.rounds.ListContests -> %w", err)
	}

	out := make([]domain.ContestSummary, 0, len(contests))
	for _, c := range contests {
		summary, err := s.summarize(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}

	return out, nil
}

func (s *ContestService) summarize(ctx context.Context, c domain.Contest) (domain.ContestSummary, error) {
	stats, err := s.bets.StatsBySource(ctx, c.Ref())
	if err != nil {
		return domain.ContestSummary{}, fmt.Errorf("s.bets.StatsBySource -> %w", err)
	}

	return domain.ContestSummary{
		Contest:     c,
		Stats:       stats,
		HouseResult: c.HouseResult(stats.Revenue),
	}, nil
}

func (s *ContestService) CreateLegacyDraw(ctx context.Context, basePrize domain.Money) (domain.LegacyDraw, error) {
	if basePrize < 0 {
		return domain.LegacyDraw{}, ErrInvalidAmount
	}

	created, err := s.rounds.CreateDraw(ctx, domain.NewLegacyDraw(basePrize))
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("s.rounds.CreateDraw -> %w", err)
	}

	return created, nil
}

func (s *ContestService) CurrentLegacyDraw(ctx context.Context) (domain.LegacyDraw, error) {
	draw, err := s.rounds.FindActiveDraw(ctx)
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("s.rounds.FindActiveDraw -> %w", err)
	}

	return draw, nil
}

// Dashboard reports the open round: the active contest if there is one, otherwise the open legacy draw.
func (s *ContestService) Dashboard(ctx context.Context) (Dashboard, error) {
	var source domain.SettlementSource

	contest, err := s.rounds.FindActiveContest(ctx)
	switch {
	case err == nil:
		source = &contest
	case errors.Is(err, repository.ErrContestNotFound):
		draw, err := s.rounds.FindActiveDraw(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("s.rounds.FindActiveDraw -> %w", err)
		}
		source = &draw
	default:
		return Dashboard{}, fmt.Errorf("s.rounds.FindActiveContest -> %w", err)
	}

	stats, err := s.bets.StatsBySource(ctx, source.Ref())
	if err != nil {
		return Dashboard{}, fmt.Errorf("s.bets.StatsBySource -> %w", err)
	}

	d := Dashboard{Source: source.Ref(), Stats: stats}
	switch src := source.(type) {
	case *domain.Contest:
		d.PrizeFund = src.Pool
		d.HouseResult = src.HouseResult(stats.Revenue)
	case *domain.LegacyDraw:
		d.PrizeFund = src.PrizeFund(stats.Revenue)
		d.HouseResult = src.HouseCut(stats.Revenue)
	}

	return d, nil
}

// LoadSource fetches the contest or legacy draw a reference points at.
func (s *ContestService) LoadSource(ctx context.Context, ref domain.SourceRef) (domain.SettlementSource, error) {
	switch ref.Kind {
	case domain.SourceContest:
		c, err := s.rounds.FindContest(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("s.rounds.FindContest -> %w", err)
		}
		return &c, nil
	case domain.SourceDraw:
		d, err := s.rounds.FindDraw(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("s.rounds.FindDraw -> %w", err)
		}
		return &d, nil
	}

	return nil, fmt.Errorf("unknown source kind %q: %w", ref.Kind, ErrContestNotFound)
}

// PlaceBet charges the account and attaches the bet. Retrying with the same key never charges
// twice. Keys are scoped to the account; a key reused for another round is a conflict.
func (s *ContestService) PlaceBet(ctx context.Context, req PlaceBetRequest) (domain.Bet, error) {
	selection, err := domain.NewSelection(req.White, req.Special)
	if err != nil {
		return domain.Bet{}, err
	}

	account, err := s.accounts.Register(ctx, req.AccountExternalID, req.AccountName)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("s.accounts.Register -> %w", err)
	}

	key := uuid.NewString()
	if req.Key != "" {
		key = placementKey(account.ID, req.Key)
		existing, err := s.bets.FindByPlacementKey(ctx, key)
		if err == nil {
			return replayed(existing, req.Source)
		}
		if !errors.Is(err, repository.ErrBetNotFound) {
			return domain.Bet{}, fmt.Errorf("s.bets.FindByPlacementKey -> %w", err)
		}
	}

	if account.Archived {
		return domain.Bet{}, ErrAccountArchived
	}

	source, err := s.LoadSource(ctx, req.Source)
	if err != nil {
		return domain.Bet{}, err
	}
	if !source.State().AcceptsBets() {
		return domain.Bet{}, ErrContestNotOpen
	}

	price, err := s.priceOf(ctx, source)
	if err != nil {
		return domain.Bet{}, err
	}
	amount := req.AmountPaid
	if amount == 0 {
		amount = price
	}
	if amount <= 0 || amount < price {
		return domain.Bet{}, fmt.Errorf("%w: %s is below the price of %s", ErrInvalidAmount, amount, price)
	}

	_, err = s.ledger.Debit(ctx, DebitRequest{
		AccountID: account.ID,
		Kind:      domain.EntryBet,
		Amount:    amount,
		Key:       key,
		Memo:      fmt.Sprintf("bet on %s", source.Ref()),
	})
	if err != nil && !errors.Is(err, ErrDuplicateKey) {
		return domain.Bet{}, fmt.Errorf("s.ledger.Debit -> %w", err)
	}
	if err != nil {
		// Charged by an earlier attempt; attach the bet if that attempt stopped short.
		existing, ferr := s.bets.FindByPlacementKey(ctx, key)
		if ferr == nil {
			return replayed(existing, req.Source)
		}
		if !errors.Is(ferr, repository.ErrBetNotFound) {
			return domain.Bet{}, fmt.Errorf("s.bets.FindByPlacementKey -> %w", ferr)
		}
	}

	attached, err := s.bets.Attach(ctx, domain.Bet{
		AccountID:    account.ID,
		Source:       source.Ref(),
		PlacementKey: key,
		Selection:    selection,
		AmountPaid:   amount,
		PlacedAt:     s.now(),
	})
	switch {
	case err == nil:
		return attached, nil
	case errors.Is(err, repository.ErrDuplicateBet):
		existing, ferr := s.bets.FindByPlacementKey(ctx, key)
		if ferr != nil {
			return domain.Bet{}, fmt.Errorf("s.bets.FindByPlacementKey -> %w", ferr)
		}
		return replayed(existing, req.Source)
	case errors.Is(err, repository.ErrRoundClosed):
		s.refund(ctx, account.ID, amount, key)
		return domain.Bet{}, ErrContestNotOpen
	}

	return domain.Bet{}, fmt.Errorf("s.bets.Attach -> %w", err)
}

func placementKey(accountID uint, requestID string) string {
	return fmt.Sprintf("account:%d:%s", accountID, requestID)
}

// replayed returns the bet stored under a reused key, provided it was placed on the same round.
func replayed(existing domain.Bet, source domain.SourceRef) (domain.Bet, error) {
	if existing.Source != source {
		return domain.Bet{}, fmt.Errorf("%w: key already placed a bet on %s", ErrKeyConflict, existing.Source)
	}

	return existing, nil
}

// refund gives back a debit whose bet could not be attached because the round closed in between.
func (s *ContestService) refund(ctx context.Context, accountID uint, amount domain.Money, key string) {
	_, err := s.ledger.Credit(ctx, CreditRequest{
		AccountID: accountID,
		Kind:      domain.EntryBet,
		Amount:    amount,
		Key:       "refund:" + key,
		Memo:      "round closed before bet was attached",
	})
	if err != nil {
		zap.L().Error("bet refund failed",
			zap.Uint("account_id", accountID),
			zap.String("placement_key", key),
			zap.Error(err))
	}
}

func (s *ContestService) priceOf(ctx context.Context, source domain.SettlementSource) (domain.Money, error) {
	if c, ok := source.(*domain.Contest); ok {
		return c.UnitPrice, nil
	}

	price, err := s.pricing.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("s.pricing.Current -> %w", err)
	}

	return price, nil
}

func (s *ContestService) ListBets(ctx context.Context, ref domain.SourceRef) ([]domain.Bet, error) {
	bets, err := s.bets.ListBySource(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("s.bets.ListBySource -> %w", err)
	}

	return bets, nil
}

// MarkDrawn closes the round and records the official numbers in one committed step.
// A round already DRAWN with the same numbers and not yet settled is returned as is.
func (s *ContestService) MarkDrawn(ctx context.Context, ref domain.SourceRef, numbers domain.OfficialNumbers) (domain.SettlementSource, error) {
	at := s.now()

	switch ref.Kind {
	case domain.SourceContest:
		c, err := s.rounds.UpdateContest(ctx, ref.ID, func(c *domain.Contest) error {
			return c.MarkDrawn(numbers, at)
		})
		if err != nil {
			return nil, fmt.Errorf("s.rounds.UpdateContest -> %w", err)
		}
		return &c, nil
	case domain.SourceDraw:
		d, err := s.rounds.UpdateDraw(ctx, ref.ID, func(d *domain.LegacyDraw) error {
			return d.MarkDrawn(numbers, at)
		})
		if err != nil {
			return nil, fmt.Errorf("s.rounds.UpdateDraw -> %w", err)
		}
		return &d, nil
	}

	return nil, fmt.Errorf("unknown source kind %q: %w", ref.Kind, ErrContestNotFound)
}

// MarkSettled flags the round drawn once every winner has been paid.
func (s *ContestService) MarkSettled(ctx context.Context, ref domain.SourceRef) error {
	at := s.now()

	var err error
	switch ref.Kind {
	case domain.SourceContest:
		_, err = s.rounds.UpdateContest(ctx, ref.ID, func(c *domain.Contest) error {
			return c.MarkSettled(at)
		})
	case domain.SourceDraw:
		_, err = s.rounds.UpdateDraw(ctx, ref.ID, func(d *domain.LegacyDraw) error {
			return d.MarkSettled(at)
		})
	default:
		err = ErrContestNotFound
	}
	if err != nil {
		return fmt.Errorf("s.rounds.Update -> %w", err)
	}

	return nil
}
