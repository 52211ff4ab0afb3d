package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type AccountStore interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	FindByID(ctx context.Context, id uint) (domain.Account, error)
	FindByExternalID(ctx context.Context, externalID string) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
}

type PlayerBetStore interface {
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]domain.Bet, error)
	StatsByAccount(ctx context.Context, accountID uint) (domain.PlayerStats, error)
}

type AccountService struct {
	repo   AccountStore
	bets   PlayerBetStore
	ledger *LedgerService
	now    func() time.Time
}

func NewAccountService(repo AccountStore, bets PlayerBetStore, ledger *LedgerService) *AccountService {
	return &AccountService{
		repo:   repo,
		bets:   bets,
		ledger: ledger,
		now:    time.Now,
	}
}

// Register returns the account for externalID, creating it on first sight.
func (s *AccountService) Register(ctx context.Context, externalID, name string) (domain.Account, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return domain.Account{}, fmt.Errorf("%w: empty external id", ErrAccountNotFound)
	}

	found, err := s.repo.FindByExternalID(ctx, externalID)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return domain.Account{}, fmt.Errorf("s.repo.FindByExternalID -> %w", err)
	}

	account := domain.Account{ExternalID: externalID}
	account.ApplyProfile(domain.Profile{Name: name})
	if account.Name == "" {
		account.Name = externalID
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return s.Get(ctx, externalID)
		}

		return domain.Account{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AccountService) Get(ctx context.Context, externalID string) (domain.Account, error) {
	account, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.FindByExternalID -> %w", err)
	}

	return account, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, externalID string, profile domain.Profile) (domain.Account, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return domain.Account{}, err
	}
	if account.Archived {
		return domain.Account{}, ErrAccountArchived
	}

	account.ApplyProfile(profile)

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *AccountService) Archive(ctx context.Context, externalID string) (domain.Account, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return domain.Account{}, err
	}
	if account.Archived {
		return account, nil
	}

	account.Archive(s.now())

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *AccountService) SetGatewayCustomer(ctx context.Context, account domain.Account, customerID string) (domain.Account, error) {
	account.GatewayCustomerID = customerID

	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return domain.Account{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *AccountService) Balance(ctx context.Context, externalID string) (domain.Money, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return 0, err
	}

	balance, err := s.ledger.BalanceOf(ctx, account.ID)
	if err != nil {
		return 0, fmt.Errorf("s.ledger.BalanceOf -> %w", err)
	}

	return balance, nil
}

func (s *AccountService) History(ctx context.Context, externalID string, limit int) ([]domain.LedgerEntry, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}

	entries, err := s.ledger.History(ctx, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.ledger.History -> %w", err)
	}

	return entries, nil
}

func (s *AccountService) PlayerStats(ctx context.Context, externalID string) (domain.PlayerStats, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return domain.PlayerStats{}, err
	}

	stats, err := s.bets.StatsByAccount(ctx, account.ID)
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("s.bets.StatsByAccount -> %w", err)
	}

	stats.Net = stats.TotalWon - stats.TotalSpent
	if stats.TotalBets > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.TotalBets) * 100
	}

	return stats, nil
}

func (s *AccountService) PlayerBets(ctx context.Context, externalID string, limit int) ([]domain.Bet, error) {
	account, err := s.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	bets, err := s.bets.ListByAccount(ctx, account.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.bets.ListByAccount -> %w", err)
	}

	return bets, nil
}
