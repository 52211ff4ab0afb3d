package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

const defaultHistoryLimit = 20

type LedgerStore interface {
	WithAccount(ctx context.Context, accountID uint, fn func(tx repository.LedgerTx) error) error
	FindByGatewayID(ctx context.Context, gatewayID string) (domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]domain.LedgerEntry, error)
	ListPending(ctx context.Context, kind domain.EntryKind, before time.Time, limit int) ([]domain.LedgerEntry, error)
}

// EntryPublisher receives every entry that changed a balance, after commit.
type EntryPublisher interface {
	PublishEntry(entry domain.LedgerEntry)
}

type DebitRequest struct {
	AccountID uint
	Kind      domain.EntryKind
	Amount    domain.Money
	Key       string
	Memo      string
}

type CreditRequest struct {
	AccountID uint
	Kind      domain.EntryKind
	Amount    domain.Money
	Key       string
	Memo      string
}

type PendingRequest struct {
	AccountID uint
	Kind      domain.EntryKind
	Amount    domain.Money
	Key       string
	GatewayID string
	Memo      string
}

type CreditResult struct {
	Entry   domain.LedgerEntry
	Applied bool
}

type LedgerService struct {
	store     LedgerStore
	publisher EntryPublisher
}

func NewLedgerService(store LedgerStore) *LedgerService {
	return &LedgerService{
		store: store,
	}
}

func (s *LedgerService) SetPublisher(p EntryPublisher) {
	s.publisher = p
}

// Debit takes amount from the account. A settled entry already holding (kind, key) is returned
// together with ErrDuplicateKey and nothing is charged.
func (s *LedgerService) Debit(ctx context.Context, req DebitRequest) (domain.LedgerEntry, error) {
	if req.Amount <= 0 {
		return domain.LedgerEntry{}, ErrInvalidAmount
	}
	if req.Key == "" {
		return domain.LedgerEntry{}, fmt.Errorf("%w: missing idempotency key", ErrInvalidAmount)
	}

	var out domain.LedgerEntry
	err := s.store.WithAccount(ctx, req.AccountID, func(tx repository.LedgerTx) error {
		existing, err := tx.FindEntry(req.Kind, req.Key)
		switch {
		case err == nil:
			if existing.AccountID != req.AccountID {
				return fmt.Errorf("%w: key belongs to another account", ErrKeyConflict)
			}
			out = existing
			return ErrDuplicateKey
		case !errors.Is(err, repository.ErrEntryNotFound):
			return err
		}

		account := tx.Account()
		if account.Archived {
			return ErrAccountArchived
		}
		if account.Balance < req.Amount {
			return &domain.InsufficientFundsError{Balance: account.Balance, Required: req.Amount}
		}

		saved, err := tx.SaveEntry(domain.LedgerEntry{
			Kind:           req.Kind,
			Amount:         -req.Amount,
			Status:         domain.EntrySettled,
			IdempotencyKey: req.Key,
			Memo:           req.Memo,
		})
		if err != nil {
			return duplicateAsKey(err)
		}
		if err := tx.SetBalance(account.Balance - req.Amount); err != nil {
			return err
		}
		out = saved

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return out, fmt.Errorf("s.store.WithAccount -> %w", err)
		}

		return domain.LedgerEntry{}, fmt.Errorf("s.store.WithAccount -> %w", err)
	}

	s.publish(out)

	return out, nil
}

func (s *LedgerService) Credit(ctx context.Context, req CreditRequest) (domain.LedgerEntry, error) {
	res, err := s.ApplyCredit(ctx, req)
	if err != nil {
		return domain.LedgerEntry{}, err
	}

	return res.Entry, nil
}

// ApplyCredit is Credit that also reports whether the balance moved. A settled entry for
// (kind, key) comes back unchanged; a pending, failed or cancelled one is settled in place
// for its own amount.
func (s *LedgerService) ApplyCredit(ctx context.Context, req CreditRequest) (CreditResult, error) {
	if req.Amount <= 0 {
		return CreditResult{}, ErrInvalidAmount
	}
	if req.Key == "" {
		return CreditResult{}, fmt.Errorf("%w: missing idempotency key", ErrInvalidAmount)
	}

	var res CreditResult
	err := s.store.WithAccount(ctx, req.AccountID, func(tx repository.LedgerTx) error {
		account := tx.Account()

		entry, err := tx.FindEntry(req.Kind, req.Key)
		switch {
		case err == nil:
			if entry.AccountID != account.ID {
				return fmt.Errorf("%w: key belongs to another account", ErrKeyConflict)
			}
			if entry.IsSettled() {
				res.Entry = entry
				return nil
			}
			if err := entry.Settle(); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrEntryNotFound):
			entry = domain.LedgerEntry{
				Kind:           req.Kind,
				Amount:         req.Amount,
				Status:         domain.EntrySettled,
				IdempotencyKey: req.Key,
				Memo:           req.Memo,
			}
		default:
			return err
		}

		saved, err := tx.SaveEntry(entry)
		if err != nil {
			return duplicateAsKey(err)
		}
		if err := tx.SetBalance(account.Balance + saved.Amount); err != nil {
			return err
		}
		res = CreditResult{Entry: saved, Applied: true}

		return nil
	})
	if err != nil {
		return CreditResult{}, fmt.Errorf("s.store.WithAccount -> %w", err)
	}

	if res.Applied {
		s.publish(res.Entry)
	}

	return res, nil
}

// RecordPending writes an entry that has no balance effect until it is credited.
func (s *LedgerService) RecordPending(ctx context.Context, req PendingRequest) (domain.LedgerEntry, error) {
	if req.Amount <= 0 {
		return domain.LedgerEntry{}, ErrInvalidAmount
	}

	var out domain.LedgerEntry
	err := s.store.WithAccount(ctx, req.AccountID, func(tx repository.LedgerTx) error {
		existing, err := tx.FindEntry(req.Kind, req.Key)
		switch {
		case err == nil:
			if existing.AccountID != req.AccountID {
				return fmt.Errorf("%w: key belongs to another account", ErrKeyConflict)
			}
			out = existing
			return ErrDuplicateKey
		case !errors.Is(err, repository.ErrEntryNotFound):
			return err
		}

		saved, err := tx.SaveEntry(domain.LedgerEntry{
			Kind:           req.Kind,
			Amount:         req.Amount,
			Status:         domain.EntryPending,
			IdempotencyKey: req.Key,
			GatewayID:      req.GatewayID,
			Memo:           req.Memo,
		})
		if err != nil {
			return duplicateAsKey(err)
		}
		out = saved

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			return out, fmt.Errorf("s.store.WithAccount -> %w", err)
		}

		return domain.LedgerEntry{}, fmt.Errorf("s.store.WithAccount -> %w", err)
	}

	return out, nil
}

// MarkStatus moves a non-settled entry to FAILED or CANCELLED. Balances are untouched.
func (s *LedgerService) MarkStatus(ctx context.Context, accountID, entryID uint, status domain.EntryStatus) (domain.LedgerEntry, error) {
	var out domain.LedgerEntry
	err := s.store.WithAccount(ctx, accountID, func(tx repository.LedgerTx) error {
		entry, err := tx.FindEntryByID(entryID)
		if err != nil {
			return err
		}
		if entry.Status == status {
			out = entry
			return nil
		}
		if err := entry.Close(status); err != nil {
			return err
		}

		out, err = tx.SaveEntry(entry)

		return err
	})
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("s.store.WithAccount -> %w", err)
	}

	return out, nil
}

func (s *LedgerService) BalanceOf(ctx context.Context, accountID uint) (domain.Money, error) {
	var balance domain.Money
	err := s.store.WithAccount(ctx, accountID, func(tx repository.LedgerTx) error {
		balance = tx.Account().Balance
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("s.store.WithAccount -> %w", err)
	}

	return balance, nil
}

func (s *LedgerService) History(ctx context.Context, accountID uint, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries, err := s.store.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListByAccount -> %w", err)
	}

	return entries, nil
}

func (s *LedgerService) publish(entry domain.LedgerEntry) {
	if s.publisher == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("entry publisher panicked", zap.Any("recover", r), zap.Uint("entry_id", entry.ID))
		}
	}()
	s.publisher.PublishEntry(entry)
}

func duplicateAsKey(err error) error {
	if errors.Is(err, repository.ErrDuplicateEntry) {
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	}

	return err
}
