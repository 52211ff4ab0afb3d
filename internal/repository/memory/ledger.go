package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type LedgerRepository struct {
	s *Store
}

// WithAccount holds the account's lock while fn runs and commits the staged writes only when fn returns nil.
func (r *LedgerRepository) WithAccount(_ context.Context, accountID uint, fn func(tx repository.LedgerTx) error) error {
	unlock := r.s.accountLocks.Lock(accountID)
	defer unlock()

	r.s.mu.RLock()
	account, ok := r.s.accounts[accountID]
	r.s.mu.RUnlock()
	if !ok {
		return repository.ErrAccountNotFound
	}

	tx := &ledgerTx{
		s:       r.s,
		account: account,
		staged:  make(map[uint]domain.LedgerEntry),
	}
	if err := fn(tx); err != nil {
		return err
	}

	return tx.commit()
}

func (r *LedgerRepository) FindByGatewayID(_ context.Context, gatewayID string) (domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.entries {
		if e.GatewayID != "" && e.GatewayID == gatewayID {
			return e, nil
		}
	}

	return domain.LedgerEntry{}, repository.ErrEntryNotFound
}

func (r *LedgerRepository) ListByAccount(_ context.Context, accountID uint, limit int) ([]domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.LedgerEntry
	for _, e := range r.s.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return truncate(out, limit), nil
}

func (r *LedgerRepository) ListPending(_ context.Context, kind domain.EntryKind, before time.Time, limit int) ([]domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.LedgerEntry
	for _, e := range r.s.entries {
		if e.Kind == kind && e.Status == domain.EntryPending && e.GatewayID != "" && e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return truncate(out, limit), nil
}

type ledgerTx struct {
	s       *Store
	account domain.Account
	staged  map[uint]domain.LedgerEntry
	dirty   bool
}

func (t *ledgerTx) Account() domain.Account {
	return t.account
}

func (t *ledgerTx) FindEntry(kind domain.EntryKind, key string) (domain.LedgerEntry, error) {
	for _, e := range t.staged {
		if e.Kind == kind && e.IdempotencyKey == key {
			return e, nil
		}
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	for _, e := range t.s.entries {
		if e.Kind == kind && e.IdempotencyKey == key {
			return e, nil
		}
	}

	return domain.LedgerEntry{}, repository.ErrEntryNotFound
}

func (t *ledgerTx) FindEntryByID(id uint) (domain.LedgerEntry, error) {
	if e, ok := t.staged[id]; ok {
		return e, nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	e, ok := t.s.entries[id]
	if !ok || e.AccountID != t.account.ID {
		return domain.LedgerEntry{}, repository.ErrEntryNotFound
	}

	return e, nil
}

func (t *ledgerTx) SaveEntry(entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if err := t.checkUnique(entry); err != nil {
		return domain.LedgerEntry{}, err
	}

	now := t.s.now()
	entry.AccountID = t.account.ID
	if entry.ID == 0 {
		t.s.nextEntry++
		entry.ID = t.s.nextEntry
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	t.staged[entry.ID] = entry

	return entry, nil
}

func (t *ledgerTx) SetBalance(balance domain.Money) error {
	if balance < 0 {
		return fmt.Errorf("balance %s: %w", balance, domain.ErrInsufficientFunds)
	}
	t.account.Balance = balance
	t.dirty = true

	return nil
}

// checkUnique mirrors the (kind, key) and gateway id unique indexes. Caller holds s.mu.
func (t *ledgerTx) checkUnique(entry domain.LedgerEntry) error {
	clash := func(e domain.LedgerEntry) bool {
		if e.ID == entry.ID {
			return false
		}
		if e.Kind == entry.Kind && e.IdempotencyKey == entry.IdempotencyKey {
			return true
		}
		return entry.GatewayID != "" && e.GatewayID == entry.GatewayID
	}

	for _, e := range t.s.entries {
		if clash(e) {
			return repository.ErrDuplicateEntry
		}
	}
	for _, e := range t.staged {
		if clash(e) {
			return repository.ErrDuplicateEntry
		}
	}

	return nil
}

func (t *ledgerTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, e := range t.staged {
		if err := t.checkUnique(e); err != nil {
			return err
		}
	}
	for id, e := range t.staged {
		t.s.entries[id] = e
	}

	if t.dirty {
		account, ok := t.s.accounts[t.account.ID]
		if !ok {
			return repository.ErrAccountNotFound
		}
		account.Balance = t.account.Balance
		account.UpdatedAt = t.s.now()
		t.s.accounts[account.ID] = account
	}

	return nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}
