package memory

import (
	"context"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type AccountRepository struct {
	s *Store
}

func (r *AccountRepository) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.accounts {
		if a.ExternalID == account.ExternalID {
			return domain.Account{}, repository.ErrAccountExists
		}
	}

	r.s.nextAccount++
	now := r.s.now()
	account.ID = r.s.nextAccount
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = account

	return account, nil
}

func (r *AccountRepository) FindByID(_ context.Context, id uint) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	account, ok := r.s.accounts[id]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}

	return account, nil
}

func (r *AccountRepository) FindByExternalID(_ context.Context, externalID string) (domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.accounts {
		if a.ExternalID == externalID {
			return a, nil
		}
	}

	return domain.Account{}, repository.ErrAccountNotFound
}

// Update keeps the stored balance, which only the ledger writes.
func (r *AccountRepository) Update(_ context.Context, account domain.Account) (domain.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.accounts[account.ID]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}

	account.ExternalID = current.ExternalID
	account.Balance = current.Balance
	account.CreatedAt = current.CreatedAt
	account.UpdatedAt = r.s.now()
	r.s.accounts[account.ID] = account

	return account, nil
}
