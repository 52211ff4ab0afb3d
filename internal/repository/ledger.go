package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

var (
	ErrEntryNotFound  = dao.ErrEntryNotFound
	ErrDuplicateEntry = dao.ErrDuplicateEntry
)

// LedgerTx is the view of one locked account handed to a WithAccount callback.
// Everything written through it commits or rolls back together.
type LedgerTx interface {
	Account() domain.Account
	FindEntry(kind domain.EntryKind, key string) (domain.LedgerEntry, error)
	FindEntryByID(id uint) (domain.LedgerEntry, error)
	SaveEntry(entry domain.LedgerEntry) (domain.LedgerEntry, error)
	SetBalance(balance domain.Money) error
}

type LedgerDAO interface {
	WithAccount(ctx context.Context, accountID uint, fn func(tx *dao.LedgerTxDAO) error) error
	FindByGatewayID(ctx context.Context, gatewayID string) (dao.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]dao.LedgerEntry, error)
	ListPending(ctx context.Context, kind string, before time.Time, limit int) ([]dao.LedgerEntry, error)
}

type LedgerRepository struct {
	dao LedgerDAO
}

func NewLedgerRepository(dao LedgerDAO) *LedgerRepository {
	return &LedgerRepository{
		dao: dao,
	}
}

func (r *LedgerRepository) WithAccount(ctx context.Context, accountID uint, fn func(tx LedgerTx) error) error {
	err := r.dao.WithAccount(ctx, accountID, func(tx *dao.LedgerTxDAO) error {
		return fn(&ledgerTx{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("r.dao.WithAccount -> %w", err)
	}

	return nil
}

func (r *LedgerRepository) FindByGatewayID(ctx context.Context, gatewayID string) (domain.LedgerEntry, error) {
	found, err := r.dao.FindByGatewayID(ctx, gatewayID)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("r.dao.FindByGatewayID -> %w", err)
	}

	return entryDAOToDomain(found), nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uint, limit int) ([]domain.LedgerEntry, error) {
	found, err := r.dao.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByAccount -> %w", err)
	}

	return entriesDAOToDomain(found), nil
}

func (r *LedgerRepository) ListPending(ctx context.Context, kind domain.EntryKind, before time.Time, limit int) ([]domain.LedgerEntry, error) {
	found, err := r.dao.ListPending(ctx, string(kind), before, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListPending -> %w", err)
	}

	return entriesDAOToDomain(found), nil
}

type ledgerTx struct {
	tx *dao.LedgerTxDAO
}

func (t *ledgerTx) Account() domain.Account {
	return accountDAOToDomain(t.tx.Account())
}

func (t *ledgerTx) FindEntry(kind domain.EntryKind, key string) (domain.LedgerEntry, error) {
	found, err := t.tx.FindEntry(string(kind), key)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("t.tx.FindEntry -> %w", err)
	}

	return entryDAOToDomain(found), nil
}

func (t *ledgerTx) FindEntryByID(id uint) (domain.LedgerEntry, error) {
	found, err := t.tx.FindEntryByID(id)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("t.tx.FindEntryByID -> %w", err)
	}

	return entryDAOToDomain(found), nil
}

func (t *ledgerTx) SaveEntry(entry domain.LedgerEntry) (domain.LedgerEntry, error) {
	saved, err := t.tx.SaveEntry(entryDomainToDAO(entry))
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("t.tx.SaveEntry -> %w", err)
	}

	return entryDAOToDomain(saved), nil
}

func (t *ledgerTx) SetBalance(balance domain.Money) error {
	if err := t.tx.SetBalance(int64(balance)); err != nil {
		return fmt.Errorf("t.tx.SetBalance -> %w", err)
	}

	return nil
}

func entryDomainToDAO(e domain.LedgerEntry) dao.LedgerEntry {
	var gatewayID *string
	if e.GatewayID != "" {
		id := e.GatewayID
		gatewayID = &id
	}

	return dao.LedgerEntry{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Kind:           string(e.Kind),
		IdempotencyKey: e.IdempotencyKey,
		AmountCents:    int64(e.Amount),
		Status:         string(e.Status),
		GatewayID:      gatewayID,
		Memo:           e.Memo,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func entryDAOToDomain(e dao.LedgerEntry) domain.LedgerEntry {
	entry := domain.LedgerEntry{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Kind:           domain.EntryKind(e.Kind),
		Amount:         domain.Money(e.AmountCents),
		Status:         domain.EntryStatus(e.Status),
		IdempotencyKey: e.IdempotencyKey,
		Memo:           e.Memo,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.GatewayID != nil {
		entry.GatewayID = *e.GatewayID
	}

	return entry
}

func entriesDAOToDomain(entries []dao.LedgerEntry) []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(entries))
	for i, e := range entries {
		out[i] = entryDAOToDomain(e)
	}

	return out
}
