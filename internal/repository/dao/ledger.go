package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrEntryNotFound  = errors.New("ledger entry not found")
	ErrDuplicateEntry = errors.New("ledger entry already exists")
)

type LedgerEntry struct {
	ID        uint `gorm:"primaryKey"`
	AccountID uint `gorm:"not null;index"`

	Kind           string  `gorm:"not null;uniqueIndex:idx_entries_kind_key,priority:1"`
	IdempotencyKey string  `gorm:"not null;uniqueIndex:idx_entries_kind_key,priority:2"`
	AmountCents    int64   `gorm:"not null"`
	Status         string  `gorm:"not null;index"`
	GatewayID      *string `gorm:"uniqueIndex"`
	Memo           string

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

type LedgerDAO struct {
	db *gorm.DB
}

func NewLedgerDAO(db *gorm.DB) *LedgerDAO {
	return &LedgerDAO{
		db: db,
	}
}

// WithAccount runs fn in a transaction holding the account row lock.
// Returning an error from fn rolls everything back.
func (d *LedgerDAO) WithAccount(ctx context.Context, accountID uint, fn func(tx *LedgerTxDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Account
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, accountID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}

			return result.Error
		}

		return fn(&LedgerTxDAO{tx: tx, account: account})
	})
}

func (d *LedgerDAO) FindByGatewayID(ctx context.Context, gatewayID string) (LedgerEntry, error) {
	var entry LedgerEntry

	result := d.db.WithContext(ctx).First(&entry, "gateway_id = ?", gatewayID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LedgerEntry{}, ErrEntryNotFound
		}

		return LedgerEntry{}, result.Error
	}

	return entry, nil
}

func (d *LedgerDAO) ListByAccount(ctx context.Context, accountID uint, limit int) ([]LedgerEntry, error) {
	var entries []LedgerEntry

	result := d.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// ListPending returns PENDING entries of a kind that carry a gateway id and are older than before.
func (d *LedgerDAO) ListPending(ctx context.Context, kind string, before time.Time, limit int) ([]LedgerEntry, error) {
	var entries []LedgerEntry

	result := d.db.WithContext(ctx).
		Where("kind = ? AND status = ? AND gateway_id IS NOT NULL AND created_at < ?", kind, "PENDING", before).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

type LedgerTxDAO struct {
	tx      *gorm.DB
	account Account
}

func (t *LedgerTxDAO) Account() Account {
	return t.account
}

func (t *LedgerTxDAO) FindEntry(kind, key string) (LedgerEntry, error) {
	var entry LedgerEntry

	result := t.tx.First(&entry, "kind = ? AND idempotency_key = ?", kind, key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LedgerEntry{}, ErrEntryNotFound
		}

		return LedgerEntry{}, result.Error
	}

	return entry, nil
}

func (t *LedgerTxDAO) FindEntryByID(id uint) (LedgerEntry, error) {
	var entry LedgerEntry

	result := t.tx.First(&entry, "id = ? AND account_id = ?", id, t.account.ID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LedgerEntry{}, ErrEntryNotFound
		}

		return LedgerEntry{}, result.Error
	}

	return entry, nil
}

func (t *LedgerTxDAO) SaveEntry(entry LedgerEntry) (LedgerEntry, error) {
	entry.AccountID = t.account.ID

	var result *gorm.DB
	if entry.ID == 0 {
		result = t.tx.Create(&entry)
	} else {
		result = t.tx.Save(&entry)
	}
	if result.Error != nil {
		if isUniqueViolation(result.Error, "") {
			return LedgerEntry{}, ErrDuplicateEntry
		}

		return LedgerEntry{}, result.Error
	}

	return entry, nil
}

func (t *LedgerTxDAO) SetBalance(cents int64) error {
	result := t.tx.Model(&Account{ID: t.account.ID}).Update("balance_cents", cents)
	if result.Error != nil {
		return result.Error
	}
	t.account.BalanceCents = cents

	return nil
}
