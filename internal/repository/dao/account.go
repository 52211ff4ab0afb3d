package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

type Account struct {
	ID uint `gorm:"primaryKey"`

	ExternalID   string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	BalanceCents int64  `gorm:"not null;default:0;check:chk_accounts_balance,balance_cents >= 0"`

	TaxID             string
	PixKey            string
	Phone             string
	City              string
	State             string
	ProfileComplete   bool `gorm:"not null;default:false"`
	GatewayCustomerID string

	Archived   bool `gorm:"not null;default:false;index"`
	ArchivedAt *time.Time

	Entries []LedgerEntry `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Account) TableName() string {
	return "accounts"
}

type AccountDAO struct {
	db *gorm.DB
}

func NewAccountDAO(db *gorm.DB) *AccountDAO {
	return &AccountDAO{
		db: db,
	}
}

func (d *AccountDAO) Insert(ctx context.Context, account Account) (Account, error) {
	result := d.db.WithContext(ctx).Create(&account)
	if result.Error != nil {
		if isUniqueViolation(result.Error, "idx_accounts_external_id") {
			return Account{}, ErrAccountExists
		}

		return Account{}, result.Error
	}

	return account, nil
}

func (d *AccountDAO) FindByID(ctx context.Context, id uint) (Account, error) {
	var account Account

	result := d.db.WithContext(ctx).First(&account, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, result.Error
	}

	return account, nil
}

func (d *AccountDAO) FindByExternalID(ctx context.Context, externalID string) (Account, error) {
	var account Account

	result := d.db.WithContext(ctx).First(&account, "external_id = ?", externalID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Account{}, ErrAccountNotFound
		}

		return Account{}, result.Error
	}

	return account, nil
}

// UpdateProfile writes everything but the balance, which only the ledger touches.
func (d *AccountDAO) UpdateProfile(ctx context.Context, account Account) (Account, error) {
	result := d.db.WithContext(ctx).
		Model(&Account{ID: account.ID}).
		Select("name", "tax_id", "pix_key", "phone", "city", "state", "profile_complete",
			"gateway_customer_id", "archived", "archived_at").
		Updates(&account)
	if result.Error != nil {
		return Account{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Account{}, ErrAccountNotFound
	}

	return d.FindByID(ctx, account.ID)
}
