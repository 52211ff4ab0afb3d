package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrPriceConfigNotFound = errors.New("price config not found")

const priceConfigID = 1

// PriceConfig is a single-row table.
type PriceConfig struct {
	ID                 uint  `gorm:"primaryKey"`
	BasePriceCents     int64 `gorm:"not null"`
	DiscountPercent    int64 `gorm:"not null;default:0;check:chk_price_discount,discount_percent BETWEEN 0 AND 100"`
	OverridePriceCents int64 `gorm:"not null;default:0"`
	PromoActive        bool  `gorm:"not null;default:false"`

	UpdatedAt time.Time `gorm:"not null"`
}

func (PriceConfig) TableName() string {
	return "price_config"
}

type PriceDAO struct {
	db *gorm.DB
}

func NewPriceDAO(db *gorm.DB) *PriceDAO {
	return &PriceDAO{
		db: db,
	}
}

func (d *PriceDAO) Get(ctx context.Context) (PriceConfig, error) {
	var cfg PriceConfig

	result := d.db.WithContext(ctx).First(&cfg, priceConfigID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return PriceConfig{}, ErrPriceConfigNotFound
		}

		return PriceConfig{}, result.Error
	}

	return cfg, nil
}

func (d *PriceDAO) Save(ctx context.Context, cfg PriceConfig) (PriceConfig, error) {
	cfg.ID = priceConfigID

	result := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&cfg)
	if result.Error != nil {
		return PriceConfig{}, result.Error
	}

	return cfg, nil
}
