package repository

import (
	"context"
	"fmt"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

var ErrPriceConfigNotFound = dao.ErrPriceConfigNotFound

type PriceDAO interface {
	Get(ctx context.Context) (dao.PriceConfig, error)
	Save(ctx context.Context, cfg dao.PriceConfig) (dao.PriceConfig, error)
}

type PriceRepository struct {
	dao PriceDAO
}

func NewPriceRepository(dao PriceDAO) *PriceRepository {
	return &PriceRepository{
		dao: dao,
	}
}

func (r *PriceRepository) Get(ctx context.Context) (domain.PriceConfig, error) {
	found, err := r.dao.Get(ctx)
	if err != nil {
		return domain.PriceConfig{}, fmt.Errorf("r.dao.Get -> %w", err)
	}

	return domain.PriceConfig{
		BasePrice:       domain.Money(found.BasePriceCents),
		DiscountPercent: found.DiscountPercent,
		OverridePrice:   domain.Money(found.OverridePriceCents),
		PromoActive:     found.PromoActive,
	}, nil
}

func (r *PriceRepository) Save(ctx context.Context, cfg domain.PriceConfig) (domain.PriceConfig, error) {
	_, err := r.dao.Save(ctx, dao.PriceConfig{
		BasePriceCents:     int64(cfg.BasePrice),
		DiscountPercent:    cfg.DiscountPercent,
		OverridePriceCents: int64(cfg.OverridePrice),
		PromoActive:        cfg.PromoActive,
	})
	if err != nil {
		return domain.PriceConfig{}, fmt.Errorf("r.dao.Save -> %w", err)
	}

	return cfg, nil
}
