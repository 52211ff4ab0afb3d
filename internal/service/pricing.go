package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type PriceStore interface {
	Get(ctx context.Context) (domain.PriceConfig, error)
	Save(ctx context.Context, cfg domain.PriceConfig) (domain.PriceConfig, error)
}

type PricingService struct {
	store PriceStore

	mu       sync.RWMutex
	defaults domain.PriceConfig
}

func NewPricingService(store PriceStore, defaults domain.PriceConfig) *PricingService {
	return &PricingService{
		store:    store,
		defaults: defaults,
	}
}

// SetDefaults replaces the config used while no row has been saved.
func (s *PricingService) SetDefaults(cfg domain.PriceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.defaults = cfg
	s.mu.Unlock()

	return nil
}

func (s *PricingService) Config(ctx context.Context) (domain.PriceConfig, error) {
	cfg, err := s.store.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrPriceConfigNotFound) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			return s.defaults, nil
		}

		return domain.PriceConfig{}, fmt.Errorf("s.store.Get -> %w", err)
	}

	return cfg, nil
}

func (s *PricingService) Current(ctx context.Context) (domain.Money, error) {
	cfg, err := s.Config(ctx)
	if err != nil {
		return 0, err
	}

	return domain.CurrentPrice(cfg), nil
}

func (s *PricingService) Update(ctx context.Context, cfg domain.PriceConfig) (domain.PriceConfig, error) {
	if err := cfg.Validate(); err != nil {
		return domain.PriceConfig{}, err
	}

	saved, err := s.store.Save(ctx, cfg)
	if err != nil {
		return domain.PriceConfig{}, fmt.Errorf("s.store.Save -> %w", err)
	}

	return saved, nil
}
