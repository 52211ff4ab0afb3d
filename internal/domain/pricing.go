package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const DefaultBasePrice Money = 2500

type PriceConfig struct {
	BasePrice       Money `json:"base_price_cents"`
	DiscountPercent int64 `json:"discount_percent"`
	OverridePrice   Money `json:"override_price_cents"`
	PromoActive     bool  `json:"promo_active"`
}

func DefaultPriceConfig() PriceConfig {
	return PriceConfig{BasePrice: DefaultBasePrice}
}

func (c PriceConfig) Validate() error {
	if c.BasePrice < 0 {
		return fmt.Errorf("%w: base price must not be negative", ErrInvalidPriceConfig)
	}
	if c.DiscountPercent < 0 || c.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidPriceConfig)
	}
	if c.OverridePrice < 0 {
		return fmt.Errorf("%w: override price must not be negative", ErrInvalidPriceConfig)
	}

	return nil
}

// CurrentPrice resolves the price of one pack. An active override wins over an active
// discount; the discounted price is rounded half away from zero to the cent.
func CurrentPrice(c PriceConfig) Money {
	if c.PromoActive && c.OverridePrice > 0 {
		return c.OverridePrice
	}
	if c.PromoActive && c.DiscountPercent > 0 {
		factor := decimal.NewFromInt(100 - c.DiscountPercent).Div(decimal.NewFromInt(100))
		return MoneyFromDecimal(c.BasePrice.Decimal().Mul(factor))
	}

	return c.BasePrice
}
