package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/powerpix/powerpix-api/internal/domain"
)

var (
	errNotPositive    = errors.New("must be greater than zero")
	errNegative       = errors.New("must not be negative")
	errSourceRequired = errors.New("exactly one of contest_id or draw_id is required")
)

func positiveDecimal(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if !d.IsPositive() {
		return errNotPositive
	}

	return nil
}

func nonNegativeDecimal(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() {
		return errNegative
	}

	return nil
}

type CreateContestRequest struct {
	Title       string          `json:"title"`
	PrizePool   decimal.Decimal `json:"prize_pool" swaggertype:"number"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"number"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
}

func (req *CreateContestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.PrizePool, validation.By(nonNegativeDecimal)),
		validation.Field(&req.UnitPrice, validation.By(positiveDecimal)),
	)
}

type UpdateContestRequest struct {
	Title       *string          `json:"title"`
	PrizePool   *decimal.Decimal `json:"prize_pool" swaggertype:"number"`
	UnitPrice   *decimal.Decimal `json:"unit_price" swaggertype:"number"`
	ScheduledAt *time.Time       `json:"scheduled_at"`
}

func (req *UpdateContestRequest) Validate() error {
	if req.Title != nil {
		if err := validation.Validate(*req.Title, validation.Required, validation.Length(2, 100)); err != nil {
			return err
		}
	}
	if req.PrizePool != nil && req.PrizePool.IsNegative() {
		return errNegative
	}
	if req.UnitPrice != nil && !req.UnitPrice.IsPositive() {
		return errNotPositive
	}

	return nil
}

func (req *UpdateContestRequest) Update() domain.ContestUpdate {
	u := domain.ContestUpdate{
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
	}
	if req.PrizePool != nil {
		pool := domain.MoneyFromDecimal(*req.PrizePool)
		u.Pool = &pool
	}
	if req.UnitPrice != nil {
		price := domain.MoneyFromDecimal(*req.UnitPrice)
		u.UnitPrice = &price
	}

	return u
}

type CreateDrawRequest struct {
	BasePrize decimal.Decimal `json:"base_prize" swaggertype:"number"`
}

func (req *CreateDrawRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.BasePrize, validation.By(nonNegativeDecimal)),
	)
}

// SettleRequest holds the official numbers: five white and one special.
type SettleRequest struct {
	White   []int `json:"white"`
	Special []int `json:"special"`
}

func (req *SettleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.White, validation.Required, validation.Length(domain.OfficialWhiteCount, domain.OfficialWhiteCount)),
		validation.Field(&req.Special, validation.Required, validation.Length(domain.OfficialSpecialCount, domain.OfficialSpecialCount)),
	)
}

type PlaceBetRequest struct {
	ExternalID string           `json:"external_id"`
	Name       string           `json:"name"`
	ContestID  uint             `json:"contest_id"`
	DrawID     uint             `json:"draw_id"`
	White      []int            `json:"white"`
	Special    []int            `json:"special"`
	Amount     *decimal.Decimal `json:"amount" swaggertype:"number"`
	RequestID  string           `json:"request_id"`
}

func (req *PlaceBetRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.ExternalID, validation.Required, validation.Match(externalIDExp)),
		validation.Field(&req.White, validation.Required, validation.Length(domain.PlayerWhiteCount, domain.PlayerWhiteCount)),
		validation.Field(&req.Special, validation.Required, validation.Length(domain.PlayerSpecialCount, domain.PlayerSpecialCount)),
		validation.Field(&req.RequestID, validation.Length(0, 128)),
	)
	if err != nil {
		return err
	}

	if (req.ContestID == 0) == (req.DrawID == 0) {
		return errSourceRequired
	}
	if req.Amount != nil && !req.Amount.IsPositive() {
		return errNotPositive
	}

	return nil
}

func (req *PlaceBetRequest) Source() domain.SourceRef {
	if req.ContestID != 0 {
		return domain.ContestRef(req.ContestID)
	}

	return domain.DrawRef(req.DrawID)
}

type PriceConfigRequest struct {
	BasePrice       decimal.Decimal `json:"base_price" swaggertype:"number"`
	DiscountPercent int64           `json:"discount_percent"`
	OverridePrice   decimal.Decimal `json:"override_price" swaggertype:"number"`
	PromoActive     bool            `json:"promo_active"`
}

func (req *PriceConfigRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.BasePrice, validation.By(positiveDecimal)),
		validation.Field(&req.DiscountPercent, validation.Min(0), validation.Max(100)),
		validation.Field(&req.OverridePrice, validation.By(nonNegativeDecimal)),
	)
}

func (req *PriceConfigRequest) Config() domain.PriceConfig {
	return domain.PriceConfig{
		BasePrice:       domain.MoneyFromDecimal(req.BasePrice),
		DiscountPercent: req.DiscountPercent,
		OverridePrice:   domain.MoneyFromDecimal(req.OverridePrice),
		PromoActive:     req.PromoActive,
	}
}
