package request

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"

	"github.com/powerpix/powerpix-api/internal/domain"
)

var (
	externalIDExp = regexp.MustCompile(`^[A-Za-z0-9_.:@+-]{1,64}$`)
	stateExp      = regexp.MustCompile(`^[A-Z]{2}$`)
)

type RegisterRequest struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ExternalID, validation.Required, validation.Match(externalIDExp)),
		validation.Field(&req.Name, validation.Length(0, 100)),
	)
}

type ProfileRequest struct {
	Name   string `json:"name"`
	TaxID  string `json:"tax_id"`
	PixKey string `json:"pix_key"`
	Phone  string `json:"phone"`
	City   string `json:"city"`
	State  string `json:"state"`
}

func (req *ProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Length(2, 100)),
		validation.Field(&req.TaxID, is.Digit, validation.Length(11, 14)),
		validation.Field(&req.PixKey, validation.Length(1, 77)),
		validation.Field(&req.Phone, is.Digit, validation.Length(10, 13)),
		validation.Field(&req.City, validation.Length(2, 80)),
		validation.Field(&req.State, validation.Match(stateExp)),
	)
}

func (req *ProfileRequest) Profile() domain.Profile {
	return domain.Profile{
		Name:   req.Name,
		TaxID:  req.TaxID,
		PixKey: req.PixKey,
		Phone:  req.Phone,
		City:   req.City,
		State:  req.State,
	}
}

// DepositRequest carries the amount in currency units, e.g. 25.50.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"number"`
}

func (req *DepositRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.By(positiveDecimal)),
	)
}

func (req *DepositRequest) Money() domain.Money {
	return domain.MoneyFromDecimal(req.Amount)
}
