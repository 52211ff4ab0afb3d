package request

import (
	"errors"

	"github.com/shopspring/decimal"
)

var errMissingPayment = errors.New("payment id is required")

// WebhookRequest is the subset of a gateway notification the reconciler reads.
type WebhookRequest struct {
	Event   string `json:"event"`
	Payment struct {
		ID    string          `json:"id"`
		Value decimal.Decimal `json:"value" swaggertype:"number"`
	} `json:"payment"`
}

func (req *WebhookRequest) Validate() error {
	if req.Payment.ID == "" {
		return errMissingPayment
	}

	return nil
}
