package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/gateway"
)

const MinDeposit domain.Money = 100

type DepositCharge struct {
	Entry      domain.LedgerEntry `json:"entry"`
	ChargeID   string             `json:"charge_id"`
	Amount     domain.Money       `json:"amount_cents"`
	QRCode     string             `json:"qr_code_base64"`
	CopyPaste  string             `json:"pix_copy_paste"`
	ExpiresAt  string             `json:"expires_at,omitempty"`
	InvoiceURL string             `json:"invoice_url,omitempty"`
}

type DepositService struct {
	accounts *AccountService
	ledger   *LedgerService
	gateway  PaymentGateway
	now      func() time.Time
}

func NewDepositService(accounts *AccountService, ledger *LedgerService, gw PaymentGateway) *DepositService {
	return &DepositService{
		accounts: accounts,
		ledger:   ledger,
		gateway:  gw,
		now:      time.Now,
	}
}

// CreateDeposit opens a PIX charge and records it as a pending deposit. Nothing is written
// locally unless the gateway accepted the charge.
func (s *DepositService) CreateDeposit(ctx context.Context, externalID string, amount domain.Money) (DepositCharge, error) {
	if amount < MinDeposit {
		return DepositCharge{}, fmt.Errorf("%w: minimum deposit is %s", ErrInvalidAmount, MinDeposit)
	}

	account, err := s.accounts.Get(ctx, externalID)
	if err != nil {
		return DepositCharge{}, fmt.Errorf("s.accounts.Get -> %w", err)
	}
	if account.Archived {
		return DepositCharge{}, ErrAccountArchived
	}
	if account.TaxID == "" {
		return DepositCharge{}, ErrProfileIncomplete
	}

	customerID, err := s.customerFor(ctx, account)
	if err != nil {
		return DepositCharge{}, err
	}

	charge, err := s.gateway.CreateCharge(ctx, gateway.ChargeInput{
		CustomerID:        customerID,
		Value:             amount,
		DueDate:           s.now().AddDate(0, 0, 1),
		Description:       fmt.Sprintf("PowerPix deposit %s", amount),
		ExternalReference: uuid.NewString(),
	})
	if err != nil {
		return DepositCharge{}, fmt.Errorf("%w: s.gateway.CreateCharge -> %w", ErrRemoteGatewayUnavailable, err)
	}

	entry, err := s.ledger.RecordPending(ctx, PendingRequest{
		AccountID: account.ID,
		Kind:      domain.EntryDeposit,
		Amount:    amount,
		Key:       charge.ID,
		GatewayID: charge.ID,
		Memo:      "PIX deposit",
	})
	if err != nil {
		return DepositCharge{}, fmt.Errorf("s.ledger.RecordPending -> %w", err)
	}

	out := DepositCharge{
		Entry:      entry,
		ChargeID:   charge.ID,
		Amount:     amount,
		InvoiceURL: charge.InvoiceURL,
	}

	qr, err := s.gateway.PixQRCode(ctx, charge.ID)
	if err != nil {
		// The pending entry stays, so a payment made through the invoice link is still credited.
		zap.L().Warn("pix qr code unavailable", zap.String("gateway_id", charge.ID), zap.Error(err))
		return out, fmt.Errorf("%w: s.gateway.PixQRCode -> %w", ErrRemoteGatewayUnavailable, err)
	}
	out.QRCode = qr.EncodedImage
	out.CopyPaste = qr.Payload
	out.ExpiresAt = qr.ExpirationDate

	return out, nil
}

func (s *DepositService) customerFor(ctx context.Context, account domain.Account) (string, error) {
	if account.GatewayCustomerID != "" {
		return account.GatewayCustomerID, nil
	}

	customer, err := s.gateway.FindCustomerByExternalRef(ctx, account.ExternalID)
	if err != nil {
		if !errors.Is(err, gateway.ErrCustomerNotFound) {
			return "", fmt.Errorf("%w: s.gateway.FindCustomerByExternalRef -> %w", ErrRemoteGatewayUnavailable, err)
		}

		customer, err = s.gateway.CreateCustomer(ctx, gateway.CustomerInput{
			Name:              account.Name,
			CpfCnpj:           account.TaxID,
			Phone:             account.Phone,
			ExternalReference: account.ExternalID,
		})
		if err != nil {
			return "", fmt.Errorf("%w: s.gateway.CreateCustomer -> %w", ErrRemoteGatewayUnavailable, err)
		}
	}

	if _, err := s.accounts.SetGatewayCustomer(ctx, account, customer.ID); err != nil {
		zap.L().Warn("caching gateway customer id failed", zap.Uint("account_id", account.ID), zap.Error(err))
	}

	return customer.ID, nil
}
