package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/gateway"
)

func newDepositFixture(t *testing.T) (*fixture, *mockGateway, *DepositService) {
	t.Helper()

	f := newFixture(t)
	gw := &mockGateway{}
	svc := NewDepositService(f.accounts, f.ledger, gw)
	svc.now = fixedClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	return f, gw, svc
}

func (f *fixture) withProfile(t *testing.T, externalID string) domain.Account {
	t.Helper()

	f.funded(t, externalID, 0)
	account, err := f.accounts.UpdateProfile(context.Background(), externalID, domain.Profile{
		Name:   "Ana Souza",
		TaxID:  "24971563792",
		PixKey: "ana@example.com",
		Phone:  "11987654321",
		City:   "Campinas",
		State:  "SP",
	})
	require.NoError(t, err)

	return account
}

func TestDepositService_CreateDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a charge for a new gateway customer", func(t *testing.T) {
		f, gw, svc := newDepositFixture(t)
		account := f.withProfile(t, "5511944440001")

		gw.On("FindCustomerByExternalRef", mock.Anything, account.ExternalID).Return(gateway.Customer{}, gateway.ErrCustomerNotFound)
		gw.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(in gateway.CustomerInput) bool {
			return in.CpfCnpj == "24971563792" && in.ExternalReference == account.ExternalID
		})).Return(gateway.Customer{ID: "cus_000005219613"}, nil)
		gw.On("CreateCharge", mock.Anything, mock.MatchedBy(func(in gateway.ChargeInput) bool {
			return in.CustomerID == "cus_000005219613" && in.Value == 2500 &&
				in.DueDate.Equal(time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)) && in.ExternalReference != ""
		})).Return(gateway.Charge{ID: "pay_080225913252", Status: "PENDING", Value: 2500, InvoiceURL: "https://sandbox.asaas.com/i/080225913252"}, nil)
		gw.On("PixQRCode", mock.Anything, "pay_080225913252").Return(gateway.PixQRCode{
			EncodedImage:   "iVBORw0KGgo=",
			Payload:        "00020101021226820014br.gov.bcb.pix",
			ExpirationDate: "2024-03-11 23:59:59",
		}, nil)

		out, err := svc.CreateDeposit(ctx, account.ExternalID, 2500)
		require.NoError(t, err)
		assert.Equal(t, "pay_080225913252", out.ChargeID)
		assert.Equal(t, "iVBORw0KGgo=", out.QRCode)
		assert.Equal(t, "00020101021226820014br.gov.bcb.pix", out.CopyPaste)
		assert.Equal(t, domain.EntryPending, out.Entry.Status)
		assert.Equal(t, "pay_080225913252", out.Entry.GatewayID)
		assert.Equal(t, domain.Money(0), f.balance(t, account.ID))

		cached, err := f.accounts.Get(ctx, account.ExternalID)
		require.NoError(t, err)
		assert.Equal(t, "cus_000005219613", cached.GatewayCustomerID)
		gw.AssertExpectations(t)
	})

	t.Run("reuses the cached customer", func(t *testing.T) {
		f, gw, svc := newDepositFixture(t)
		account := f.withProfile(t, "5511944440002")
		account, err := f.accounts.SetGatewayCustomer(ctx, account, "cus_1")
		require.NoError(t, err)

		gw.On("CreateCharge", mock.Anything, mock.Anything).Return(gateway.Charge{ID: "pay_1"}, nil)
		gw.On("PixQRCode", mock.Anything, "pay_1").Return(gateway.PixQRCode{Payload: "pix"}, nil)

		_, err = svc.CreateDeposit(ctx, account.ExternalID, 1000)
		require.NoError(t, err)
		gw.AssertNotCalled(t, "FindCustomerByExternalRef", mock.Anything, mock.Anything)
		gw.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("qr failure keeps the pending entry", func(t *testing.T) {
		f, gw, svc := newDepositFixture(t)
		account := f.withProfile(t, "5511944440003")

		gw.On("FindCustomerByExternalRef", mock.Anything, account.ExternalID).Return(gateway.Customer{ID: "cus_2"}, nil)
		gw.On("CreateCharge", mock.Anything, mock.Anything).Return(gateway.Charge{ID: "pay_2"}, nil)
		gw.On("PixQRCode", mock.Anything, "pay_2").Return(gateway.PixQRCode{}, errors.New("503"))

		out, err := svc.CreateDeposit(ctx, account.ExternalID, 1000)
		assert.ErrorIs(t, err, ErrRemoteGatewayUnavailable)
		assert.Equal(t, "pay_2", out.ChargeID)

		entry, err := f.store.Ledger().FindByGatewayID(ctx, "pay_2")
		require.NoError(t, err)
		assert.Equal(t, domain.EntryPending, entry.Status)
	})

	t.Run("charge failure writes nothing", func(t *testing.T) {
		f, gw, svc := newDepositFixture(t)
		account := f.withProfile(t, "5511944440004")

		gw.On("FindCustomerByExternalRef", mock.Anything, account.ExternalID).Return(gateway.Customer{ID: "cus_3"}, nil)
		gw.On("CreateCharge", mock.Anything, mock.Anything).Return(gateway.Charge{}, &gateway.APIError{StatusCode: 400, Body: "invalid_value"})

		_, err := svc.CreateDeposit(ctx, account.ExternalID, 1000)
		assert.ErrorIs(t, err, ErrRemoteGatewayUnavailable)

		history, err := f.ledger.History(ctx, account.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("rejections", func(t *testing.T) {
		f, gw, svc := newDepositFixture(t)
		f.funded(t, "5511944440005", 0)
		archived := f.withProfile(t, "5511944440006")
		_, err := f.accounts.Archive(ctx, archived.ExternalID)
		require.NoError(t, err)

		_, err = svc.CreateDeposit(ctx, "5511944440005", 99)
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = svc.CreateDeposit(ctx, "5511944440005", 1000)
		assert.ErrorIs(t, err, ErrProfileIncomplete)

		_, err = svc.CreateDeposit(ctx, archived.ExternalID, 1000)
		assert.ErrorIs(t, err, ErrAccountArchived)

		_, err = svc.CreateDeposit(ctx, "5511944449999", 1000)
		assert.ErrorIs(t, err, ErrAccountNotFound)

		gw.AssertExpectations(t)
	})
}
