package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/gateway"
	"github.com/powerpix/powerpix-api/internal/repository/memory"
)

var (
	officialWhite   = []int{3, 14, 27, 41, 62}
	officialSpecial = []int{9}
)

type fixture struct {
	store      *memory.Store
	ledger     *LedgerService
	accounts   *AccountService
	pricing    *PricingService
	contests   *ContestService
	settlement *SettlementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{store: store}
	f.ledger = NewLedgerService(store.Ledger())
	f.accounts = NewAccountService(store.Accounts(), store.Bets(), f.ledger)
	f.pricing = NewPricingService(store.Prices(), domain.DefaultPriceConfig())
	f.contests = NewContestService(store.Rounds(), store.Bets(), f.accounts, f.ledger, f.pricing)
	f.settlement = NewSettlementService(f.contests, store.Bets(), f.ledger, 4)

	return f
}

// funded registers an account and deposits amount into it.
func (f *fixture) funded(t *testing.T, externalID string, amount domain.Money) domain.Account {
	t.Helper()

	account, err := f.accounts.Register(context.Background(), externalID, "Player "+externalID)
	require.NoError(t, err)
	if amount > 0 {
		_, err = f.ledger.Credit(context.Background(), CreditRequest{
			AccountID: account.ID,
			Kind:      domain.EntryDeposit,
			Amount:    amount,
			Key:       "seed:" + externalID,
		})
		require.NoError(t, err)
	}

	return account
}

func (f *fixture) balance(t *testing.T, accountID uint) domain.Money {
	t.Helper()

	b, err := f.ledger.BalanceOf(context.Background(), accountID)
	require.NoError(t, err)

	return b
}

func (f *fixture) contest(t *testing.T, pool, price domain.Money) domain.Contest {
	t.Helper()

	c, err := f.contests.CreateContest(context.Background(), ContestInput{Title: "Weekly", Pool: pool, UnitPrice: price})
	require.NoError(t, err)

	return c
}

// winningPick covers every official number.
func winningPick() ([]int, []int) {
	white := append([]int(nil), officialWhite...)
	for n := 1; len(white) < domain.PlayerWhiteCount; n++ {
		if !contains(white, n) {
			white = append(white, n)
		}
	}

	return white, []int{1, 2, 9, 20, 26}
}

// nearMissPick covers the white numbers but not the special one.
func nearMissPick() ([]int, []int) {
	white, _ := winningPick()

	return white, []int{1, 2, 3, 4, 5}
}

func losingPick() ([]int, []int) {
	white := make([]int, 0, domain.PlayerWhiteCount)
	for n := 43; len(white) < domain.PlayerWhiteCount; n++ {
		if n != 62 {
			white = append(white, n)
		}
	}

	return white, []int{10, 11, 12, 13, 14}
}

func contains(nums []int, n int) bool {
	for _, v := range nums {
		if v == n {
			return true
		}
	}

	return false
}

func official(t *testing.T) domain.OfficialNumbers {
	t.Helper()

	n, err := domain.NewOfficialNumbers(officialWhite, officialSpecial)
	require.NoError(t, err)

	return n
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, in gateway.CustomerInput) (gateway.Customer, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(gateway.Customer), args.Error(1)
}

func (m *mockGateway) FindCustomerByExternalRef(ctx context.Context, ref string) (gateway.Customer, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(gateway.Customer), args.Error(1)
}

func (m *mockGateway) CreateCharge(ctx context.Context, in gateway.ChargeInput) (gateway.Charge, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(gateway.Charge), args.Error(1)
}

func (m *mockGateway) PixQRCode(ctx context.Context, paymentID string) (gateway.PixQRCode, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(gateway.PixQRCode), args.Error(1)
}

func (m *mockGateway) PaymentStatus(ctx context.Context, paymentID string) (gateway.Charge, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(gateway.Charge), args.Error(1)
}

type recordingPublisher struct {
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

func (p *recordingPublisher) PublishEntry(entry domain.LedgerEntry) {
	p.mu.Lock()
	p.entries = append(p.entries, entry)
	p.mu.Unlock()
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
