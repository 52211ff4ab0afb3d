package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
)

func TestSplitPool(t *testing.T) {
	tests := []struct {
		pool domain.Money
		n    int
		want []domain.Money
	}{
		{pool: 1000, n: 3, want: []domain.Money{334, 333, 333}},
		{pool: 1000, n: 1, want: []domain.Money{1000}},
		{pool: 10, n: 4, want: []domain.Money{3, 3, 2, 2}},
		{pool: 2, n: 3, want: []domain.Money{1, 1, 0}},
		{pool: 0, n: 2, want: []domain.Money{0, 0}},
		{pool: 500, n: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.pool, tt.n), func(t *testing.T) {
			got := splitPool(tt.pool, tt.n)
			assert.Equal(t, tt.want, got)

			var sum domain.Money
			for _, s := range got {
				sum += s
			}
			if tt.n > 0 {
				assert.Equal(t, tt.pool, sum)
			}
		})
	}
}

// placeAll places one bet per pick for a fresh funded account each, in order.
func placeAll(t *testing.T, f *fixture, ref domain.SourceRef, picks ...func() ([]int, []int)) []domain.Account {
	t.Helper()

	accounts := make([]domain.Account, len(picks))
	for i, pick := range picks {
		white, special := pick()
		accounts[i] = f.funded(t, fmt.Sprintf("55119222%05d", i), 10000)
		_, err := f.contests.PlaceBet(context.Background(), PlaceBetRequest{
			AccountExternalID: accounts[i].ExternalID,
			Source:            ref,
			White:             white,
			Special:           special,
			AmountPaid:        2500,
			Key:               fmt.Sprintf("bet-%d", i),
		})
		require.NoError(t, err)
	}

	return accounts
}

func TestSettlementService_SettleContest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)
	accounts := placeAll(t, f, c.Ref(), winningPick, nearMissPick, winningPick, losingPick, winningPick)

	report, err := f.settlement.Settle(ctx, c.Ref(), official(t))
	require.NoError(t, err)
	assert.Equal(t, 5, report.Bets)
	assert.Equal(t, 3, report.Winners)
	assert.Equal(t, domain.Money(12500), report.Revenue)
	assert.Equal(t, domain.Money(1000), report.Pool)

	require.Len(t, report.Payouts, 3)
	assert.Equal(t, domain.Money(334), report.Payouts[0].Amount)
	assert.Equal(t, accounts[0].ID, report.Payouts[0].AccountID)
	assert.Equal(t, domain.Money(333), report.Payouts[1].Amount)
	assert.Equal(t, accounts[2].ID, report.Payouts[1].AccountID)
	assert.Equal(t, domain.Money(333), report.Payouts[2].Amount)
	assert.Equal(t, accounts[4].ID, report.Payouts[2].AccountID)

	assert.Equal(t, domain.Money(7500+334), f.balance(t, accounts[0].ID))
	assert.Equal(t, domain.Money(7500), f.balance(t, accounts[1].ID))
	assert.Equal(t, domain.Money(7500+333), f.balance(t, accounts[2].ID))
	assert.Equal(t, domain.Money(7500), f.balance(t, accounts[3].ID))

	bets, err := f.contests.ListBets(ctx, c.Ref())
	require.NoError(t, err)
	require.Len(t, bets, 5)
	assert.Equal(t, domain.BetWon, bets[0].Outcome())
	assert.Equal(t, 1, bets[0].PrizeShareIndex)
	assert.Equal(t, domain.BetLost, bets[1].Outcome())
	assert.Equal(t, 5, bets[1].WhiteMatches)
	assert.False(t, bets[1].SpecialMatch)
	assert.False(t, bets[1].IsWinner)
	assert.Equal(t, domain.BetLost, bets[3].Outcome())
	assert.Equal(t, 0, bets[3].MatchCount)

	summary, err := f.contests.GetContest(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundDrawn, summary.Status)
	assert.True(t, summary.IsDrawn)
	require.NotNil(t, summary.Numbers)
	assert.Equal(t, official(t), *summary.Numbers)
}

func TestSettlementService_SettleTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)
	accounts := placeAll(t, f, c.Ref(), winningPick)

	_, err := f.settlement.Settle(ctx, c.Ref(), official(t))
	require.NoError(t, err)
	before, err := f.ledger.History(ctx, accounts[0].ID, 100)
	require.NoError(t, err)

	_, err = f.settlement.Settle(ctx, c.Ref(), official(t))
	assert.ErrorIs(t, err, ErrAlreadyDrawn)

	after, err := f.ledger.History(ctx, accounts[0].ID, 100)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Equal(t, domain.Money(7500+1000), f.balance(t, accounts[0].ID))
}

func TestSettlementService_ConcurrentSettle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)
	accounts := placeAll(t, f, c.Ref(), winningPick, winningPick, losingPick, winningPick)

	numbers := official(t)
	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.settlement.Settle(ctx, c.Ref(), numbers)
		}(i)
	}
	wg.Wait()

	settled := 0
	for _, err := range errs {
		if err == nil {
			settled++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyDrawn)
	}
	assert.Equal(t, 1, settled)

	assert.Equal(t, domain.Money(7500+334), f.balance(t, accounts[0].ID))
	assert.Equal(t, domain.Money(7500+333), f.balance(t, accounts[1].ID))
	assert.Equal(t, domain.Money(7500), f.balance(t, accounts[2].ID))
	assert.Equal(t, domain.Money(7500+333), f.balance(t, accounts[3].ID))

	late := f.funded(t, "5511922299999", 5000)
	white, special := winningPick()
	_, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: late.ExternalID, Source: c.Ref(), White: white, Special: special})
	assert.ErrorIs(t, err, ErrContestNotOpen)
}

func TestSettlementService_ResumesAfterPartialRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draw, err := f.contests.CreateLegacyDraw(ctx, 10000)
	require.NoError(t, err)
	accounts := placeAll(t, f, draw.Ref(), winningPick, winningPick)

	// A crash after the round was closed but before anyone was paid.
	_, err = f.contests.MarkDrawn(ctx, draw.Ref(), official(t))
	require.NoError(t, err)
	// And the first winner already paid its share before the crash.
	first := domain.Bet{ID: 1, AccountID: accounts[0].ID, Source: draw.Ref()}
	_, err = f.ledger.Credit(ctx, CreditRequest{AccountID: accounts[0].ID, Kind: domain.EntryPrize, Amount: 6750, Key: first.PrizeKey()})
	require.NoError(t, err)

	other, err := domain.NewOfficialNumbers([]int{1, 2, 3, 4, 5}, []int{6})
	require.NoError(t, err)
	_, err = f.settlement.Settle(ctx, draw.Ref(), other)
	assert.ErrorIs(t, err, ErrAlreadyDrawn)

	report, err := f.settlement.Settle(ctx, draw.Ref(), official(t))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Winners)

	// revenue 5000, house 30% -> prize fund 3500, pool 13500.
	assert.Equal(t, domain.Money(13500), report.Pool)
	assert.Equal(t, domain.Money(7500+6750), f.balance(t, accounts[0].ID))
	assert.Equal(t, domain.Money(7500+6750), f.balance(t, accounts[1].ID))

	history, err := f.ledger.History(ctx, accounts[0].ID, 100)
	require.NoError(t, err)
	prizes := 0
	for _, e := range history {
		if e.Kind == domain.EntryPrize {
			prizes++
		}
	}
	assert.Equal(t, 1, prizes)

	_, err = f.settlement.Settle(ctx, draw.Ref(), official(t))
	assert.ErrorIs(t, err, ErrAlreadyDrawn)
}

func TestSettlementService_NoWinners(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)
	placeAll(t, f, c.Ref(), nearMissPick, losingPick)

	report, err := f.settlement.Settle(ctx, c.Ref(), official(t))
	require.NoError(t, err)
	assert.Zero(t, report.Winners)
	assert.Empty(t, report.Payouts)

	summary, err := f.contests.GetContest(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(5000-1000), summary.HouseResult)
}

func TestSettlementService_RejectsInvalidNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)

	_, err := f.settlement.Settle(ctx, c.Ref(), domain.OfficialNumbers{White: [5]int{1, 2, 3, 4, 70}, Special: 1})
	assert.ErrorIs(t, err, ErrInvalidNumberRange)

	_, err = f.settlement.Settle(ctx, c.Ref(), domain.OfficialNumbers{White: [5]int{1, 1, 3, 4, 5}, Special: 1})
	assert.ErrorIs(t, err, ErrInvalidNumberRange)

	summary, err := f.contests.GetContest(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundActive, summary.Status)
}

func TestSettlementService_InactiveContest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.contest(t, 1000, 2500)
	_, err := f.contests.Deactivate(ctx, c.ID)
	require.NoError(t, err)

	_, err = f.settlement.Settle(ctx, c.Ref(), official(t))
	assert.ErrorIs(t, err, ErrContestInactive)
}
