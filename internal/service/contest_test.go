package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

func TestContestService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	white, special := winningPick()

	t.Run("charges the contest unit price", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110001", 5000)
		c := f.contest(t, 100000, 2500)

		bet, err := f.contests.PlaceBet(ctx, PlaceBetRequest{
			AccountExternalID: account.ExternalID,
			Source:            c.Ref(),
			White:             white,
			Special:           special,
			Key:               "req-1",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.Money(2500), bet.AmountPaid)
		assert.Equal(t, c.Ref(), bet.Source)
		assert.Equal(t, domain.BetWaiting, bet.Outcome())
		assert.Equal(t, domain.Money(2500), f.balance(t, account.ID))
	})

	t.Run("same key never charges twice", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110002", 5000)
		c := f.contest(t, 100000, 2500)
		req := PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white, Special: special, Key: "req-1"}

		first, err := f.contests.PlaceBet(ctx, req)
		require.NoError(t, err)
		second, err := f.contests.PlaceBet(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, domain.Money(2500), f.balance(t, account.ID))
	})

	t.Run("legacy draw uses the current price", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110003", 10000)
		_, err := f.pricing.Update(ctx, domain.PriceConfig{BasePrice: 2000, DiscountPercent: 10, PromoActive: true})
		require.NoError(t, err)
		draw, err := f.contests.CreateLegacyDraw(ctx, 50000)
		require.NoError(t, err)

		bet, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: draw.Ref(), White: white, Special: special})
		require.NoError(t, err)
		assert.Equal(t, domain.Money(1800), bet.AmountPaid)
		assert.NotEmpty(t, bet.PlacementKey)
	})

	t.Run("registers unknown players", func(t *testing.T) {
		f := newFixture(t)
		c := f.contest(t, 100000, 2500)

		_, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: "5511911110004", AccountName: "Bia", Source: c.Ref(), White: white, Special: special})
		assert.ErrorIs(t, err, ErrInsufficientFunds)

		account, err := f.accounts.Get(ctx, "5511911110004")
		require.NoError(t, err)
		assert.Equal(t, "Bia", account.Name)
	})

	t.Run("invalid selection", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110005", 5000)
		c := f.contest(t, 100000, 2500)

		_, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white[:19], Special: special})
		assert.ErrorIs(t, err, ErrInvalidSelectionCount)

		bad := append([]int(nil), white...)
		bad[0] = 70
		_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: bad, Special: special})
		assert.ErrorIs(t, err, ErrInvalidNumberRange)
		assert.Equal(t, domain.Money(5000), f.balance(t, account.ID))
	})

	t.Run("closed round", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110006", 5000)
		c := f.contest(t, 100000, 2500)
		_, err := f.contests.Deactivate(ctx, c.ID)
		require.NoError(t, err)

		_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white, Special: special})
		assert.ErrorIs(t, err, ErrContestNotOpen)
		assert.Equal(t, domain.Money(5000), f.balance(t, account.ID))
	})

	t.Run("same key on two accounts places two bets", func(t *testing.T) {
		f := newFixture(t)
		a := f.funded(t, "5511911110008", 5000)
		b := f.funded(t, "5511911110009", 5000)
		c := f.contest(t, 100000, 2500)
		lw, ls := losingPick()

		first, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: a.ExternalID, Source: c.Ref(), White: white, Special: special, Key: "req-1"})
		require.NoError(t, err)
		second, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: b.ExternalID, Source: c.Ref(), White: lw, Special: ls, Key: "req-1"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, a.ID, first.AccountID)
		assert.Equal(t, b.ID, second.AccountID)
		assert.Equal(t, lw, second.Selection.White[:])
		assert.Equal(t, domain.Money(2500), f.balance(t, a.ID))
		assert.Equal(t, domain.Money(2500), f.balance(t, b.ID))

		other := f.contest(t, 100000, 2500)
		_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: a.ExternalID, Source: other.Ref(), White: white, Special: special, Key: "req-1"})
		assert.ErrorIs(t, err, ErrKeyConflict)
		assert.Equal(t, domain.Money(2500), f.balance(t, a.ID))

		bets, err := f.contests.ListBets(ctx, other.Ref())
		require.NoError(t, err)
		assert.Empty(t, bets)
	})

	t.Run("drawn contest", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110011", 5000)
		c := f.contest(t, 100000, 2500)
		_, err := f.settlement.Settle(ctx, c.Ref(), official(t))
		require.NoError(t, err)

		_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white, Special: special})
		assert.ErrorIs(t, err, ErrContestNotOpen)
		assert.Equal(t, domain.Money(5000), f.balance(t, account.ID))
	})

	t.Run("amount below the price", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110012", 5000)
		c := f.contest(t, 100000, 2500)

		_, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white, Special: special, AmountPaid: 1})
		assert.ErrorIs(t, err, ErrInvalidAmount)

		draw, err := f.contests.CreateLegacyDraw(ctx, 50000)
		require.NoError(t, err)
		_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: draw.Ref(), White: white, Special: special, AmountPaid: 2499})
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, domain.Money(5000), f.balance(t, account.ID))

		bet, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: draw.Ref(), White: white, Special: special, AmountPaid: 3000})
		require.NoError(t, err)
		assert.Equal(t, domain.Money(3000), bet.AmountPaid)
	})

	t.Run("unknown contest", func(t *testing.T) {
		f := newFixture(t)
		account := f.funded(t, "5511911110007", 5000)

		_, err := f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: domain.ContestRef(42), White: white, Special: special})
		assert.ErrorIs(t, err, ErrContestNotFound)
	})
}

// closingBets closes the round between the debit and the attach.
type closingBets struct {
	BetStore
}

func (closingBets) Attach(context.Context, domain.Bet) (domain.Bet, error) {
	return domain.Bet{}, repository.ErrRoundClosed
}

func TestContestService_PlaceBetRefundsWhenRoundCloses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	contests := NewContestService(f.store.Rounds(), closingBets{f.store.Bets()}, f.accounts, f.ledger, f.pricing)
	account := f.funded(t, "5511911110010", 5000)
	c := f.contest(t, 100000, 2500)
	white, special := winningPick()

	_, err := contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: c.Ref(), White: white, Special: special, Key: "req-1"})
	assert.ErrorIs(t, err, ErrContestNotOpen)
	assert.Equal(t, domain.Money(5000), f.balance(t, account.ID))

	history, err := f.ledger.History(ctx, account.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestContestService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.contests.CreateContest(ctx, ContestInput{Title: "  ", Pool: 100, UnitPrice: 100})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.contests.CreateContest(ctx, ContestInput{Title: "x", Pool: 100, UnitPrice: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	c := f.contest(t, 100000, 2500)
	assert.Equal(t, domain.RoundActive, c.Status)

	off, err := f.contests.Deactivate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundInactive, off.Status)

	on, err := f.contests.Reactivate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundActive, on.Status)

	title := "Monthly"
	updated, err := f.contests.UpdateContest(ctx, c.ID, domain.ContestUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Monthly", updated.Title)

	list, err := f.contests.ListContests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.Money(100000), list[0].Contest.Pool)
}

func TestContestService_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	account := f.funded(t, "5511911110020", 10000)
	white, special := winningPick()

	_, err := f.contests.Dashboard(ctx)
	assert.ErrorIs(t, err, ErrDrawNotFound)

	draw, err := f.contests.CreateLegacyDraw(ctx, 1000)
	require.NoError(t, err)
	_, err = f.pricing.Update(ctx, domain.PriceConfig{BasePrice: 2000})
	require.NoError(t, err)
	_, err = f.contests.PlaceBet(ctx, PlaceBetRequest{AccountExternalID: account.ExternalID, Source: draw.Ref(), White: white, Special: special, AmountPaid: 2000})
	require.NoError(t, err)

	d, err := f.contests.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, draw.Ref(), d.Source)
	assert.Equal(t, 1, d.Stats.Bets)
	assert.Equal(t, domain.Money(600), d.HouseResult)
	assert.Equal(t, domain.Money(1400), d.PrizeFund)

	c := f.contest(t, 100000, 2500)
	d, err = f.contests.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Ref(), d.Source)
	assert.Equal(t, domain.Money(100000), d.PrizeFund)
}
