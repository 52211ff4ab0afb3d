package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

func TestLedgerWithAccount(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account, err := s.Accounts().Create(ctx, domain.Account{ExternalID: "5511", Name: "Ana"})
	require.NoError(t, err)

	t.Run("commit", func(t *testing.T) {
		err := s.Ledger().WithAccount(ctx, account.ID, func(tx repository.LedgerTx) error {
			if _, err := tx.SaveEntry(domain.LedgerEntry{Kind: domain.EntryDeposit, IdempotencyKey: "pay_1", Amount: 1000, Status: domain.EntrySettled}); err != nil {
				return err
			}
			return tx.SetBalance(tx.Account().Balance + 1000)
		})
		require.NoError(t, err)

		found, err := s.Accounts().FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Money(1000), found.Balance)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Ledger().WithAccount(ctx, account.ID, func(tx repository.LedgerTx) error {
			if _, err := tx.SaveEntry(domain.LedgerEntry{Kind: domain.EntryPrize, IdempotencyKey: "x", Amount: 5, Status: domain.EntrySettled}); err != nil {
				return err
			}
			if err := tx.SetBalance(1); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := s.Accounts().FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Money(1000), found.Balance)

		entries, err := s.Ledger().ListByAccount(ctx, account.ID, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("duplicate key", func(t *testing.T) {
		err := s.Ledger().WithAccount(ctx, account.ID, func(tx repository.LedgerTx) error {
			_, err := tx.SaveEntry(domain.LedgerEntry{Kind: domain.EntryDeposit, IdempotencyKey: "pay_1", Amount: 1, Status: domain.EntryPending})
			return err
		})
		assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := s.Ledger().WithAccount(ctx, 42, func(tx repository.LedgerTx) error { return nil })
		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	})
}

func TestLedgerConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	account, err := s.Accounts().Create(ctx, domain.Account{ExternalID: "5512"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Ledger().WithAccount(ctx, account.ID, func(tx repository.LedgerTx) error {
				if _, err := tx.SaveEntry(domain.LedgerEntry{Kind: domain.EntryPrize, IdempotencyKey: fmt.Sprint(i), Amount: 10, Status: domain.EntrySettled}); err != nil {
					return err
				}
				return tx.SetBalance(tx.Account().Balance + 10)
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	found, err := s.Accounts().FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(500), found.Balance)
}

func TestBetAttachRequiresActiveRound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	contest, err := s.Rounds().CreateContest(ctx, domain.Contest{Title: "weekly", Pool: 1000, UnitPrice: 100, Round: domain.NewRound()})
	require.NoError(t, err)

	bet := domain.Bet{AccountID: 1, Source: contest.Ref(), PlacementKey: "k1", PlacedAt: time.Now()}
	_, err = s.Bets().Attach(ctx, bet)
	require.NoError(t, err)

	_, err = s.Bets().Attach(ctx, bet)
	assert.ErrorIs(t, err, repository.ErrDuplicateBet)

	_, err = s.Rounds().UpdateContest(ctx, contest.ID, func(c *domain.Contest) error { return c.Deactivate() })
	require.NoError(t, err)

	bet.PlacementKey = "k2"
	_, err = s.Bets().Attach(ctx, bet)
	assert.ErrorIs(t, err, repository.ErrRoundClosed)
}

func TestCreateDrawClosesOpenDraws(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.Rounds().CreateDraw(ctx, domain.NewLegacyDraw(1000))
	require.NoError(t, err)
	second, err := s.Rounds().CreateDraw(ctx, domain.NewLegacyDraw(2000))
	require.NoError(t, err)

	active, err := s.Rounds().FindActiveDraw(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	old, err := s.Rounds().FindDraw(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundInactive, old.Status)
}
