package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/service"
)

type fakeReconciler struct {
	olderThan time.Duration
	calls     int
}

func (f *fakeReconciler) ReconcilePending(_ context.Context, olderThan time.Duration) (int, error) {
	f.calls++
	f.olderThan = olderThan

	return 1, nil
}

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) Refresh(context.Context) (service.LatestResult, error) {
	f.calls++
	return service.LatestResult{}, errors.New("feed down")
}

func TestRegister(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	rec := &fakeReconciler{}
	ref := &fakeRefresher{}

	err := Register(r, Schedule{Reconcile: "*/5 * * * * *", ReconcileOlderThan: time.Minute, Results: "0 0 * * * *"}, rec, ref)
	require.NoError(t, err)
	require.Len(t, r.cron.Entries(), 2)

	for _, e := range r.cron.Entries() {
		e.WrappedJob.Run()
	}
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, time.Minute, rec.olderThan)
	assert.Equal(t, 1, ref.calls)
}

func TestRegisterSkipsEmptySpecs(t *testing.T) {
	r := New(zap.NewNop(), context.Background())

	require.NoError(t, Register(r, Schedule{}, &fakeReconciler{}, &fakeRefresher{}))
	assert.Empty(t, r.cron.Entries())
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	r := New(zap.NewNop(), context.Background())

	err := Register(r, Schedule{Reconcile: "every now and then"}, &fakeReconciler{}, nil)
	assert.Error(t, err)
}

func TestRunRecoversPanics(t *testing.T) {
	r := New(zap.NewNop(), context.Background())

	assert.NotPanics(t, func() {
		r.run("boom", func(context.Context) error { panic("boom") })
	})
}
