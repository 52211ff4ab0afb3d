package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/service"
)

type Reconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type ResultsRefresher interface {
	Refresh(ctx context.Context) (service.LatestResult, error)
}

type Schedule struct {
	Reconcile          string
	ReconcileOlderThan time.Duration
	Results            string
}

// Register adds the reconcile and results jobs. An empty spec leaves that job out.
func Register(r *Runner, s Schedule, payments Reconciler, results ResultsRefresher) error {
	if s.Reconcile != "" && payments != nil {
		_, err := r.Add("reconcile_pending_deposits", s.Reconcile, func(ctx context.Context) error {
			n, err := payments.ReconcilePending(ctx, s.ReconcileOlderThan)
			if err != nil {
				return err
			}
			if n > 0 {
				r.logger.Info("pending deposits reconciled", zap.Int("count", n))
			}

			return nil
		})
		if err != nil {
			return fmt.Errorf("r.Add -> %w", err)
		}
	}

	if s.Results != "" && results != nil {
		_, err := r.Add("refresh_official_results", s.Results, func(ctx context.Context) error {
			_, err := results.Refresh(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("r.Add -> %w", err)
		}
	}

	return nil
}
