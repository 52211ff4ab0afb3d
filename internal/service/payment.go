package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/gateway"
	"github.com/powerpix/powerpix-api/internal/repository"
)

const (
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"

	reconcileBatch = 100
)

type Outcome string

const (
	OutcomeCredited         Outcome = "credited"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeExpired          Outcome = "expired"
	OutcomeRefunded         Outcome = "refunded"
	OutcomeUnhandled        Outcome = "unhandled"
	OutcomeIgnored          Outcome = "ignored"
)

type PaymentGateway interface {
	CreateCustomer(ctx context.Context, in gateway.CustomerInput) (gateway.Customer, error)
	FindCustomerByExternalRef(ctx context.Context, ref string) (gateway.Customer, error)
	CreateCharge(ctx context.Context, in gateway.ChargeInput) (gateway.Charge, error)
	PixQRCode(ctx context.Context, paymentID string) (gateway.PixQRCode, error)
	PaymentStatus(ctx context.Context, paymentID string) (gateway.Charge, error)
}

type GatewayEventStore interface {
	Record(ctx context.Context, event domain.GatewayEvent) (domain.GatewayEvent, error)
	List(ctx context.Context, limit int) ([]domain.GatewayEvent, error)
}

// Deduper short-circuits webhook copies that arrive while the first one is still being handled.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type WebhookEvent struct {
	Event     string
	PaymentID string
	Value     domain.Money
	Raw       []byte
}

type PaymentService struct {
	entries LedgerStore
	ledger  *LedgerService
	gateway PaymentGateway
	events  GatewayEventStore
	dedup   Deduper
	now     func() time.Time
}

func NewPaymentService(entries LedgerStore, ledger *LedgerService, gw PaymentGateway, events GatewayEventStore, dedup Deduper) *PaymentService {
	return &PaymentService{
		entries: entries,
		ledger:  ledger,
		gateway: gw,
		events:  events,
		dedup:   dedup,
		now:     time.Now,
	}
}

// HandleWebhook audits the raw delivery and reconciles it.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev WebhookEvent) (Outcome, error) {
	key := ev.Event + ":" + ev.PaymentID

	if s.dedup != nil && isCreditEvent(ev.Event) {
		claimed, err := s.dedup.Claim(ctx, key)
		if err != nil {
			zap.L().Warn("webhook dedup unavailable", zap.String("key", key), zap.Error(err))
			claimed = true
		}
		if !claimed {
			s.audit(ctx, ev, OutcomeAlreadyProcessed)
			return OutcomeAlreadyProcessed, nil
		}
	}

	outcome, err := s.OnGatewayEvent(ctx, ev.Event, ev.PaymentID, ev.Value)
	// A payment not recorded yet may still arrive; its redelivery must not hit a held claim.
	if (err != nil || outcome == OutcomeIgnored) && s.dedup != nil && isCreditEvent(ev.Event) {
		if rerr := s.dedup.Release(ctx, key); rerr != nil {
			zap.L().Warn("webhook dedup release failed", zap.String("key", key), zap.Error(rerr))
		}
	}
	s.audit(ctx, ev, outcome)

	return outcome, err
}

// OnGatewayEvent applies one gateway notification to the pending entry it refers to.
// Unknown payments are ignored rather than reported as errors.
func (s *PaymentService) OnGatewayEvent(ctx context.Context, eventType, paymentID string, reported domain.Money) (Outcome, error) {
	log := zap.L().With(zap.String("event", eventType), zap.String("gateway_id", paymentID))

	entry, err := s.entries.FindByGatewayID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			log.Warn("gateway event for unknown payment", zap.Error(ErrUnknownGatewayPayment))
			return OutcomeIgnored, nil
		}

		return "", fmt.Errorf("s.entries.FindByGatewayID -> %w", err)
	}

	switch eventType {
	case EventPaymentReceived, EventPaymentConfirmed:
		if reported != 0 && reported != entry.Amount {
			log.Warn("reported value differs from pending entry",
				zap.Stringer("reported", reported),
				zap.Stringer("expected", entry.Amount))
		}

		res, err := s.ledger.ApplyCredit(ctx, CreditRequest{
			AccountID: entry.AccountID,
			Kind:      entry.Kind,
			Amount:    entry.Amount,
			Key:       entry.IdempotencyKey,
			Memo:      entry.Memo,
		})
		if err != nil {
			return "", fmt.Errorf("s.ledger.ApplyCredit -> %w", err)
		}
		if !res.Applied {
			return OutcomeAlreadyProcessed, nil
		}
		log.Info("deposit credited", zap.Uint("account_id", entry.AccountID), zap.Stringer("amount", entry.Amount))

		return OutcomeCredited, nil

	case EventPaymentOverdue:
		return s.close(ctx, entry, domain.EntryFailed, OutcomeExpired)

	case EventPaymentRefunded:
		return s.close(ctx, entry, domain.EntryCancelled, OutcomeRefunded)
	}

	log.Info("unhandled gateway event")

	return OutcomeUnhandled, nil
}

func (s *PaymentService) close(ctx context.Context, entry domain.LedgerEntry, status domain.EntryStatus, outcome Outcome) (Outcome, error) {
	_, err := s.ledger.MarkStatus(ctx, entry.AccountID, entry.ID, status)
	if err != nil {
		if errors.Is(err, ErrEntryAlreadySettled) {
			return OutcomeAlreadyProcessed, nil
		}

		return "", fmt.Errorf("s.ledger.MarkStatus -> %w", err)
	}

	return outcome, nil
}

// ReconcilePending asks the gateway about deposits still pending after olderThan and applies
// whatever it reports. Gateway failures skip the entry until the next run.
func (s *PaymentService) ReconcilePending(ctx context.Context, olderThan time.Duration) (int, error) {
	pending, err := s.entries.ListPending(ctx, domain.EntryDeposit, s.now().Add(-olderThan), reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("s.entries.ListPending -> %w", err)
	}

	processed := 0
	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		charge, err := s.gateway.PaymentStatus(ctx, entry.GatewayID)
		if err != nil {
			zap.L().Warn("gateway status lookup failed", zap.String("gateway_id", entry.GatewayID), zap.Error(err))
			continue
		}

		event := statusEvent(charge.Status)
		if event == "" {
			continue
		}

		outcome, err := s.OnGatewayEvent(ctx, event, entry.GatewayID, charge.Value)
		if err != nil {
			zap.L().Error("reconcile pending deposit", zap.String("gateway_id", entry.GatewayID), zap.Error(err))
			continue
		}
		if outcome != OutcomeIgnored && outcome != OutcomeUnhandled {
			processed++
		}
	}

	return processed, nil
}

func (s *PaymentService) RecentEvents(ctx context.Context, limit int) ([]domain.GatewayEvent, error) {
	if s.events == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	events, err := s.events.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("s.events.List -> %w", err)
	}

	return events, nil
}

func (s *PaymentService) audit(ctx context.Context, ev WebhookEvent, outcome Outcome) {
	if s.events == nil {
		return
	}

	raw := ev.Raw
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	_, err := s.events.Record(ctx, domain.GatewayEvent{
		EventType:  ev.Event,
		PaymentID:  ev.PaymentID,
		Payload:    raw,
		Outcome:    string(outcome),
		ReceivedAt: s.now(),
	})
	if err != nil {
		zap.L().Warn("gateway event audit failed", zap.String("gateway_id", ev.PaymentID), zap.Error(err))
	}
}

func isCreditEvent(event string) bool {
	return event == EventPaymentReceived || event == EventPaymentConfirmed
}

func statusEvent(status string) string {
	switch status {
	case "RECEIVED", "CONFIRMED", "RECEIVED_IN_CASH":
		return EventPaymentConfirmed
	case "OVERDUE":
		return EventPaymentOverdue
	case "REFUNDED":
		return EventPaymentRefunded
	}

	return ""
}
