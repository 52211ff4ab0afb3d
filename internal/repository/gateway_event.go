package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

type GatewayEventDAO interface {
	Insert(ctx context.Context, event dao.GatewayEvent) (dao.GatewayEvent, error)
	List(ctx context.Context, limit int) ([]dao.GatewayEvent, error)
}

type GatewayEventRepository struct {
	dao GatewayEventDAO
}

func NewGatewayEventRepository(dao GatewayEventDAO) *GatewayEventRepository {
	return &GatewayEventRepository{
		dao: dao,
	}
}

func (r *GatewayEventRepository) Record(ctx context.Context, event domain.GatewayEvent) (domain.GatewayEvent, error) {
	created, err := r.dao.Insert(ctx, dao.GatewayEvent{
		EventType:  event.EventType,
		PaymentID:  event.PaymentID,
		Payload:    datatypes.JSON(event.Payload),
		Outcome:    event.Outcome,
		ReceivedAt: event.ReceivedAt,
	})
	if err != nil {
		return domain.GatewayEvent{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *GatewayEventRepository) List(ctx context.Context, limit int) ([]domain.GatewayEvent, error) {
	found, err := r.dao.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	events := make([]domain.GatewayEvent, len(found))
	for i, e := range found {
		events[i] = r.daoToDomain(e)
	}

	return events, nil
}

func (r *GatewayEventRepository) daoToDomain(e dao.GatewayEvent) domain.GatewayEvent {
	return domain.GatewayEvent{
		ID:         e.ID,
		EventType:  e.EventType,
		PaymentID:  e.PaymentID,
		Payload:    []byte(e.Payload),
		Outcome:    e.Outcome,
		ReceivedAt: e.ReceivedAt,
	}
}
