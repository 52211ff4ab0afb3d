package dao

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GatewayEvent struct {
	ID         uint           `gorm:"primaryKey"`
	EventType  string         `gorm:"not null;index"`
	PaymentID  string         `gorm:"index"`
	Payload    datatypes.JSON `gorm:"not null"`
	Outcome    string
	ReceivedAt time.Time `gorm:"not null;index"`
}

func (GatewayEvent) TableName() string {
	return "gateway_events"
}

type GatewayEventDAO struct {
	db *gorm.DB
}

func NewGatewayEventDAO(db *gorm.DB) *GatewayEventDAO {
	return &GatewayEventDAO{
		db: db,
	}
}

func (d *GatewayEventDAO) Insert(ctx context.Context, event GatewayEvent) (GatewayEvent, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return GatewayEvent{}, result.Error
	}

	return event, nil
}

func (d *GatewayEventDAO) List(ctx context.Context, limit int) ([]GatewayEvent, error) {
	var events []GatewayEvent

	result := d.db.WithContext(ctx).Order("received_at DESC, id DESC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}
