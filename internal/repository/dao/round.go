package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrContestNotFound = errors.New("contest not found")
	ErrDrawNotFound    = errors.New("draw not found")
)

// RoundState is shared by contests and legacy draws.
type RoundState struct {
	Status    string `gorm:"not null;index"`
	IsActive  bool   `gorm:"not null"`
	IsDrawn   bool   `gorm:"not null;default:false"`
	Numbers   datatypes.JSON
	DrawnAt   *time.Time
	SettledAt *time.Time
}

type Contest struct {
	ID             uint   `gorm:"primaryKey"`
	Title          string `gorm:"not null"`
	PoolCents      int64  `gorm:"not null"`
	UnitPriceCents int64  `gorm:"not null"`
	ScheduledAt    *time.Time

	RoundState `gorm:"embedded"`

	Bets []Bet `gorm:"foreignKey:ContestID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Contest) TableName() string {
	return "contests"
}

type LegacyDraw struct {
	ID               uint  `gorm:"primaryKey"`
	BasePrizeCents   int64 `gorm:"not null"`
	RevenueGoalCents int64 `gorm:"not null"`
	InitialRateBps   int64 `gorm:"not null"`
	PostGoalRateBps  int64 `gorm:"not null"`

	RoundState `gorm:"embedded"`

	Bets []Bet `gorm:"foreignKey:DrawID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (LegacyDraw) TableName() string {
	return "legacy_draws"
}

type RoundDAO struct {
	db *gorm.DB
}

func NewRoundDAO(db *gorm.DB) *RoundDAO {
	return &RoundDAO{
		db: db,
	}
}

func (d *RoundDAO) InsertContest(ctx context.Context, contest Contest) (Contest, error) {
	result := d.db.WithContext(ctx).Create(&contest)
	if result.Error != nil {
		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *RoundDAO) FindContest(ctx context.Context, id uint) (Contest, error) {
	var contest Contest

	result := d.db.WithContext(ctx).First(&contest, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Contest{}, ErrContestNotFound
		}

		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *RoundDAO) ListContests(ctx context.Context) ([]Contest, error) {
	var contests []Contest

	result := d.db.WithContext(ctx).Order("id DESC").Find(&contests)
	if result.Error != nil {
		return nil, result.Error
	}

	return contests, nil
}

// UpdateContest reads the contest under FOR UPDATE, lets fn mutate it and saves it in the same transaction.
func (d *RoundDAO) UpdateContest(ctx context.Context, id uint, fn func(*Contest) error) (Contest, error) {
	var contest Contest

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&contest, id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrContestNotFound
			}

			return result.Error
		}

		if err := fn(&contest); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(&contest).Error
	})
	if err != nil {
		return Contest{}, err
	}

	return contest, nil
}

// InsertDraw closes every open legacy draw before creating the new one.
func (d *RoundDAO) InsertDraw(ctx context.Context, draw LegacyDraw) (LegacyDraw, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&LegacyDraw{}).
			Where("status = ?", "ACTIVE").
			Updates(map[string]any{"status": "INACTIVE", "is_active": false})
		if result.Error != nil {
			return result.Error
		}

		return tx.Create(&draw).Error
	})
	if err != nil {
		return LegacyDraw{}, err
	}

	return draw, nil
}

func (d *RoundDAO) FindDraw(ctx context.Context, id uint) (LegacyDraw, error) {
	var draw LegacyDraw

	result := d.db.WithContext(ctx).First(&draw, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LegacyDraw{}, ErrDrawNotFound
		}

		return LegacyDraw{}, result.Error
	}

	return draw, nil
}

func (d *RoundDAO) FindActiveDraw(ctx context.Context) (LegacyDraw, error) {
	var draw LegacyDraw

	result := d.db.WithContext(ctx).Where("status = ?", "ACTIVE").Order("id DESC").First(&draw)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return LegacyDraw{}, ErrDrawNotFound
		}

		return LegacyDraw{}, result.Error
	}

	return draw, nil
}

func (d *RoundDAO) FindActiveContest(ctx context.Context) (Contest, error) {
	var contest Contest

	result := d.db.WithContext(ctx).Where("status = ?", "ACTIVE").Order("id DESC").First(&contest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Contest{}, ErrContestNotFound
		}

		return Contest{}, result.Error
	}

	return contest, nil
}

func (d *RoundDAO) UpdateDraw(ctx context.Context, id uint, fn func(*LegacyDraw) error) (LegacyDraw, error) {
	var draw LegacyDraw

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&draw, id)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrDrawNotFound
			}

			return result.Error
		}

		if err := fn(&draw); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(&draw).Error
	})
	if err != nil {
		return LegacyDraw{}, err
	}

	return draw, nil
}
