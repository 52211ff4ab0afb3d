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
	ErrBetNotFound  = errors.New("bet not found")
	ErrDuplicateBet = errors.New("bet already placed")
	ErrRoundClosed  = errors.New("round no longer accepts bets")
)

type Bet struct {
	ID           uint   `gorm:"primaryKey"`
	AccountID    uint   `gorm:"not null;index"`
	ContestID    *uint  `gorm:"index"`
	DrawID       *uint  `gorm:"index"`
	PlacementKey string `gorm:"not null;uniqueIndex"`

	White           datatypes.JSON `gorm:"not null"`
	Special         datatypes.JSON `gorm:"not null"`
	AmountPaidCents int64          `gorm:"not null"`
	PlacedAt        time.Time      `gorm:"not null;index"`

	Settled         bool  `gorm:"not null;default:false"`
	WhiteMatches    int   `gorm:"not null;default:0"`
	SpecialMatch    bool  `gorm:"not null;default:false"`
	MatchCount      int   `gorm:"not null;default:0"`
	IsWinner        bool  `gorm:"not null;default:false;index"`
	PrizeShareIndex int   `gorm:"not null;default:0"`
	PrizeCents      int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Bet) TableName() string {
	return "bets"
}

// BetSource selects the bets of one round, contest or legacy draw.
type BetSource struct {
	ContestID *uint
	DrawID    *uint
}

func (s BetSource) scope(db *gorm.DB) *gorm.DB {
	if s.ContestID != nil {
		return db.Where("contest_id = ?", *s.ContestID)
	}

	return db.Where("draw_id = ?", s.DrawID)
}

type BetResultRow struct {
	BetID           uint
	WhiteMatches    int
	SpecialMatch    bool
	MatchCount      int
	IsWinner        bool
	PrizeShareIndex int
	PrizeCents      int64
}

type BetTotals struct {
	Bets    int64
	Winners int64
	Revenue int64
}

type PlayerTotals struct {
	Bets   int64
	Active int64
	Wins   int64
	Spent  int64
	Won    int64
}

type BetDAO struct {
	db *gorm.DB
}

func NewBetDAO(db *gorm.DB) *BetDAO {
	return &BetDAO{
		db: db,
	}
}

// Attach inserts the bet while holding a share lock on its round, so a concurrent draw
// cannot close the round between the status check and the insert.
func (d *BetDAO) Attach(ctx context.Context, bet Bet) (Bet, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state RoundState
		var result *gorm.DB
		locked := tx.Clauses(clause.Locking{Strength: "SHARE"})
		if bet.ContestID != nil {
			var contest Contest
			result = locked.First(&contest, *bet.ContestID)
			state = contest.RoundState
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrContestNotFound
			}
		} else {
			var draw LegacyDraw
			result = locked.First(&draw, *bet.DrawID)
			state = draw.RoundState
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrDrawNotFound
			}
		}
		if result.Error != nil {
			return result.Error
		}
		if state.Status != "ACTIVE" {
			return ErrRoundClosed
		}

		if err := tx.Create(&bet).Error; err != nil {
			if isUniqueViolation(err, "idx_bets_placement_key") {
				return ErrDuplicateBet
			}

			return err
		}

		return nil
	})
	if err != nil {
		return Bet{}, err
	}

	return bet, nil
}

func (d *BetDAO) FindByPlacementKey(ctx context.Context, key string) (Bet, error) {
	var bet Bet

	result := d.db.WithContext(ctx).First(&bet, "placement_key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Bet{}, ErrBetNotFound
		}

		return Bet{}, result.Error
	}

	return bet, nil
}

func (d *BetDAO) ListBySource(ctx context.Context, src BetSource) ([]Bet, error) {
	var bets []Bet

	result := src.scope(d.db.WithContext(ctx)).Order("placed_at ASC, id ASC").Find(&bets)
	if result.Error != nil {
		return nil, result.Error
	}

	return bets, nil
}

func (d *BetDAO) ListByAccount(ctx context.Context, accountID uint, limit int) ([]Bet, error) {
	var bets []Bet

	result := d.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("placed_at DESC, id DESC").
		Limit(limit).
		Find(&bets)
	if result.Error != nil {
		return nil, result.Error
	}

	return bets, nil
}

// ApplyResults writes match results in one transaction. Bets that already carry a result are left alone.
func (d *BetDAO) ApplyResults(ctx context.Context, rows []BetResultRow) (int64, error) {
	var updated int64

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			result := tx.Model(&Bet{}).
				Where("id = ? AND settled = ?", row.BetID, false).
				Updates(map[string]any{
					"settled":           true,
					"white_matches":     row.WhiteMatches,
					"special_match":     row.SpecialMatch,
					"match_count":       row.MatchCount,
					"is_winner":         row.IsWinner,
					"prize_share_index": row.PrizeShareIndex,
					"prize_cents":       row.PrizeCents,
				})
			if result.Error != nil {
				return result.Error
			}
			updated += result.RowsAffected
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

func (d *BetDAO) TotalsBySource(ctx context.Context, src BetSource) (BetTotals, error) {
	var totals BetTotals

	result := src.scope(d.db.WithContext(ctx).Model(&Bet{})).
		Select(`COUNT(*) AS bets,
			COALESCE(SUM(CASE WHEN is_winner THEN 1 ELSE 0 END), 0) AS winners,
			COALESCE(SUM(amount_paid_cents), 0) AS revenue`).
		Scan(&totals)
	if result.Error != nil {
		return BetTotals{}, result.Error
	}

	return totals, nil
}

func (d *BetDAO) TotalsByAccount(ctx context.Context, accountID uint) (PlayerTotals, error) {
	var totals PlayerTotals

	result := d.db.WithContext(ctx).Model(&Bet{}).
		Where("account_id = ?", accountID).
		Select(`COUNT(*) AS bets,
			COALESCE(SUM(CASE WHEN settled THEN 0 ELSE 1 END), 0) AS active,
			COALESCE(SUM(CASE WHEN is_winner THEN 1 ELSE 0 END), 0) AS wins,
			COALESCE(SUM(amount_paid_cents), 0) AS spent,
			COALESCE(SUM(prize_cents), 0) AS won`).
		Scan(&totals)
	if result.Error != nil {
		return PlayerTotals{}, result.Error
	}

	return totals, nil
}
