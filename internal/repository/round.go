package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
)

var (
	ErrContestNotFound = dao.ErrContestNotFound
	ErrDrawNotFound    = dao.ErrDrawNotFound
)

type RoundDAO interface {
	InsertContest(ctx context.Context, contest dao.Contest) (dao.Contest, error)
	FindContest(ctx context.Context, id uint) (dao.Contest, error)
	FindActiveContest(ctx context.Context) (dao.Contest, error)
	ListContests(ctx context.Context) ([]dao.Contest, error)
	UpdateContest(ctx context.Context, id uint, fn func(*dao.Contest) error) (dao.Contest, error)
	InsertDraw(ctx context.Context, draw dao.LegacyDraw) (dao.LegacyDraw, error)
	FindDraw(ctx context.Context, id uint) (dao.LegacyDraw, error)
	FindActiveDraw(ctx context.Context) (dao.LegacyDraw, error)
	UpdateDraw(ctx context.Context, id uint, fn func(*dao.LegacyDraw) error) (dao.LegacyDraw, error)
}

type RoundRepository struct {
	dao RoundDAO
}

func NewRoundRepository(dao RoundDAO) *RoundRepository {
	return &RoundRepository{
		dao: dao,
	}
}

func (r *RoundRepository) CreateContest(ctx context.Context, contest domain.Contest) (domain.Contest, error) {
	row, err := contestDomainToDAO(contest)
	if err != nil {
		return domain.Contest{}, err
	}

	created, err := r.dao.InsertContest(ctx, row)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.InsertContest -> %w", err)
	}

	return contestDAOToDomain(created)
}

func (r *RoundRepository) FindContest(ctx context.Context, id uint) (domain.Contest, error) {
	found, err := r.dao.FindContest(ctx, id)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.FindContest -> %w", err)
	}

	return contestDAOToDomain(found)
}

func (r *RoundRepository) FindActiveContest(ctx context.Context) (domain.Contest, error) {
	found, err := r.dao.FindActiveContest(ctx)
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.FindActiveContest -> %w", err)
	}

	return contestDAOToDomain(found)
}

func (r *RoundRepository) ListContests(ctx context.Context) ([]domain.Contest, error) {
	found, err := r.dao.ListContests(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListContests -> %w", err)
	}

	contests := make([]domain.Contest, 0, len(found))
	for _, c := range found {
		contest, err := contestDAOToDomain(c)
		if err != nil {
			return nil, err
		}
		contests = append(contests, contest)
	}

	return contests, nil
}

// UpdateContest applies fn to the locked contest row and persists the result.
func (r *RoundRepository) UpdateContest(ctx context.Context, id uint, fn func(*domain.Contest) error) (domain.Contest, error) {
	updated, err := r.dao.UpdateContest(ctx, id, func(row *dao.Contest) error {
		contest, err := contestDAOToDomain(*row)
		if err != nil {
			return err
		}
		if err := fn(&contest); err != nil {
			return err
		}

		next, err := contestDomainToDAO(contest)
		if err != nil {
			return err
		}
		*row = next

		return nil
	})
	if err != nil {
		return domain.Contest{}, fmt.Errorf("r.dao.UpdateContest -> %w", err)
	}

	return contestDAOToDomain(updated)
}

func (r *RoundRepository) CreateDraw(ctx context.Context, draw domain.LegacyDraw) (domain.LegacyDraw, error) {
	row, err := drawDomainToDAO(draw)
	if err != nil {
		return domain.LegacyDraw{}, err
	}

	created, err := r.dao.InsertDraw(ctx, row)
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("r.dao.InsertDraw -> %w", err)
	}

	return drawDAOToDomain(created)
}

func (r *RoundRepository) FindDraw(ctx context.Context, id uint) (domain.LegacyDraw, error) {
	found, err := r.dao.FindDraw(ctx, id)
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("r.dao.FindDraw -> %w", err)
	}

	return drawDAOToDomain(found)
}

func (r *RoundRepository) FindActiveDraw(ctx context.Context) (domain.LegacyDraw, error) {
	found, err := r.dao.FindActiveDraw(ctx)
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("r.dao.FindActiveDraw -> %w", err)
	}

	return drawDAOToDomain(found)
}

func (r *RoundRepository) UpdateDraw(ctx context.Context, id uint, fn func(*domain.LegacyDraw) error) (domain.LegacyDraw, error) {
	updated, err := r.dao.UpdateDraw(ctx, id, func(row *dao.LegacyDraw) error {
		draw, err := drawDAOToDomain(*row)
		if err != nil {
			return err
		}
		if err := fn(&draw); err != nil {
			return err
		}

		next, err := drawDomainToDAO(draw)
		if err != nil {
			return err
		}
		*row = next

		return nil
	})
	if err != nil {
		return domain.LegacyDraw{}, fmt.Errorf("r.dao.UpdateDraw -> %w", err)
	}

	return drawDAOToDomain(updated)
}

func roundDomainToDAO(r domain.Round) (dao.RoundState, error) {
	state := dao.RoundState{
		Status:    string(r.Status),
		IsActive:  r.IsActive,
		IsDrawn:   r.IsDrawn,
		DrawnAt:   r.DrawnAt,
		SettledAt: r.SettledAt,
	}
	if r.Numbers != nil {
		raw, err := json.Marshal(r.Numbers)
		if err != nil {
			return dao.RoundState{}, fmt.Errorf("json.Marshal -> %w", err)
		}
		state.Numbers = datatypes.JSON(raw)
	}

	return state, nil
}

func roundDAOToDomain(s dao.RoundState) (domain.Round, error) {
	round := domain.Round{
		Status:    domain.RoundStatus(s.Status),
		IsActive:  s.IsActive,
		IsDrawn:   s.IsDrawn,
		DrawnAt:   s.DrawnAt,
		SettledAt: s.SettledAt,
	}
	if len(s.Numbers) > 0 && string(s.Numbers) != "null" {
		var numbers domain.OfficialNumbers
		if err := json.Unmarshal(s.Numbers, &numbers); err != nil {
			return domain.Round{}, fmt.Errorf("json.Unmarshal -> %w", err)
		}
		round.Numbers = &numbers
	}

	return round, nil
}

func contestDomainToDAO(c domain.Contest) (dao.Contest, error) {
	state, err := roundDomainToDAO(c.Round)
	if err != nil {
		return dao.Contest{}, err
	}

	return dao.Contest{
		ID:             c.ID,
		Title:          c.Title,
		PoolCents:      int64(c.Pool),
		UnitPriceCents: int64(c.UnitPrice),
		ScheduledAt:    c.ScheduledAt,
		RoundState:     state,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}, nil
}

func contestDAOToDomain(c dao.Contest) (domain.Contest, error) {
	round, err := roundDAOToDomain(c.RoundState)
	if err != nil {
		return domain.Contest{}, err
	}

	return domain.Contest{
		ID:          c.ID,
		Title:       c.Title,
		Pool:        domain.Money(c.PoolCents),
		UnitPrice:   domain.Money(c.UnitPriceCents),
		ScheduledAt: c.ScheduledAt,
		Round:       round,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

func drawDomainToDAO(d domain.LegacyDraw) (dao.LegacyDraw, error) {
	state, err := roundDomainToDAO(d.Round)
	if err != nil {
		return dao.LegacyDraw{}, err
	}

	return dao.LegacyDraw{
		ID:               d.ID,
		BasePrizeCents:   int64(d.BasePrize),
		RevenueGoalCents: int64(d.RevenueGoal),
		InitialRateBps:   d.InitialRateBps,
		PostGoalRateBps:  d.PostGoalRateBps,
		RoundState:       state,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func drawDAOToDomain(d dao.LegacyDraw) (domain.LegacyDraw, error) {
	round, err := roundDAOToDomain(d.RoundState)
	if err != nil {
		return domain.LegacyDraw{}, err
	}

	return domain.LegacyDraw{
		ID:              d.ID,
		BasePrize:       domain.Money(d.BasePrizeCents),
		RevenueGoal:     domain.Money(d.RevenueGoalCents),
		InitialRateBps:  d.InitialRateBps,
		PostGoalRateBps: d.PostGoalRateBps,
		Round:           round,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}
