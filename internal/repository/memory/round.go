package memory

import (
	"context"
	"sort"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type RoundRepository struct {
	s *Store
}

func (r *RoundRepository) CreateContest(_ context.Context, contest domain.Contest) (domain.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextContest++
	now := r.s.now()
	contest.ID = r.s.nextContest
	contest.CreatedAt = now
	contest.UpdatedAt = now
	r.s.contests[contest.ID] = contest

	return contest, nil
}

func (r *RoundRepository) FindContest(_ context.Context, id uint) (domain.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	contest, ok := r.s.contests[id]
	if !ok {
		return domain.Contest{}, repository.ErrContestNotFound
	}

	return contest, nil
}

func (r *RoundRepository) FindActiveContest(_ context.Context) (domain.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *domain.Contest
	for id := range r.s.contests {
		c := r.s.contests[id]
		if c.Status == domain.RoundActive && (found == nil || c.ID > found.ID) {
			found = &c
		}
	}
	if found == nil {
		return domain.Contest{}, repository.ErrContestNotFound
	}

	return *found, nil
}

func (r *RoundRepository) ListContests(_ context.Context) ([]domain.Contest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	contests := make([]domain.Contest, 0, len(r.s.contests))
	for _, c := range r.s.contests {
		contests = append(contests, c)
	}
	sort.Slice(contests, func(i, j int) bool { return contests[i].ID > contests[j].ID })

	return contests, nil
}

func (r *RoundRepository) UpdateContest(_ context.Context, id uint, fn func(*domain.Contest) error) (domain.Contest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	contest, ok := r.s.contests[id]
	if !ok {
		return domain.Contest{}, repository.ErrContestNotFound
	}
	if err := fn(&contest); err != nil {
		return domain.Contest{}, err
	}
	contest.UpdatedAt = r.s.now()
	r.s.contests[id] = contest

	return contest, nil
}

// CreateDraw closes every open legacy draw first.
func (r *RoundRepository) CreateDraw(_ context.Context, draw domain.LegacyDraw) (domain.LegacyDraw, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, d := range r.s.draws {
		if d.Status == domain.RoundActive {
			d.Status = domain.RoundInactive
			d.IsActive = false
			d.UpdatedAt = now
			r.s.draws[id] = d
		}
	}

	r.s.nextDraw++
	draw.ID = r.s.nextDraw
	draw.CreatedAt = now
	draw.UpdatedAt = now
	r.s.draws[draw.ID] = draw

	return draw, nil
}

func (r *RoundRepository) FindDraw(_ context.Context, id uint) (domain.LegacyDraw, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	draw, ok := r.s.draws[id]
	if !ok {
		return domain.LegacyDraw{}, repository.ErrDrawNotFound
	}

	return draw, nil
}

func (r *RoundRepository) FindActiveDraw(_ context.Context) (domain.LegacyDraw, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *domain.LegacyDraw
	for id := range r.s.draws {
		d := r.s.draws[id]
		if d.Status == domain.RoundActive && (found == nil || d.ID > found.ID) {
			found = &d
		}
	}
	if found == nil {
		return domain.LegacyDraw{}, repository.ErrDrawNotFound
	}

	return *found, nil
}

func (r *RoundRepository) UpdateDraw(_ context.Context, id uint, fn func(*domain.LegacyDraw) error) (domain.LegacyDraw, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	draw, ok := r.s.draws[id]
	if !ok {
		return domain.LegacyDraw{}, repository.ErrDrawNotFound
	}
	if err := fn(&draw); err != nil {
		return domain.LegacyDraw{}, err
	}
	draw.UpdatedAt = r.s.now()
	r.s.draws[id] = draw

	return draw, nil
}

// roundState reports the state of a bet's round. Caller holds s.mu.
func (s *Store) roundState(src domain.SourceRef) (domain.Round, error) {
	if src.Kind == domain.SourceDraw {
		d, ok := s.draws[src.ID]
		if !ok {
			return domain.Round{}, repository.ErrDrawNotFound
		}
		return d.Round, nil
	}

	c, ok := s.contests[src.ID]
	if !ok {
		return domain.Round{}, repository.ErrContestNotFound
	}

	return c.Round, nil
}
