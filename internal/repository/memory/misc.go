package memory

import (
	"context"
	"sort"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/repository"
)

type PriceRepository struct {
	s *Store
}

func (r *PriceRepository) Get(_ context.Context) (domain.PriceConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if r.s.price == nil {
		return domain.PriceConfig{}, repository.ErrPriceConfigNotFound
	}

	return *r.s.price, nil
}

func (r *PriceRepository) Save(_ context.Context, cfg domain.PriceConfig) (domain.PriceConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.price = &cfg

	return cfg, nil
}

type AdminRepository struct {
	s *Store
}

func (r *AdminRepository) Create(_ context.Context, admin domain.Admin) (domain.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.admins {
		if a.Username == admin.Username {
			return domain.Admin{}, repository.ErrAdminExists
		}
	}

	r.s.nextAdmin++
	admin.ID = r.s.nextAdmin
	admin.CreatedAt = r.s.now()
	r.s.admins[admin.ID] = admin

	return admin, nil
}

func (r *AdminRepository) FindByUsername(_ context.Context, username string) (domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		if a.Username == username {
			return a, nil
		}
	}

	return domain.Admin{}, repository.ErrAdminNotFound
}

func (r *AdminRepository) FindByID(_ context.Context, id uint) (domain.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[id]
	if !ok {
		return domain.Admin{}, repository.ErrAdminNotFound
	}

	return a, nil
}

type GatewayEventRepository struct {
	s *Store
}

func (r *GatewayEventRepository) Record(_ context.Context, event domain.GatewayEvent) (domain.GatewayEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = uint(len(r.s.events) + 1)
	r.s.events = append(r.s.events, event)

	return event, nil
}

func (r *GatewayEventRepository) List(_ context.Context, limit int) ([]domain.GatewayEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]domain.GatewayEvent, len(r.s.events))
	copy(events, r.s.events)
	sort.Slice(events, func(i, j int) bool { return events[i].ID > events[j].ID })

	return truncate(events, limit), nil
}
