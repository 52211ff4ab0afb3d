// Package memory keeps every repository in process. It backs the "memory" storage driver and the service tests.
package memory

import (
	"sync"
	"time"

	"github.com/powerpix/powerpix-api/internal/domain"
	"github.com/powerpix/powerpix-api/internal/pkg/keylock"
)

type Store struct {
	mu sync.RWMutex

	accounts map[uint]domain.Account
	entries  map[uint]domain.LedgerEntry
	contests map[uint]domain.Contest
	draws    map[uint]domain.LegacyDraw
	bets     map[uint]domain.Bet
	admins   map[uint]domain.Admin
	events   []domain.GatewayEvent
	price    *domain.PriceConfig

	nextAccount uint
	nextEntry   uint
	nextContest uint
	nextDraw    uint
	nextBet     uint
	nextAdmin   uint

	accountLocks *keylock.Locker[uint]
	now          func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[uint]domain.Account),
		entries:      make(map[uint]domain.LedgerEntry),
		contests:     make(map[uint]domain.Contest),
		draws:        make(map[uint]domain.LegacyDraw),
		bets:         make(map[uint]domain.Bet),
		admins:       make(map[uint]domain.Admin),
		accountLocks: keylock.New[uint](),
		now:          time.Now,
	}
}

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{s: s}
}

func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{s: s}
}

func (s *Store) Rounds() *RoundRepository {
	return &RoundRepository{s: s}
}

func (s *Store) Bets() *BetRepository {
	return &BetRepository{s: s}
}

func (s *Store) Prices() *PriceRepository {
	return &PriceRepository{s: s}
}

func (s *Store) Admins() *AdminRepository {
	return &AdminRepository{s: s}
}

func (s *Store) GatewayEvents() *GatewayEventRepository {
	return &GatewayEventRepository{s: s}
}
