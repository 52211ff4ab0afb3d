package api

import (
	"gorm.io/gorm"

	"github.com/powerpix/powerpix-api/internal/repository"
	"github.com/powerpix/powerpix-api/internal/repository/dao"
	"github.com/powerpix/powerpix-api/internal/repository/memory"
	"github.com/powerpix/powerpix-api/internal/service"
)

type BetStore interface {
	service.BetStore
	service.PlayerBetStore
}

// Stores is the persistence the services run on, either postgres or in-process.
type Stores struct {
	Accounts service.AccountStore
	Ledger   service.LedgerStore
	Rounds   service.RoundStore
	Bets     BetStore
	Prices   service.PriceStore
	Admins   service.AdminStore
	Events   service.GatewayEventStore
}

func PostgresStores(db *gorm.DB) Stores {
	return Stores{
		Accounts: repository.NewAccountRepository(dao.NewAccountDAO(db)),
		Ledger:   repository.NewLedgerRepository(dao.NewLedgerDAO(db)),
		Rounds:   repository.NewRoundRepository(dao.NewRoundDAO(db)),
		Bets:     repository.NewBetRepository(dao.NewBetDAO(db)),
		Prices:   repository.NewPriceRepository(dao.NewPriceDAO(db)),
		Admins:   repository.NewAdminRepository(dao.NewAdminDAO(db)),
		Events:   repository.NewGatewayEventRepository(dao.NewGatewayEventDAO(db)),
	}
}

func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Accounts: s.Accounts(),
		Ledger:   s.Ledger(),
		Rounds:   s.Rounds(),
		Bets:     s.Bets(),
		Prices:   s.Prices(),
		Admins:   s.Admins(),
		Events:   s.GatewayEvents(),
	}
}
