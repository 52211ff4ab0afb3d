package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Account{},
		&LedgerEntry{},
		&Contest{},
		&LegacyDraw{},
		&Bet{},
		&PriceConfig{},
		&Admin{},
		&GatewayEvent{},
	); err != nil {
		return err
	}

	// At most one SETTLED entry per (kind, key). The full unique index already implies it,
	// the partial one documents the ledger rule in the schema itself.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_settled_kind_key
		ON ledger_entries (kind, idempotency_key) WHERE status = 'SETTLED'`).Error
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint ||
		strings.Contains(pgErr.Message, `"`+constraint+`"`)
}
