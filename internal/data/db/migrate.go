package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/tally-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return err
	}
	return EnsureLedgerIndexes(db)
}

// EnsureLedgerIndexes adds the composite indexes the leaderboard and window queries rely on.
// Both statements are valid on Postgres and SQLite.
func EnsureLedgerIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_contributor_leaderboard
		ON contributor (total_count DESC, last_activity_at ASC, contributor_id ASC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_contributor_leaderboard: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_count_ledger_created_seq
		ON count_ledger (created_at, sequence_number);
	`).Error; err != nil {
		return fmt.Errorf("create idx_count_ledger_created_seq: %w", err)
	}
	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
