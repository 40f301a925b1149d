package db

import (
	"fmt"

	types "github.com/yungbote/queueflow-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureTicketIndexes adds the partial indexes AutoMigrate cannot express.
func EnsureTicketIndexes(db *gorm.DB) error {
	// Oldest waiting ticket per line, used by call-next.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ticket_queue_waiting
		ON ticket (queue_id, queued_at)
		WHERE status = 'not_served';
	`).Error; err != nil {
		return fmt.Errorf("create idx_ticket_queue_waiting: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ticket_department_waiting
		ON ticket (department_id, queued_at)
		WHERE status = 'not_served';
	`).Error; err != nil {
		return fmt.Errorf("create idx_ticket_department_waiting: %w", err)
	}
	// At most one ticket in service per counter.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_counter_serving
		ON ticket (counter_id)
		WHERE status = 'serving';
	`).Error; err != nil {
		return fmt.Errorf("create idx_ticket_counter_serving: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ticket_branch_day_number
		ON ticket (branch_id, day, number);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ticket_branch_day_number: %w", err)
	}
	return nil
}

// liveUnique lists the natural keys of soft-deleted tables. The
// indexes only cover live rows so a deleted name or prefix can be reused.
var liveUnique = []struct {
	name, table, columns, replaces string
}{
	{"idx_queue_live_name", "queue", "branch_id, name", "idx_queue_branch_name"},
	{"idx_queue_live_prefix", "queue", "branch_id, prefix", ""},
	{"idx_department_live_name", "department", "branch_id, name", "idx_department_branch_name"},
	{"idx_department_live_prefix", "department", "branch_id, prefix", ""},
	{"idx_counter_live_name", "counter", "branch_id, name", "idx_counter_branch_name"},
	{"idx_user_live_email", `"user"`, "email", "idx_user_email"},
	{"idx_branch_live_code", "branch", "code", "idx_branch_code"},
}

// EnsureLineIndexes enforces unique names and ticket prefixes among the live
// queues, departments and counters of a branch, and unique emails and branch
// codes among live users and branches.
func EnsureLineIndexes(db *gorm.DB) error {
	for _, ix := range liveUnique {
		if ix.replaces != "" {
			if err := db.Exec("DROP INDEX IF EXISTS " + ix.replaces).Error; err != nil {
				return fmt.Errorf("drop %s: %w", ix.replaces, err)
			}
		}
		stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s) WHERE deleted_at IS NULL", ix.name, ix.table, ix.columns)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", ix.name, err)
		}
	}
	return nil
}

func EnsureAuthIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_user_token_expires_at
		ON user_token (expires_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_user_token_expires_at: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureTicketIndexes(s.db); err != nil {
		s.log.Error("Ticket index migration failed", "error", err)
		return err
	}
	if err := EnsureLineIndexes(s.db); err != nil {
		s.log.Error("Line index migration failed", "error", err)
		return err
	}
	if err := EnsureAuthIndexes(s.db); err != nil {
		s.log.Error("Auth index migration failed", "error", err)
		return err
	}
	return nil
}
