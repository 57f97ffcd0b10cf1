package db

import (
	"fmt"

	"github.com/aurora-planner/aurora/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Document{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	if errIndex := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_data
		ON documents USING gin (data)
	`).Error; errIndex != nil {
		return fmt.Errorf("db: create documents data index: %w", errIndex)
	}
	return nil
}

// migrateSQLite applies SQLite-specific schema updates.
func migrateSQLite(conn *gorm.DB) error {
	if errPragma := conn.Exec("PRAGMA foreign_keys=ON").Error; errPragma != nil {
		return fmt.Errorf("db: enable foreign keys: %w", errPragma)
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Document{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}
