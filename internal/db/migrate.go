package db

import (
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// legacyColumns are the columns added after 000001, in migration order.
// Databases created before migrations were tracked carry any subset of them
// without any migration history.
var legacyColumns = []string{"classe", "student_number", "game_type"}

// NewMigrator wraps conn in a golang-migrate instance backed by the
// embedded migration list. Do not Close the result: that closes the
// shared *sql.DB.
func NewMigrator(conn *gorm.DB) (*migrate.Migrate, error) {
	if conn == nil {
		return nil, errors.New("db connection is nil")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite3", driver)
}

// Migrate adopts a legacy schema if needed and applies all pending
// migrations. Safe to call on every startup.
func Migrate(conn *gorm.DB) error {
	m, err := NewMigrator(conn)
	if err != nil {
		return err
	}
	if err := AdoptLegacySchema(conn, m); err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Printf("database migration complete version=%d dirty=%t", version, dirty)
	return nil
}

// AdoptLegacySchema records a baseline version for a scores table that
// predates migration tracking, so that columns already present are not
// added a second time. Older servers added columns independently, so a gap
// before the newest present column is filled here before the baseline is
// forced. It is a no-op once any version is recorded.
func AdoptLegacySchema(conn *gorm.DB, m *migrate.Migrate) error {
	if _, _, err := m.Version(); !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	migrator := conn.Migrator()
	if !migrator.HasTable(&Score{}) {
		return nil
	}
	present := make([]bool, len(legacyColumns))
	newest := -1
	for i, column := range legacyColumns {
		present[i] = migrator.HasColumn(&Score{}, column)
		if present[i] {
			newest = i
		}
	}
	for i := 0; i < newest; i++ {
		if present[i] {
			continue
		}
		log.Printf("adding missing legacy column column=%s", legacyColumns[i])
		stmt := fmt.Sprintf("ALTER TABLE scores ADD COLUMN %s TEXT NOT NULL DEFAULT ''", legacyColumns[i])
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add column %s: %w", legacyColumns[i], err)
		}
	}
	baseline := newest + 2
	log.Printf("adopting legacy scores table baseline=%d", baseline)
	if err := m.Force(baseline); err != nil {
		return fmt.Errorf("record baseline %d: %w", baseline, err)
	}
	return nil
}
