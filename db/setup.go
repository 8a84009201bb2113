package db

import (
	"fmt"
	"strings"

	"github.com/stride-dev/stride/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the backing store and returns the handle. Postgres DSNs are
// the production path; anything else is treated as a SQLite path, which keeps
// local development and tests on the same code.
func Connect(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Goal{},
		&models.Task{},
	}

	migrator := conn.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := conn.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close releases the underlying SQL connection pool.
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()

	if err != nil {
		return err
	}

	return sqlDB.Close()
}
