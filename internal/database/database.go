package database

import (
	"fmt"
	"log"
	"strings"

	"github.com/Conceptual-Machines/composer-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InMemory is a private SQLite database that lives as long as its connection
const InMemory = ":memory:"

// Connect opens the database named by url. Postgres URLs and DSNs go to the
// postgres driver; everything else (including an empty url) is a SQLite path.
func Connect(url string) (*gorm.DB, error) {
	dialector, name := dialectorFor(url)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	if name == "sqlite" {
		// one connection keeps an in-memory database alive and serializes writers
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("🗄️  Connected to %s database", name)
	return db, nil
}

func dialectorFor(url string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"),
		strings.Contains(url, "host="):
		return postgres.Open(url), "postgres"
	case url == "":
		return sqlite.Open(InMemory), "sqlite"
	default:
		return sqlite.Open(strings.TrimPrefix(url, "sqlite://")), "sqlite"
	}
}

// Migrate creates or updates the tables for all persisted models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Composition{}, &models.TrainingRun{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("✅ Database migrations complete")
	return nil
}

// Ping checks that the underlying connection is usable
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
