package database

import (
	"fmt"

	"reflectio/internal/domain/connections"
	"reflectio/internal/domain/plans"
	"reflectio/internal/domain/posts"
	"reflectio/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pairIndex is the backstop for concurrent requests between the same two
// users: one row per unordered pair until that row is deleted.
const pairIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_pair
ON connections (LEAST(requester_id, addressee_id), GREATEST(requester_id, addressee_id));`

// InitDB opens the shared pool and migrates. The returned handle is passed
// to store constructors; nothing else holds it.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// required for gen_random_uuid()
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto: %w", err)
	}

	if err := db.AutoMigrate(
		&users.User{},
		&plans.Plan{},
		&posts.Post{},
		&posts.Reflection{},
		&connections.Connection{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	// superseded by the full pair index
	if err := db.Exec(`DROP INDEX IF EXISTS idx_connections_active_pair;`).Error; err != nil {
		return nil, fmt.Errorf("drop active pair index: %w", err)
	}
	if err := db.Exec(pairIndex).Error; err != nil {
		return nil, fmt.Errorf("create pair index: %w", err)
	}

	return db, nil
}
