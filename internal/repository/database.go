// Package repository provides data access layer using GORM for database operations.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aimd54/academy-progression/internal/config"
	"github.com/aimd54/academy-progression/internal/models"
	"github.com/aimd54/academy-progression/pkg/logger"
)

// DB holds the database connection.
type DB struct {
	*gorm.DB
}

// NewDB creates a new database connection for the configured driver.
func NewDB(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(&cfg.Postgres, log)
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.SQLite.Path, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewPostgresDB connects to PostgreSQL.
func NewPostgresDB(cfg *config.PostgresConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("Connected to PostgreSQL")

	return &DB{db}, nil
}

// NewSQLiteDB opens a SQLite database. ":memory:" gives a private in-memory database.
func NewSQLiteDB(path string, log *logger.Logger) (*DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened SQLite database")

	return &DB{db}, nil
}

func gormConfig(log *logger.Logger) *gorm.Config {
	gormLogLevel := gormlogger.Warn
	if log.GetLogger().GetLevel() == zerolog.DebugLevel {
		gormLogLevel = gormlogger.Info
	}

	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	}
}

// AutoMigrate creates or updates the tables of all models.
func (db *DB) AutoMigrate() error {
	return db.DB.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.ChallengeStatus{},
		&models.PlayerSkillVector{},
		&models.SkillTestSample{},
		&models.Badge{},
	)
}

// Transaction runs fn inside a database transaction bound to ctx.
// The transaction is rolled back when fn returns an error.
func (db *DB) Transaction(ctx context.Context, fn func(tx *DB) error) error {
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DB{tx})
	})
}

// ctx returns a session bound to ctx.
func (db *DB) ctx(ctx context.Context) *gorm.DB {
	return db.DB.WithContext(ctx)
}

// forUpdate returns a session that locks selected rows on dialects supporting row locks.
func (db *DB) forUpdate(ctx context.Context) *gorm.DB {
	q := db.ctx(ctx)
	if db.Dialector.Name() == config.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the database is healthy.
func (db *DB) Health() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
