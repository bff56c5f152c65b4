package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kodiview/kodiview/internal/config"
	"github.com/kodiview/kodiview/internal/logger"
	"github.com/kodiview/kodiview/internal/utils"
)

var DB *gorm.DB

// Initialize opens the database described by the configuration and runs
// schema migrations. Module-specific models migrate later through the
// module manager.
func Initialize() error {
	cfg := config.Get().Database

	var err error
	switch cfg.Type {
	case "postgres":
		DB, err = connectPostgres(cfg)
	case "sqlite":
		if err := utils.EnsureDir(cfg.DataDir); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		DB, err = connectSQLite(cfg)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := DB.AutoMigrate(&SessionRecord{}, &EventRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database initialized at %s", config.GetDatabaseURL())
	return nil
}

func connectPostgres(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogMode(cfg),
	})
}

func connectSQLite(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormLogMode(cfg),
	})
}

func gormLogMode(cfg config.DatabaseConfig) gormlogger.Interface {
	if cfg.LogQueries {
		return gormlogger.Default.LogMode(gormlogger.Info)
	}
	return gormlogger.Default.LogMode(gormlogger.Warn)
}

// GetDB returns the shared database handle.
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the shared handle. Only tests use this.
func SetDB(db *gorm.DB) {
	DB = db
}

// HealthCheck pings the database.
func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// ConnectionStats reports pool usage for the health endpoints.
type ConnectionStats struct {
	OpenConnections    int
	MaxOpenConnections int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// GetConnectionStats returns current pool statistics.
func GetConnectionStats() (ConnectionStats, error) {
	if DB == nil {
		return ConnectionStats{}, fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return ConnectionStats{}, err
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		OpenConnections:    s.OpenConnections,
		MaxOpenConnections: s.MaxOpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}
