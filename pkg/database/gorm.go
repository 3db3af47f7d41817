package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig bounds the connection pool shared by every unit of work.
type PoolConfig struct {
	MaxIdle     int
	MaxOpen     int
	MaxLifetime time.Duration
	// Quiet drops SQL statement logging down to warnings.
	Quiet bool
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxIdle: 10, MaxOpen: 100, MaxLifetime: time.Hour}
}

func getLogger(quiet bool) logger.Interface {
	level := logger.Info
	if quiet {
		level = logger.Warn
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  !quiet,
		},
	)
}

func configureConnectionPool(db *gorm.DB, cfg PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	return nil
}

func NewGormDBFromDSN(dsn string, cfg PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(cfg.Quiet),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, cfg); err != nil {
		return nil, err
	}

	return db, nil
}
