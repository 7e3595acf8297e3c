package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/freightdesk/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the connection to one store
type Database struct {
	Name string
	DB   *gorm.DB
}

// NewDatabase opens the store described by cfg. A nil logger keeps GORM silent.
func NewDatabase(name string, cfg *config.DatabaseConfig, logger gormlogger.Interface) (*Database, error) {
	if logger == nil {
		logger = gormlogger.Default.LogMode(gormlogger.Silent)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// One connection serializes writers; sqlite has no row locks.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s database: %w", name, err)
	}

	return &Database{Name: name, DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Stores groups the four independently transactional databases
type Stores struct {
	Main       *Database
	Shipment   *Database
	Finance    *Database
	Attachment *Database
}

// OpenStores opens every configured store. Stores opened before a failure
// are closed again.
func OpenStores(cfg *config.Config, logger gormlogger.Interface) (*Stores, error) {
	opened := make(map[string]*Database, len(config.Stores))
	for _, name := range config.Stores {
		dbCfg := cfg.Database(name)
		db, err := NewDatabase(name, &dbCfg, logger)
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, err
		}
		opened[name] = db
	}
	return &Stores{
		Main:       opened[config.StoreMain],
		Shipment:   opened[config.StoreShipment],
		Finance:    opened[config.StoreFinance],
		Attachment: opened[config.StoreAttachment],
	}, nil
}

// All returns the stores in migration order
func (s *Stores) All() []*Database {
	return []*Database{s.Main, s.Shipment, s.Finance, s.Attachment}
}

// Close closes every store and returns the first error
func (s *Stores) Close() error {
	var first error
	for _, db := range s.All() {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
