// Package repositories provides the data access layer. It owns both database
// connections: the application schema (settings, fees, reserves, chargeback
// tracking, reports) and the read-only processing schema (raw transactions and
// scheme rates).
package repositories

import (
	"fmt"
	"log"
	"os"
	"time"

	"payclear/internal/config"
	"payclear/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the application database instance.
var DB *gorm.DB

// ProcessingDB is the processor-side database instance. Never written to.
var ProcessingDB *gorm.DB

// DBConfig holds database connection pool configuration.
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var dbConfig = DBConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: time.Minute * 30,
}

// InitDB opens both database connections and migrates the application schema.
func InitDB() error {
	appDSN := buildDSN(
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", "postgres"),
		config.GetEnv("DB_NAME", "payclear"),
	)
	db, err := openPostgres(appDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to application database: %w", err)
	}
	DB = db

	procDSN := buildDSN(
		config.GetEnv("PROCESSING_DB_HOST", "localhost"),
		config.GetEnv("PROCESSING_DB_PORT", "5432"),
		config.GetEnv("PROCESSING_DB_USER", "postgres"),
		config.GetEnv("PROCESSING_DB_PASSWORD", "postgres"),
		config.GetEnv("PROCESSING_DB_NAME", "processing"),
	)
	procDB, err := openPostgres(procDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to processing database: %w", err)
	}
	ProcessingDB = procDB

	// Only the application schema is migrated; the processing schema is owned
	// by the processor.
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Merchant{},
		&models.Shop{},
		&models.MerchantSetting{},
		&models.ShopSetting{},
		&models.FeeType{},
		&models.MerchantFee{},
		&models.ShopFee{},
		&models.FeeHistory{},
		&models.ChargebackTracking{},
		&models.RollingReserveEntry{},
		&models.SettlementReport{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

func buildDSN(host, port, user, password, name string) string {
	return "host=" + host +
		" port=" + port +
		" user=" + user +
		" password=" + password +
		" dbname=" + name +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")
}

func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)

	return db, nil
}
