package database

import (
	"fmt"

	"go-pos-api/internal/config"
	"go-pos-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open connects to the driver selected in cfg.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	switch cfg.Driver {
	case "sqlite":
		log.Info("using embedded sqlite database", zap.String("path", cfg.SQLitePath))
		return OpenSQLite(cfg.SQLitePath, log)
	case "postgres", "":
		return Connect(cfg, log)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Product{},
		&model.StockEntry{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.InvoicePayment{},
		&model.SalesReturn{},
		&model.Purchase{},
		&model.User{},
		&model.UserRight{},
	)
}
