package db

import (
	"fmt"

	"echofm/config"
	"echofm/logger"
	"echofm/model"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MigrateSchema creates or updates the MySQL schema with GORM AutoMigrate.
// GORM is used for migration only; runtime queries go through database/sql.
func MigrateSchema(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	gdb, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database for migration: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := gdb.AutoMigrate(
		&model.User{},
		&model.Track{},
		&model.PlayEvent{},
		&model.DownloadEvent{},
		&model.Favorite{},
		&model.Playlist{},
		&model.PlaylistTrack{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	logger.Info("Database schema migrated")
	return nil
}
