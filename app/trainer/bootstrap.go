package main

import (
	"fmt"

	"modaMarket/pkg/config"
	"modaMarket/pkg/database"
	"modaMarket/pkg/logger"

	"gorm.io/gorm"
)

// bootstrap loads configuration and opens the database connection shared
// by every subcommand.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.App.Environment)

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return cfg, db, nil
}
