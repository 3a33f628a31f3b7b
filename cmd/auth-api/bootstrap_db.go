package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/NordCoder/Tokenus/internal/config/auth-api"
	pg "github.com/NordCoder/Tokenus/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("db connected")
	return db, nil
}
