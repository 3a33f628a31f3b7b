package main

import (
	"go.uber.org/zap"

	config "github.com/NordCoder/Tokenus/internal/config/auth-api"
	"github.com/NordCoder/Tokenus/internal/domain/audit"
	"github.com/NordCoder/Tokenus/internal/repository/kafka"
	pg "github.com/NordCoder/Tokenus/internal/repository/postgres"
	"github.com/NordCoder/Tokenus/internal/services/auth"
	"github.com/NordCoder/Tokenus/internal/token"
)

func buildUsecase(cfg *config.Config, logger *zap.Logger, db *pg.DB, issuer *token.Issuer, producer *kafka.Producer) *auth.Usecase {
	users := pg.NewUserRepo(db)
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	// A nil *Producer must stay a nil interface inside the usecase.
	var events audit.Publisher
	if producer != nil {
		events = producer
	}

	return auth.NewUsecase(users, hasher, issuer, events, logger)
}
