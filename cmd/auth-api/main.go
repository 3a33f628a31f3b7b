package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/NordCoder/Tokenus/internal/config/auth-api"
	"github.com/NordCoder/Tokenus/internal/repository/kafka"
	"github.com/NordCoder/Tokenus/internal/services/auth"
	"github.com/NordCoder/Tokenus/internal/token"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/auth-api.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting auth-api", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(rootCtx) }()

	db, err := initDB(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
		MobileTTL:     cfg.Auth.MobileRefreshTTL,
	})
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enable {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
		defer func() { _ = producer.Close() }()
	}

	uc := buildUsecase(cfg, logger, db, issuer, producer)
	ctrl := auth.NewController(uc, auth.Opts{
		Logger:       logger,
		CookieName:   cfg.Auth.CookieName,
		CookieDomain: cfg.Auth.CookieDomain,
		CookiePath:   cfg.Auth.CookiePath,
		CookieSecure: cfg.Auth.CookieSecure,
		DevMode:      cfg.App.IsDev(),
	})

	httpSrv := buildHTTPServer(cfg, logger, db, ctrl)

	httpErrCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		httpErrCh <- httpSrv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case runErr = <-httpErrCh:
		if runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)

	time.Sleep(100 * time.Millisecond)
	logger.Info("bye")
}
