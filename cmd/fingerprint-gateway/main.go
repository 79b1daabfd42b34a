package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/high-horse/fingerprint-gateway/internal/config"
	"github.com/high-horse/fingerprint-gateway/internal/enhance"
	"github.com/high-horse/fingerprint-gateway/internal/gateway"
	"github.com/high-horse/fingerprint-gateway/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		log.Fatal(err)
	}

	logger, out, err := logging.Setup(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck

	app := gateway.New(gateway.Options{
		Enhancer:     newEnhancer(cfg.Enhancer),
		Logger:       logger,
		AccessLog:    out,
		AllowOrigins: cfg.Server.AllowOrigins,
		BodyLimit:    cfg.Server.BodyLimit,
		JPEGQuality:  cfg.Image.JPEGQuality,
		MaxPixels:    cfg.Image.MaxPixels,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	logger.Info("fingerprint gateway listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("enhancer", cfg.Enhancer.Kind),
		zap.Strings("allow_origins", cfg.Server.AllowOrigins))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout()))
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}
}

func newEnhancer(cfg config.Enhancer) enhance.Enhancer {
	if cfg.Kind == config.EnhancerCommand {
		return enhance.NewCommand(cfg.Command, cfg.Args, cfg.Timeout())
	}
	return enhance.NewAFIS(cfg.Workers)
}
