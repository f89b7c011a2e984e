package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/internal/api"
	"github.com/hccplan/dispo/internal/config"
	"github.com/hccplan/dispo/pkg/clients/mailclient"
	"github.com/hccplan/dispo/pkg/core/services"
	"github.com/hccplan/dispo/pkg/postgres"
	"github.com/hccplan/dispo/pkg/scheduler"
	"github.com/hccplan/dispo/pkg/utils"
	"github.com/hccplan/dispo/pkg/utils/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	logger, err := logging.InitLogger("server")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	store, err := postgres.NewDB(ctx, env.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database ready")

	sender, err := buildSender(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build mail sender: %w", err)
	}

	runtime := scheduler.NewRuntime()
	defer runtime.Stop()

	bridge := scheduler.NewBridge(runtime, store, func(fireCtx context.Context, planPeriodID string) {
		if _, _, err := services.SendDeadlineReminders(fireCtx, store, sender, logger, planPeriodID); err != nil {
			logger.Error("deadline reminder batch failed",
				zap.String("plan_period_id", planPeriodID), zap.Error(err))
		}
	}, logger)

	if err := bridge.OnRestart(ctx); err != nil {
		return fmt.Errorf("failed to restore scheduled reminders: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "dispo",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	server := api.New(store, bridge, sender, logger,
		env.JWTSecret, env.SupervisorEmail, env.SupervisorPassword)
	server.RegisterRoutes(app)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ServerAddr))
		errChan <- app.Listen(cfg.ServerAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		return app.Shutdown()
	}
}

// buildSender picks the mail transport from the configured mode.
func buildSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.Sender, error) {
	if cfg.MailMode == "console" {
		return mailclient.NewConsoleSender(logger), nil
	}

	oauthCfg, err := config.LoadOAuthClient()
	if err != nil {
		return nil, err
	}
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, err
	}
	token, err := utils.GetTokenWithFlow(ctx, oauthConfig)
	if err != nil {
		return nil, err
	}
	return mailclient.NewClient(ctx, oauthCfg, token, cfg.GmailSender)
}
