package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hccplan/dispo/cmd/cli/commands"
	"github.com/hccplan/dispo/internal/config"
	"github.com/hccplan/dispo/pkg/clients/mailclient"
	"github.com/hccplan/dispo/pkg/core/services"
	"github.com/hccplan/dispo/pkg/postgres"
	"github.com/hccplan/dispo/pkg/scheduler"
	"github.com/hccplan/dispo/pkg/utils/logging"
)

var app = &commands.AppContext{}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dispo",
		Short: "dispo CLI - Manage projects, teams and plan periods",
		Long:  `An admin tool for managing planning projects, their teams, plan periods and availability reminders.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
			if app.Database != nil {
				app.Database.Close()
			}
		},
	}

	rootCmd.AddCommand(commands.CreateAccountCmd(app))
	rootCmd.AddCommand(commands.AddPersonCmd(app))
	rootCmd.AddCommand(commands.AddTeamCmd(app))
	rootCmd.AddCommand(commands.NewPlanPeriodCmd(app))
	rootCmd.AddCommand(commands.ClosePlanPeriodCmd(app))
	rootCmd.AddCommand(commands.ViewResponsesCmd(app))
	rootCmd.AddCommand(commands.SendRemindersCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, mail sender and scheduler.
// The shared AppContext is filled in place; commands read it at run
// time, after the pre-run has completed.
func initApp() error {
	ctx := context.Background()

	logger, err := logging.InitLogger("cli")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	database, err := postgres.NewDB(ctx, env.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// The CLI only persists job records; the long-running server owns
	// the live timers and picks the records up on its next restart.
	var sender services.Sender = mailclient.NewConsoleSender(logger)
	if cfg.MailMode == "gmail" {
		logger.Warn("gmail mode configured; CLI sends via console sender, use the server for real mail")
	}

	runtime := scheduler.NewRuntime()
	bridge := scheduler.NewBridge(runtime, database, func(fireCtx context.Context, planPeriodID string) {
		if _, _, err := services.SendDeadlineReminders(fireCtx, database, sender, logger, planPeriodID); err != nil {
			logger.Error("deadline reminder batch failed",
				zap.String("plan_period_id", planPeriodID), zap.Error(err))
		}
	}, logger)

	app.Cfg = cfg
	app.Database = database
	app.Sender = sender
	app.Scheduler = bridge
	app.Logger = logger
	app.Ctx = ctx
	return nil
}
