package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/crewcall/internal/bot"
	discordadapter "github.com/zulandar/crewcall/internal/bot/discord"
	slackadapter "github.com/zulandar/crewcall/internal/bot/slack"
	"github.com/zulandar/crewcall/internal/config"
	"github.com/zulandar/crewcall/internal/db"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Manage the Crewcall bot",
		Long:  "The bot connects to the configured chat platform and serves the conversation engine.",
	}

	cmd.AddCommand(newBotStartCmd())
	return cmd
}

func newBotStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bot daemon",
		Long:  "Connects to the configured chat platform, listens for messages, and runs the scheduled jobs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBotStart(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "crewcall.yaml", "path to Crewcall config file")
	return cmd
}

func runBotStart(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	adapter, err := createAdapter(cfg)
	if err != nil {
		return err
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		DB:      gormDB,
		Config:  cfg,
		Adapter: adapter,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return daemon.Run(ctx)
}

// createAdapter builds a platform adapter from the config.
func createAdapter(cfg *config.Config) (bot.Adapter, error) {
	switch cfg.Platform {
	case "slack":
		return slackadapter.New(slackadapter.AdapterOpts{
			AppToken: cfg.Slack.AppToken,
			BotToken: cfg.Slack.BotToken,
		})
	case "discord":
		return discordadapter.New(discordadapter.AdapterOpts{
			BotToken: cfg.Discord.BotToken,
		})
	default:
		return nil, fmt.Errorf("bot: unsupported platform %q", cfg.Platform)
	}
}
