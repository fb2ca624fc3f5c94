package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/config"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "telegram-fetch-bot",
	Short:   "Telegram bot that fetches media links into chat, within a size limit",
	Version: Version,
	Long: `telegram-fetch-bot answers links sent to a Telegram chat with the file
behind them. Video pages are offered as a ladder of quality tiers; other links
are downloaded directly. Nothing larger than MAX_FILE_SIZE is ever delivered.

Configuration is read from the environment (BOT_TOKEN, MAX_FILE_SIZE,
EXTRACTOR_BACKEND, PROXY, HISTORY_DB_PATH, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.NewConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		logutils.InitLogger(cfg.LogLevel)
		lang.SetupLang(cfg.Lang)
		logutils.Log.WithFields(map[string]any{
			"version":    Version,
			"build_time": BuildTime,
			"command":    cmd.Name(),
		}).Debug("Starting")
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(runCmd, variantsCmd, fetchCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
