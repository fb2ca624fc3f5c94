package main

import (
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/app"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and poll Telegram for updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logutils.Log.WithFields(map[string]any{
			"version": Version,
			"token":   logutils.Redact(cfg.BotToken),
		}).Info("Starting Telegram fetch bot")

		application, err := app.New(cfg)
		if err != nil {
			logutils.Log.WithError(err).Error("Bot initialization failed")
			return err
		}
		return application.Run(cmd.Context())
	},
}
