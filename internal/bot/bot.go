package bot

import (
	"context"
	"fmt"
	"io"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the Telegram side of the messenger.
type Bot struct {
	Api *tgbotapi.BotAPI
}

var _ domain.Messenger = (*Bot)(nil)

// NewBot authorizes with the Bot API. An empty apiEndpoint selects the
// public server; a local Bot API server lifts the 50 MB upload limit.
func NewBot(botToken, apiEndpoint string) (*Bot, error) {
	var (
		api *tgbotapi.BotAPI
		err error
	)
	if apiEndpoint != "" {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(botToken, apiEndpoint)
	} else {
		api, err = tgbotapi.NewBotAPI(botToken)
	}
	if err != nil {
		logutils.Log.WithError(err).Error("Error creating bot")
		return nil, fmt.Errorf("error creating bot: %w", err)
	}
	logutils.Log.Infof("Authorized on account %s", api.Self.UserName)
	return &Bot{Api: api}, nil
}

func (b *Bot) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.Api.Send(msg); err != nil {
		logutils.Log.WithError(err).WithField("chat_id", chatID).Error("Message not sent")
		return err
	}
	return nil
}

// SendMessageWithMarkup sends text with an inline keyboard.
func (b *Bot) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup

	if _, err := b.Api.Send(msg); err != nil {
		logutils.Log.WithError(err).Errorf("Failed to send message with markup to chat %d", chatID)
		return err
	}
	logutils.Log.Debugf("Message with markup sent to chat %d", chatID)
	return nil
}

// SendFile streams content as a document. size is informational; the Bot API
// client reads content until EOF.
func (b *Bot) SendFile(chatID int64, content io.Reader, size int64, filename, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: filename, Reader: content})
	doc.Caption = caption

	entry := logutils.Log.WithFields(map[string]any{
		"chat_id":  chatID,
		"filename": filename,
		"size":     size,
	})
	if _, err := b.Api.Send(doc); err != nil {
		entry.WithError(err).Error("Failed to send document")
		return err
	}
	entry.Info("Document sent")
	return nil
}

func (b *Bot) AnswerCallbackQuery(callbackID, text string) {
	if _, err := b.Api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logutils.Log.WithError(err).Error("Failed to answer callback query")
	}
}

// RemoveMarkup drops the inline keyboard of a sent message.
func (b *Bot) RemoveMarkup(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := b.Api.Request(edit); err != nil {
		logutils.Log.WithError(err).Debug("Failed to remove inline keyboard")
	}
}

func (b *Bot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.Api.GetUpdatesChan(config)
}

// Shutdown stops long polling.
func (b *Bot) Shutdown(context.Context) error {
	b.Api.StopReceivingUpdates()
	return nil
}

func (*Bot) Name() string {
	return "telegram-bot"
}
