package handlers

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/handlers/ui"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/retrieval"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const statsPrecision = 100 * time.Millisecond

// Sender is the chat surface the handlers talk to.
type Sender interface {
	SendText(chatID int64, text string) error
	SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error
	AnswerCallbackQuery(callbackID, text string)
	RemoveMarkup(chatID int64, messageID int)
}

// Handler routes Telegram updates to the retrieval service. Every update is
// handled on its own goroutine so one actor's fetch never blocks another.
type Handler struct {
	sender   Sender
	service  *retrieval.Service
	limiter  domain.RateLimiterInterface
	metrics  *metrics.InMemoryMetrics
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// New builds a handler; limiter and m may be nil.
func New(sender Sender, service *retrieval.Service, limiter domain.RateLimiterInterface, m *metrics.InMemoryMetrics) *Handler {
	return &Handler{sender: sender, service: service, limiter: limiter, metrics: m}
}

// Run dispatches updates until ctx is done or the channel closes. Updates
// already dispatched keep running after ctx ends; Shutdown waits for them.
func (h *Handler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	work := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			logutils.Log.Info("Stopping update processing")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.HandleUpdate(work, update)
			}()
		}
	}
}

// HandleUpdate processes one update synchronously.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		LoggingMiddleware(update.Message)
		if update.Message.IsCommand() {
			h.handleCommand(ctx, update.Message)
			return
		}
		h.handleLink(ctx, update.Message)
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch strings.ToLower(msg.Command()) {
	case "start":
		h.reply(chatID, lang.GetMessage(lang.InfoStart, humanize.Bytes(uint64(h.service.SizeCeiling()))))
	case "help":
		h.reply(chatID, lang.GetMessage(lang.InfoHelp))
	case "stats":
		h.reply(chatID, h.statsText(ctx, chatID))
	default:
		logutils.Log.WithField("command", msg.Command()).Warn("Unknown command")
		h.reply(chatID, lang.GetMessage(lang.ErrorUnknownCommand))
	}
}

func (h *Handler) handleLink(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if h.limiter != nil && !h.limiter.Allow(chatID) {
		h.reply(chatID, lang.GetMessage(lang.ErrorRateLimited))
		return
	}

	h.reply(chatID, lang.GetMessage(lang.StatusChecking))
	h.inFlight.Add(1)
	out := h.service.SubmitLink(ctx, chatID, msg.Text)
	h.inFlight.Add(-1)

	if out.State == retrieval.StateAwaitingVariant {
		text := strings.TrimSpace(lang.GetMessage(lang.StatusChooseVariant, mediaHeader(out.Media)))
		if err := h.sender.SendMessageWithMarkup(chatID, text, ui.VariantKeyboard(out.Media, h.service.SizeCeiling())); err != nil {
			logutils.Log.WithError(err).Error("Failed to send variant keyboard")
		}
		return
	}
	h.report(chatID, out)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil || cq.Message.Chat == nil {
		h.sender.AnswerCallbackQuery(cq.ID, "")
		return
	}
	chatID := cq.Message.Chat.ID

	tier, ok := ui.ParseCallback(cq.Data)
	if !ok {
		logutils.Log.WithField("data", cq.Data).Warn("Unknown callback data")
		h.sender.AnswerCallbackQuery(cq.ID, lang.GetMessage(lang.ErrorUnknownCommand))
		return
	}
	h.sender.AnswerCallbackQuery(cq.ID, "")

	if h.service.Pending(chatID) && media.IsValidTier(tier) {
		h.sender.RemoveMarkup(chatID, cq.Message.MessageID)
		h.reply(chatID, lang.GetMessage(lang.StatusDownloading, media.TierLabel(tier)))
	}

	h.inFlight.Add(1)
	out := h.service.SelectVariant(ctx, chatID, tier)
	h.inFlight.Add(-1)
	h.report(chatID, out)
}

// report tells the actor about a failure; deliveries speak for themselves.
func (h *Handler) report(chatID int64, out *retrieval.Outcome) {
	if out.State != retrieval.StateFailed {
		return
	}
	h.reply(chatID, FailureMessage(out.Err, h.service.SizeCeiling()))
}

func (h *Handler) statsText(ctx context.Context, chatID int64) string {
	stats, err := h.service.Stats(ctx, chatID)
	if err != nil {
		logutils.Log.WithError(err).Warn("Failed to read transfer stats")
	}
	text := lang.GetMessage(lang.InfoStats, stats.Delivered, stats.Failed, humanize.Bytes(uint64(stats.TotalBytes)))

	if h.metrics != nil {
		var delivered, failed int64
		for _, c := range h.metrics.Counters() {
			if c.Name != "fetch_outcomes" {
				continue
			}
			if c.Labels["outcome"] == string(retrieval.StateDelivered) {
				delivered += c.Value
			} else {
				failed += c.Value
			}
		}
		text += "\n\n" + lang.GetMessage(lang.InfoStatsTotal, delivered, failed, h.inFlight.Load())
		for _, d := range h.metrics.Durations() {
			if d.Name != "fetch_duration" {
				continue
			}
			text += "\n" + lang.GetMessage(lang.InfoStatsTime, d.Labels["path"],
				d.Mean().Round(statsPrecision), d.Max.Round(statsPrecision), d.Count)
		}
	}
	return text
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.sender.SendText(chatID, text); err != nil {
		logutils.Log.WithError(err).WithField("chat_id", chatID).Error("Failed to send reply")
	}
}

// Shutdown waits for in-flight updates.
func (h *Handler) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (*Handler) Name() string {
	return "update-handler"
}

func mediaHeader(m *domain.ResolvedMedia) string {
	var lines []string
	if m.Title != "" {
		lines = append(lines, m.Title)
	}
	if d := ui.FormatDuration(m.DurationSeconds); d != "" {
		lines = append(lines, lang.GetMessage(lang.InfoDuration, d))
	}
	return strings.Join(lines, "\n")
}

// LoggingMiddleware logs incoming messages without their text.
func LoggingMiddleware(msg *tgbotapi.Message) {
	fields := map[string]any{"chat_id": msg.Chat.ID}
	if msg.From != nil {
		fields["username"] = msg.From.UserName
	}
	logutils.Log.WithFields(fields).Info("Received a new message")
}
