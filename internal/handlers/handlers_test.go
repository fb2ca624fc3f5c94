package handlers

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/fetcher"
	tmshttp "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/infrastructure/http"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pkg/metrics"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/pool"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/ratelimit"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/retrieval"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/session"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/testutils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID = int64(555)

func TestMain(m *testing.M) {
	logutils.InitLogger("error")
	lang.SetupLang("en")
	os.Exit(m.Run())
}

type fixture struct {
	handler   *Handler
	messenger *testutils.MockMessenger
	extractor *testutils.FakeExtractor
	metrics   *metrics.InMemoryMetrics
}

func newFixture(t *testing.T, limiter domain.RateLimiterInterface) *fixture {
	t.Helper()
	cfg := testutils.TestConfig(testutils.TempDir(t))
	extractor := &testutils.FakeExtractor{
		Metadata: &domain.MediaMetadata{Title: "Cats", DurationSeconds: 212},
		FileSize: 1000,
	}
	messenger := &testutils.MockMessenger{}
	m := metrics.NewInMemoryMetrics()

	fs := cfg.GetFetchSettings()
	f := fetcher.New(extractor, tmshttp.NewClient(tmshttp.Options{ProbeTimeout: time.Second, ResponseTimeout: time.Second}), fetcher.Options{
		SizeCeiling:      fs.SizeCeiling,
		ChunkSize:        fs.ChunkSize,
		TempDir:          fs.TempDir,
		TransferTimeout:  fs.TransferTimeout,
		ExtractorTimeout: time.Second,
	})
	p := pool.New(fs.MaxConcurrentFetches)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	svc := retrieval.NewService(retrieval.Dependencies{
		Resolver:  media.NewVariantResolver(extractor, nil, time.Second),
		Sessions:  session.NewStore(time.Minute, nil),
		Fetcher:   f,
		Pool:      p,
		Messenger: messenger,
		Metrics:   m,
	})
	return &fixture{
		handler:   New(messenger, svc, limiter, m),
		messenger: messenger,
		extractor: extractor,
		metrics:   m,
	}
}

func command(text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: chatID, UserName: "tester"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(t string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: t,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
	}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func lastText(t *testing.T, m *testutils.MockMessenger) string {
	t.Helper()
	msg := m.GetLastMessage()
	require.NotNil(t, msg)
	return msg.Text
}

func TestStartMentionsCeiling(t *testing.T) {
	fx := newFixture(t, nil)
	fx.handler.HandleUpdate(context.Background(), command("/start"))
	assert.Contains(t, lastText(t, fx.messenger), "10 MB")
}

func TestUnknownCommand(t *testing.T) {
	fx := newFixture(t, nil)
	fx.handler.HandleUpdate(context.Background(), command("/ls"))
	assert.Equal(t, lang.GetMessage(lang.ErrorUnknownCommand), lastText(t, fx.messenger))
}

func TestVideoLinkFlow(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	fx.handler.HandleUpdate(ctx, text("https://youtu.be/abc"))
	markups := fx.messenger.Markups()
	require.Len(t, markups, 1)
	assert.True(t, strings.HasPrefix(markups[0].Text, "Cats\nDuration: 3:32"))
	assert.NotEmpty(t, markups[0].Markup.InlineKeyboard)

	fx.handler.HandleUpdate(ctx, callback("v:480"))
	docs := fx.messenger.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "Cats - 480p", docs[0].Caption)
	assert.Contains(t, fx.messenger.AnsweredCallbacks, "cb-v:480")
	assert.Equal(t, []int{9}, fx.messenger.RemovedMarkups)

	fx.handler.HandleUpdate(ctx, callback("v:480"))
	assert.Equal(t, lang.GetMessage(lang.ErrorSessionExpired), lastText(t, fx.messenger))
	assert.Len(t, fx.messenger.Documents(), 1)
	assert.Len(t, fx.extractor.Calls(), 1)
}

func TestForeignCallbackIsIgnored(t *testing.T) {
	fx := newFixture(t, nil)
	fx.handler.HandleUpdate(context.Background(), callback("delete_movie:1"))
	assert.Equal(t, []string{"cb-delete_movie:1"}, fx.messenger.AnsweredCallbacks)
	assert.Empty(t, fx.messenger.Messages())
}

func TestInvalidLinkReply(t *testing.T) {
	fx := newFixture(t, nil)
	fx.handler.HandleUpdate(context.Background(), text("hello bot"))
	assert.Equal(t, lang.GetMessage(lang.ErrorLinkInvalid), lastText(t, fx.messenger))
}

func TestRateLimit(t *testing.T) {
	fx := newFixture(t, ratelimit.New(1))
	ctx := context.Background()

	fx.handler.HandleUpdate(ctx, text("https://youtu.be/abc"))
	fx.handler.HandleUpdate(ctx, text("https://youtu.be/def"))

	assert.Equal(t, lang.GetMessage(lang.ErrorRateLimited), lastText(t, fx.messenger))
	assert.Len(t, fx.extractor.MetadataCalls, 1)
}

func TestStatsIncludesProcessTotals(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	fx.handler.HandleUpdate(ctx, text("https://youtu.be/abc"))
	fx.handler.HandleUpdate(ctx, callback("v:best"))
	fx.handler.HandleUpdate(ctx, callback("v:best"))

	fx.handler.HandleUpdate(ctx, command("/stats"))
	stats := lastText(t, fx.messenger)
	assert.Contains(t, stats, "Since start: 1 delivered, 1 failed, 0 in progress")
	assert.Regexp(t, `extractor-backed links: \S+ on average, \S+ at most \(1\)`, stats)
}

func TestRunStopsOnClosedChannel(t *testing.T) {
	fx := newFixture(t, nil)
	updates := make(chan tgbotapi.Update, 1)
	updates <- command("/help")
	close(updates)

	fx.handler.Run(context.Background(), updates)
	require.NoError(t, fx.handler.Shutdown(context.Background()))
	assert.Equal(t, lang.GetMessage(lang.InfoHelp), lastText(t, fx.messenger))
}

func TestFailureMessage(t *testing.T) {
	ceiling := int64(2_000_000_000)
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"too large renders ceiling",
			tmserrors.NewDomainError(tmserrors.ErrorTypeTooLarge, "probe", "x").WithUserMessage("error.fetch.too_large"),
			"The file is larger than the 2.0 GB limit.",
		},
		{
			"network carries diagnostic",
			tmserrors.WrapDomainError(errors.New("connection reset by peer"), tmserrors.ErrorTypeNetworkFailure, "transport", "x"),
			lang.GetMessage(lang.ErrorFetchNetwork) + "\nDetails: connection reset by peer",
		},
		{
			"user message key wins",
			tmserrors.NewDomainError(tmserrors.ErrorTypeInvalidLink, "unknown_variant", "x").WithUserMessage("error.variant.unknown"),
			lang.GetMessage(lang.ErrorVariantUnknown),
		},
		{
			"untyped is unexpected",
			errors.New("boom"),
			lang.GetMessage(lang.ErrorFetchUnexpected),
		},
		{
			"deadline is timeout",
			context.DeadlineExceeded,
			lang.GetMessage(lang.ErrorFetchTimeout),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureMessage(tt.err, ceiling))
		})
	}
}
