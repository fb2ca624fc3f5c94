package lang

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

const defaultLang = "en"

var current atomic.Value

// SetupLang selects the catalogue language; unknown languages fall back to English.
func SetupLang(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !Supported(lang) {
		logutils.Log.WithField("lang", lang).Warn("Unsupported language, using English")
		lang = defaultLang
	}
	current.Store(lang)
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	for _, m := range messages {
		if _, ok := m[lang]; ok {
			return true
		}
	}
	return false
}

// Has reports whether id is a known message.
func Has(id string) bool {
	_, ok := messages[id]
	return ok
}

// GetMessage formats message id in the current language.
func GetMessage(id string, args ...any) string {
	lang, _ := current.Load().(string)
	if lang == "" {
		lang = defaultLang
	}
	if m, ok := messages[id]; ok {
		if msg, ok := m[lang]; ok {
			return fmt.Sprintf(msg, args...)
		}
		if msg, ok := m[defaultLang]; ok {
			return fmt.Sprintf(msg, args...)
		}
	}
	logutils.Log.WithField("id", id).Warn("Message not found")
	return id
}
