package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackPrefix = "v:"
	buttonsPerRow  = 2
)

// CallbackData encodes a variant choice for an inline button.
func CallbackData(tier domain.TierKey) string {
	return callbackPrefix + string(tier)
}

// ParseCallback decodes CallbackData. ok is false for foreign callbacks.
func ParseCallback(data string) (domain.TierKey, bool) {
	if !strings.HasPrefix(data, callbackPrefix) {
		return "", false
	}
	return domain.TierKey(strings.TrimPrefix(data, callbackPrefix)), true
}

// SizeLabel renders a byte count; estimates get a leading "≈".
func SizeLabel(v domain.Variant) string {
	size := humanize.Bytes(uint64(max(v.EstimatedBytes, 0)))
	if v.Confidence == domain.SizeEstimated {
		return "≈" + size
	}
	return size
}

// ButtonLabel is "<tier> · <size>", with a warning mark when the size exceeds ceiling.
func ButtonLabel(v domain.Variant, ceiling int64) string {
	label := fmt.Sprintf("%s · %s", media.TierLabel(v.Tier), SizeLabel(v))
	if ceiling > 0 && v.EstimatedBytes > ceiling {
		label += " ⚠"
	}
	return label
}

// VariantKeyboard lays out one button per variant in ladder order.
func VariantKeyboard(m *domain.ResolvedMedia, ceiling int64) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range m.Variants {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(ButtonLabel(v, ceiling), CallbackData(v.Tier)))
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FormatDuration renders seconds as h:mm:ss or m:ss; "" when unknown.
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	d := time.Duration(math.Round(seconds)) * time.Second
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
