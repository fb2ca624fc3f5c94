package handlers

import (
	"errors"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/lang"
	"github.com/dustin/go-humanize"
)

const diagnosticRunes = 120

var messageByType = map[tmserrors.ErrorType]string{
	tmserrors.ErrorTypeInvalidLink:         lang.ErrorLinkInvalid,
	tmserrors.ErrorTypeMetadataUnavailable: lang.ErrorMetadataUnavailable,
	tmserrors.ErrorTypeSessionExpired:      lang.ErrorSessionExpired,
	tmserrors.ErrorTypeTooLarge:            lang.ErrorFetchTooLarge,
	tmserrors.ErrorTypeNetworkFailure:      lang.ErrorFetchNetwork,
	tmserrors.ErrorTypeTimeout:             lang.ErrorFetchTimeout,
	tmserrors.ErrorTypeSourceUnavailable:   lang.ErrorFetchUnavailable,
	tmserrors.ErrorTypeUnexpected:          lang.ErrorFetchUnexpected,
}

// withDiagnostic are the categories whose message ends with the root cause.
var withDiagnostic = map[tmserrors.ErrorType]bool{
	tmserrors.ErrorTypeNetworkFailure:    true,
	tmserrors.ErrorTypeSourceUnavailable: true,
}

// FailureMessage turns a terminal error into one short user-facing text.
func FailureMessage(err error, ceiling int64) string {
	errType := tmserrors.TypeOf(err)

	key := ""
	var de *tmserrors.DomainError
	if errors.As(err, &de) && lang.Has(de.UserMsg) {
		key = de.UserMsg
	}
	if key == "" {
		key = messageByType[errType]
	}
	if key == "" {
		key = lang.ErrorFetchUnexpected
	}

	var msg string
	if key == lang.ErrorFetchTooLarge {
		msg = lang.GetMessage(key, humanize.Bytes(uint64(ceiling)))
	} else {
		msg = lang.GetMessage(key)
	}

	if withDiagnostic[errType] {
		if diag := tmserrors.Diagnostic(err, diagnosticRunes); diag != "" {
			msg = lang.GetMessage(lang.ErrorDiagnostic, msg, diag)
		}
	}
	return msg
}
