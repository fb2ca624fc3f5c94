package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType is the failure category a terminal outcome is reported with.
type ErrorType string

const (
	ErrorTypeInvalidLink         ErrorType = "invalid_link"
	ErrorTypeMetadataUnavailable ErrorType = "metadata_unavailable"
	ErrorTypeSessionExpired      ErrorType = "session_expired"
	ErrorTypeTooLarge            ErrorType = "too_large"
	ErrorTypeNetworkFailure      ErrorType = "network_failure"
	ErrorTypeTimeout             ErrorType = "timeout"
	ErrorTypeSourceUnavailable   ErrorType = "source_unavailable"
	ErrorTypeUnexpected          ErrorType = "unexpected_failure"

	ErrorTypeConfig ErrorType = "config"
)

// DomainError is a typed failure with an optional user-facing message key.
type DomainError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
	UserMsg string         `json:"user_message,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on Type, and on Code too when the target carries one.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Code == "" || e.Code == t.Code
}

// GetUserMessage returns the message key for the user, or the raw message.
func (e *DomainError) GetUserMessage() string {
	if e.UserMsg != "" {
		return e.UserMsg
	}
	return e.Message
}

func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e *DomainError) WithUserMessage(msg string) *DomainError {
	e.UserMsg = msg
	return e
}

func NewDomainError(errType ErrorType, code, message string) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

func WrapDomainError(err error, errType ErrorType, code, message string) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
		Details: make(map[string]any),
	}
}

// Category sentinels, usable with errors.Is.
var (
	ErrInvalidLink         = &DomainError{Type: ErrorTypeInvalidLink}
	ErrMetadataUnavailable = &DomainError{Type: ErrorTypeMetadataUnavailable}
	ErrSessionExpired      = &DomainError{Type: ErrorTypeSessionExpired}
	ErrTooLarge            = &DomainError{Type: ErrorTypeTooLarge}
	ErrNetworkFailure      = &DomainError{Type: ErrorTypeNetworkFailure}
	ErrTimeout             = &DomainError{Type: ErrorTypeTimeout}
	ErrSourceUnavailable   = &DomainError{Type: ErrorTypeSourceUnavailable}
	ErrUnexpected          = &DomainError{Type: ErrorTypeUnexpected}
)

// TypeOf returns the category of err. Untyped errors are unexpected failures.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnexpected
}

// FromTransport classifies an error raised while talking to a remote source.
// Already typed errors pass through unchanged.
func FromTransport(err error, message string) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if stderrors.As(err, &de) {
		return err
	}
	if IsTimeout(err) {
		return WrapDomainError(err, ErrorTypeTimeout, "deadline_exceeded", message).
			WithUserMessage("error.fetch.timeout")
	}
	return WrapDomainError(err, ErrorTypeNetworkFailure, "transport", message).
		WithUserMessage("error.fetch.network")
}

func IsTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}

// Diagnostic returns the innermost error text cut to max runes.
func Diagnostic(err error, max int) string {
	if err == nil {
		return ""
	}
	root := err
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		root = e
	}
	msg := root.Error()
	var de *DomainError
	if stderrors.As(root, &de) {
		msg = de.Message
	}
	msg = strings.Join(strings.Fields(msg), " ")
	runes := []rune(msg)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return msg
}
