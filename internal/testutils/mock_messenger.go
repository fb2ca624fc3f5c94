package testutils

import (
	"io"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MockMessage captures a single text sent by MockMessenger.
type MockMessage struct {
	ChatID int64
	Text   string
}

// MockDocument captures a single file sent by MockMessenger.
type MockDocument struct {
	ChatID   int64
	FileName string
	Caption  string
	Size     int64
	Data     []byte
}

// MockMarkup captures a message sent with an inline keyboard.
type MockMarkup struct {
	ChatID int64
	Text   string
	Markup tgbotapi.InlineKeyboardMarkup
}

// MockMessenger implements domain.Messenger and the bot's keyboard methods for testing.
// SentMessages collects every text sent via SendText.
// SentDocuments collects every file sent via SendFile.
type MockMessenger struct {
	mu                sync.Mutex
	SentMessages      []MockMessage
	SentDocuments     []MockDocument
	SentMarkups       []MockMarkup
	AnsweredCallbacks []string
	RemovedMarkups    []int

	// SendFileError, if set, is returned by SendFile.
	SendFileError error
}

func (m *MockMessenger) SendText(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, MockMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockMessenger) SendFile(chatID int64, content io.Reader, size int64, fileName, caption string) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFileError != nil {
		return m.SendFileError
	}
	m.SentDocuments = append(m.SentDocuments, MockDocument{
		ChatID:   chatID,
		FileName: fileName,
		Caption:  caption,
		Size:     size,
		Data:     data,
	})
	return nil
}

// Documents returns a snapshot of sent documents.
func (m *MockMessenger) Documents() []MockDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockDocument(nil), m.SentDocuments...)
}

// GetLastMessage returns the most recently sent message, or nil if none.
func (m *MockMessenger) GetLastMessage() *MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return nil
	}
	msg := m.SentMessages[len(m.SentMessages)-1]
	return &msg
}

func (m *MockMessenger) SendMessageWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMarkups = append(m.SentMarkups, MockMarkup{ChatID: chatID, Text: text, Markup: markup})
	return nil
}

func (m *MockMessenger) AnswerCallbackQuery(callbackID, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnsweredCallbacks = append(m.AnsweredCallbacks, callbackID)
}

func (m *MockMessenger) RemoveMarkup(_ int64, messageID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemovedMarkups = append(m.RemovedMarkups, messageID)
}

// Messages returns a snapshot of sent texts.
func (m *MockMessenger) Messages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockMessage(nil), m.SentMessages...)
}

// Markups returns a snapshot of messages sent with a keyboard.
func (m *MockMessenger) Markups() []MockMarkup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockMarkup(nil), m.SentMarkups...)
}
