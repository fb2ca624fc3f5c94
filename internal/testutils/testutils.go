package testutils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/config"
)

const (
	tickerInterval = 10 * time.Millisecond
	testFileMode   = 0600
	byteRange      = 256
)

// TestConfig creates a configuration suitable for testing
func TestConfig(tempDir string) *config.Config {
	return &config.Config{
		BotToken:           "test-bot-token",
		Lang:               "en",
		LogLevel:           "debug",
		RateLimitPerMinute: 0,

		FetchSettings: config.FetchConfig{
			SizeCeiling:          10 * 1024 * 1024,
			ChunkSize:            4 * 1024,
			MaxConcurrentFetches: 2,
			ProbeTimeout:         2 * time.Second,
			ResponseTimeout:      2 * time.Second,
			TransferTimeout:      10 * time.Second,
			UploadTimeout:        5 * time.Second,
			TempDir:              tempDir,
		},

		ExtractorSettings: config.ExtractorConfig{
			Backend:         config.BackendYTDLP,
			YTDLPPath:       "yt-dlp",
			MetadataTimeout: 5 * time.Second,
			DownloadTimeout: 10 * time.Second,
		},

		SessionSettings: config.SessionConfig{
			TTL:             time.Minute,
			CleanupInterval: time.Second,
		},
	}
}

// TempDir creates a temporary directory for testing
func TempDir(t *testing.T) string {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "telegram-fetch-bot-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}

	t.Cleanup(func() {
		os.RemoveAll(tempDir)
	})

	return tempDir
}

// TestData returns size deterministic bytes.
func TestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % byteRange)
	}
	return data
}

// CreateTestDataFile creates a test data file with specified size
func CreateTestDataFile(t *testing.T, dir, name string, size int) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	if err := os.WriteFile(filePath, TestData(size), testFileMode); err != nil {
		t.Fatalf("Failed to create test data file: %v", err)
	}
	return filePath
}

// AssertDirEmpty fails the test when dir holds any entry.
func AssertDirEmpty(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected %s to be empty, found %v", dir, names)
	}
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(tickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Timeout waiting for condition: %s", message)
		case <-ticker.C:
			if condition() {
				return
			}
		}
	}
}
