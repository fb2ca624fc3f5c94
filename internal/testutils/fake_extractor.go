package testutils

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
)

// FetchCall records one FetchToDirectory invocation.
type FetchCall struct {
	URL      string
	Selector string
	DestDir  string
}

// FakeExtractor implements domain.Extractor for testing.
// FetchToDirectory writes FileSize bytes named FileName into destDir and
// returns ReportedName (or FileName) as the written path.
type FakeExtractor struct {
	mu sync.Mutex

	Metadata    *domain.MediaMetadata
	MetadataErr error

	FileName     string
	ReportedName string
	FileSize     int
	PartialFile  string
	FetchErr     error
	// Block, if set, makes FetchToDirectory wait for it or for ctx.
	Block chan struct{}

	MetadataCalls []string
	FetchCalls    []FetchCall
}

func (f *FakeExtractor) GetMetadata(_ context.Context, url string) (*domain.MediaMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MetadataCalls = append(f.MetadataCalls, url)
	if f.MetadataErr != nil {
		return nil, f.MetadataErr
	}
	return f.Metadata, nil
}

func (f *FakeExtractor) FetchToDirectory(ctx context.Context, url, formatSelector, destDir string) (string, error) {
	f.mu.Lock()
	f.FetchCalls = append(f.FetchCalls, FetchCall{URL: url, Selector: formatSelector, DestDir: destDir})
	block := f.Block
	f.mu.Unlock()

	if f.PartialFile != "" {
		if err := os.WriteFile(filepath.Join(destDir, f.PartialFile), []byte("partial"), testFileMode); err != nil {
			return "", err
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.FetchErr != nil {
		return "", f.FetchErr
	}

	name := f.FileName
	if name == "" {
		name = "video.mp4"
	}
	if err := os.WriteFile(filepath.Join(destDir, name), TestData(f.FileSize), testFileMode); err != nil {
		return "", err
	}
	reported := f.ReportedName
	if reported == "" {
		reported = name
	}
	return filepath.Join(destDir, reported), nil
}

// Calls returns a snapshot of recorded fetch calls.
func (f *FakeExtractor) Calls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FetchCall(nil), f.FetchCalls...)
}
