package fetcher

import (
	"context"
	"errors"
	"testing"

	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorRefusesWhenTempDirIsFull(t *testing.T) {
	extractor := &testutils.FakeExtractor{FileName: "abc.mp4", FileSize: 1024}
	f, dir := newFetcher(t, extractor, Options{})
	f.freeSpace = func(string) (uint64, error) { return 100, nil }

	_, err := f.Fetch(context.Background(), videoRequest(estimated720()))
	assertType(t, err, &tmserrors.DomainError{Type: tmserrors.ErrorTypeUnexpected, Code: "insufficient_space"})
	assert.Empty(t, extractor.Calls())
	testutils.AssertDirEmpty(t, dir)
}

func TestEnsureSpace(t *testing.T) {
	tests := []struct {
		name     string
		expected int64
		free     func(string) (uint64, error)
		wantErr  bool
	}{
		{"unknown size skips", -1, func(string) (uint64, error) { return 0, nil }, false},
		{"enough room", 500, func(string) (uint64, error) { return 500, nil }, false},
		{"too little room", 501, func(string) (uint64, error) { return 500, nil }, true},
		{"capped at ceiling", 10 * testCeiling, func(string) (uint64, error) { return testCeiling, nil }, false},
		{"stat failure is ignored", 500, func(string) (uint64, error) { return 0, errors.New("no statfs") }, false},
		{"no probe", 500, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newFetcher(t, nil, Options{})
			f.freeSpace = tt.free
			err := f.ensureSpace(tt.expected)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tmserrors.ErrorTypeUnexpected, tmserrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
		})
	}
}
