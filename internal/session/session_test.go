package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/testutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(u string) domain.Link {
	return domain.Link{URL: u, Kind: domain.LinkExtractor}
}

func newTestStore(ttl time.Duration) (*Store, *timeutil.MockTimeProvider) {
	clock := timeutil.NewMockTimeProvider(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewStore(ttl, clock), clock
}

func TestPutAndTake(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	media := &domain.ResolvedMedia{Title: "clip"}

	store.Put(1, link("https://youtu.be/a"), media)
	assert.Equal(t, 1, store.Len())

	sess, err := store.Take(1)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/a", sess.Link.URL)
	assert.Same(t, media, sess.Media)
	assert.Equal(t, 0, store.Len())
}

func TestTakeTwiceYieldsExpired(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/a"), nil)

	_, err := store.Take(1)
	require.NoError(t, err)

	_, err = store.Take(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tmserrors.ErrSessionExpired))
}

func TestTakeUnknownActor(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	_, err := store.Take(42)
	assert.True(t, errors.Is(err, tmserrors.ErrSessionExpired))
}

func TestLastWriteWins(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/first"), nil)
	store.Put(1, link("https://youtu.be/second"), nil)

	sess, err := store.Take(1)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/second", sess.Link.URL)
}

func TestActorsAreIsolated(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/one"), nil)
	store.Put(2, link("https://youtu.be/two"), nil)

	sess, err := store.Take(2)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/two", sess.Link.URL)

	sess, err = store.Take(1)
	require.NoError(t, err)
	assert.Equal(t, "https://youtu.be/one", sess.Link.URL)
}

func TestTakeAfterTTL(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/a"), nil)

	clock.AdvanceTime(2 * time.Minute)

	_, err := store.Take(1)
	assert.True(t, errors.Is(err, tmserrors.ErrSessionExpired))
	assert.Equal(t, 0, store.Len())
}

func TestPeek(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/a"), nil)

	_, ok := store.Peek(1)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())

	clock.AdvanceTime(2 * time.Minute)
	_, ok = store.Peek(1)
	assert.False(t, ok)
}

func TestEvictExpired(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/old"), nil)
	clock.AdvanceTime(45 * time.Second)
	store.Put(2, link("https://youtu.be/new"), nil)
	clock.AdvanceTime(30 * time.Second)

	removed := store.EvictExpired(clock.Now())

	assert.Equal(t, 1, removed)
	_, ok := store.Peek(2)
	assert.True(t, ok)
}

func TestRunEvictsPeriodically(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/a"), nil)
	clock.AdvanceTime(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	testutils.WaitForCondition(t, func() bool { return store.Len() == 0 }, time.Second, "janitor evicts session")
	cancel()
	<-done
}

func TestConcurrentAccess(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				store.Put(id, link(fmt.Sprintf("https://youtu.be/%d/%d", id, j)), nil)
				_, _ = store.Peek(id)
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 20, store.Len())
	for i := 0; i < 20; i++ {
		sess, err := store.Take(int64(i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("https://youtu.be/%d/49", i), sess.Link.URL)
	}
}

func TestDiscard(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Put(1, link("https://youtu.be/a"), nil)

	assert.True(t, store.Discard(1))
	assert.False(t, store.Discard(1))

	_, err := store.Take(1)
	assert.True(t, errors.Is(err, tmserrors.ErrSessionExpired))
}
