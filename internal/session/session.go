package session

import (
	"context"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/timeutil"
)

// Session is a link waiting for the actor to pick a variant.
type Session struct {
	Link      domain.Link
	Media     *domain.ResolvedMedia
	CreatedAt time.Time
}

// Store keeps at most one pending session per actor, in memory only.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	ttl      time.Duration
	clock    domain.TimeProvider
}

func NewStore(ttl time.Duration, clock domain.TimeProvider) *Store {
	if clock == nil {
		clock = timeutil.NewSystemTimeProvider()
	}
	return &Store{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		clock:    clock,
	}
}

// Put replaces any pending session of actorID.
func (s *Store) Put(actorID int64, link domain.Link, media *domain.ResolvedMedia) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[actorID] = &Session{
		Link:      link,
		Media:     media,
		CreatedAt: s.clock.Now(),
	}
}

// Take removes and returns the pending session of actorID. A missing or
// expired entry yields a SessionExpired error; expired entries are removed too.
func (s *Store) Take(actorID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[actorID]
	if !ok {
		return nil, expired(actorID, "no pending session")
	}
	delete(s.sessions, actorID)
	if s.isExpired(sess, s.clock.Now()) {
		return nil, expired(actorID, "pending session expired")
	}
	return sess, nil
}

// Peek returns the pending session without consuming it.
func (s *Store) Peek(actorID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[actorID]
	if !ok || s.isExpired(sess, s.clock.Now()) {
		return nil, false
	}
	return sess, true
}

// Discard drops the pending session of actorID, if any.
func (s *Store) Discard(actorID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[actorID]
	delete(s.sessions, actorID)
	return ok
}

// EvictExpired drops every session older than the TTL at now and returns how many were removed.
func (s *Store) EvictExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, v := range s.sessions {
		if s.isExpired(v, now) {
			delete(s.sessions, k)
			removed++
		}
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run evicts expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictExpired(s.clock.Now()); n > 0 {
				logutils.Log.WithField("evicted", n).Debug("Evicted expired sessions")
			}
		}
	}
}

func (s *Store) isExpired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.CreatedAt) > s.ttl
}

func expired(actorID int64, message string) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeSessionExpired, "session_expired", message).
		WithDetails(map[string]any{"actor": actorID}).
		WithUserMessage("error.session.expired")
}
