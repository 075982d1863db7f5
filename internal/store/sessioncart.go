package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/powerzone/gymclient/internal/api"
	"github.com/powerzone/gymclient/internal/domain"
)

// SessionCartStore mirrors CartStore for class session bookings. Sessions
// are singleton bookings, so there is no quantity update; the extra
// operation is a bulk clear used before starting a fresh booking flow.
type SessionCartStore struct {
	api    *api.Client
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot *domain.SessionCartSnapshot
	applied  uint64

	seq  atomic.Uint64
	busy atomic.Bool

	sfg singleflight.Group
}

func NewSessionCartStore(client *api.Client, logger *zap.Logger) *SessionCartStore {
	return &SessionCartStore{
		api:    client,
		logger: logger,
	}
}

// AddSessionResult is the outcome of a booking attempt; Line carries the
// server's view of the created cart line on success.
type AddSessionResult struct {
	Result
	Line *domain.SessionCartLine `json:"data,omitempty"`
}

// Snapshot returns the current session cart view, or nil before the first
// successful sync. The returned value is a copy.
func (s *SessionCartStore) Snapshot() *domain.SessionCartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Busy reports whether a mutating operation is in flight.
func (s *SessionCartStore) Busy() bool {
	return s.busy.Load()
}

// Refresh fetches the session cart and replaces the snapshot wholesale.
// Same contract as CartStore.Refresh: the result is discarded if a
// mutation was issued or applied while the fetch was in flight.
func (s *SessionCartStore) Refresh(ctx context.Context) error {
	if !s.api.HasCredential() {
		return nil
	}

	startSeq := s.seq.Load()
	s.mu.RLock()
	startApplied := s.applied
	s.mu.RUnlock()

	v, err, _ := s.sfg.Do("session-cart", func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		s.logger.Warn("session cart refresh failed", zap.Error(err))
		return fmt.Errorf("session cart refresh: %w", err)
	}

	snap := v.(*domain.SessionCartSnapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Load() != startSeq || s.applied != startApplied {
		s.logger.Debug("discarding session cart refresh that raced a write")
		return nil
	}
	s.snapshot = snap
	return nil
}

// refreshAfterWrite always performs its own round trip so a confirmed
// booking can never cache pre-write state from a shared fetch.
func (s *SessionCartStore) refreshAfterWrite(ctx context.Context, fence uint64) error {
	if !s.api.HasCredential() {
		return nil
	}

	snap, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("session cart refresh failed", zap.Error(err))
		return fmt.Errorf("session cart refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if fence < s.seq.Load() || fence < s.applied {
		s.logger.Debug("discarding stale session cart refresh", zap.Uint64("fence", fence))
		return nil
	}
	s.snapshot = snap
	s.applied = fence
	return nil
}

func (s *SessionCartStore) fetch(ctx context.Context) (*domain.SessionCartSnapshot, error) {
	var snap domain.SessionCartSnapshot
	if err := s.api.Get(ctx, "/session-cart/", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type addSessionRequest struct {
	SessionID int64 `json:"session_id"`
}

// AddSession books a class session. Capacity is not checked locally; the
// server is authoritative and its rejection message (e.g. "Session is
// full") is surfaced verbatim.
func (s *SessionCartStore) AddSession(ctx context.Context, sessionID int64) AddSessionResult {
	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	var line domain.SessionCartLine
	err := s.api.Post(ctx, "/session-cart/add", addSessionRequest{SessionID: sessionID}, &line)
	if err != nil {
		return AddSessionResult{Result: failure(err)}
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after booking failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}
	return AddSessionResult{Result: ok(), Line: &line}
}

// RemoveSession removes one booked session from the cart.
func (s *SessionCartStore) RemoveSession(ctx context.Context, cartItemID int64) Result {
	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	err := s.api.Delete(ctx, fmt.Sprintf("/session-cart/remove/%d", cartItemID), nil)
	if err != nil {
		return failure(err)
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after unbook failed", zap.Int64("cart_item_id", cartItemID), zap.Error(err))
	}
	return ok()
}

// ClearAll empties the session cart in one request.
func (s *SessionCartStore) ClearAll(ctx context.Context) Result {
	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	err := s.api.Delete(ctx, "/session-cart/clear", nil)
	if err != nil {
		return failure(err)
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after clear failed", zap.Error(err))
	}
	return ok()
}
