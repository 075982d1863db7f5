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

// CartStore keeps a local cache of the signed-in user's product cart
// synchronized with the backend. All mutations are fetch-confirm: the
// local snapshot only ever changes by re-reading authoritative server
// state, never by speculative local edits.
type CartStore struct {
	api    *api.Client
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot *domain.CartSnapshot
	applied  uint64

	// seq fences refreshes: a fetched snapshot is applied only when its
	// triggering sequence number is still the newest issued, so an
	// out-of-order refresh response cannot clobber a newer one.
	seq  atomic.Uint64
	busy atomic.Bool

	sfg singleflight.Group // Collapses overlapping idle refreshes
}

func NewCartStore(client *api.Client, logger *zap.Logger) *CartStore {
	return &CartStore{
		api:    client,
		logger: logger,
	}
}

// Snapshot returns the current cart view, or nil before the first
// successful sync. The returned value is a copy.
func (s *CartStore) Snapshot() *domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Busy reports whether a mutating operation is in flight. It gates UI
// actions only; operations themselves are never rejected while busy.
func (s *CartStore) Busy() bool {
	return s.busy.Load()
}

// Refresh fetches the cart and replaces the snapshot wholesale. With no
// stored credential it returns without issuing a request. On failure the
// previous snapshot is left untouched and the error is only logged.
//
// An idle refresh may not satisfy read-your-writes for a write that is in
// flight while its GET runs, so its result is applied only if no mutation
// was issued and none was applied between its start and its completion;
// otherwise the mutation's own follow-up refresh delivers the post-write
// state and this one is discarded.
func (s *CartStore) Refresh(ctx context.Context) error {
	if !s.api.HasCredential() {
		return nil
	}

	startSeq := s.seq.Load()
	s.mu.RLock()
	startApplied := s.applied
	s.mu.RUnlock()

	v, err, _ := s.sfg.Do("cart", func() (interface{}, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		s.logger.Warn("cart refresh failed", zap.Error(err))
		return fmt.Errorf("cart refresh: %w", err)
	}

	snap := v.(*domain.CartSnapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq.Load() != startSeq || s.applied != startApplied {
		s.logger.Debug("discarding cart refresh that raced a write")
		return nil
	}
	s.snapshot = snap
	return nil
}

// refreshAfterWrite is the follow-up refresh of a confirmed mutation. It
// always performs its own round trip; sharing a fetch that may have
// started before the write reached the server would let a successful
// mutation cache pre-write state under its own fence.
func (s *CartStore) refreshAfterWrite(ctx context.Context, fence uint64) error {
	if !s.api.HasCredential() {
		return nil
	}

	snap, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("cart refresh failed", zap.Error(err))
		return fmt.Errorf("cart refresh: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if fence < s.seq.Load() || fence < s.applied {
		// A newer mutation was issued while this fetch was in flight.
		s.logger.Debug("discarding stale cart refresh", zap.Uint64("fence", fence))
		return nil
	}
	s.snapshot = snap
	s.applied = fence
	return nil
}

func (s *CartStore) fetch(ctx context.Context) (*domain.CartSnapshot, error) {
	var snap domain.CartSnapshot
	if err := s.api.Get(ctx, "/cart/cart", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddItem issues an add-or-increment request for the product. Quantities
// below 1 are floored to 1; a quantity of 0 is never sent on the wire.
func (s *CartStore) AddItem(ctx context.Context, productID int64, quantity int) Result {
	if quantity < 1 {
		quantity = 1
	}

	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	err := s.api.Post(ctx, "/cart/cart/add", addItemRequest{ProductID: productID, Quantity: quantity}, nil)
	if err != nil {
		return failure(err)
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after add failed", zap.Int64("product_id", productID), zap.Error(err))
	}
	return ok()
}

// UpdateQuantity sets the quantity of an existing cart line. Quantities
// below 1 are floored to 1 so an update can never turn into an implicit
// delete-via-zero.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID int64, quantity int) Result {
	if quantity < 1 {
		quantity = 1
	}

	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	err := s.api.Put(ctx, fmt.Sprintf("/cart/cart/update/%d", lineID), updateQuantityRequest{Quantity: quantity}, nil)
	if err != nil {
		return failure(err)
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after update failed", zap.Int64("line_id", lineID), zap.Error(err))
	}
	return ok()
}

// RemoveItem deletes a cart line.
func (s *CartStore) RemoveItem(ctx context.Context, lineID int64) Result {
	s.busy.Store(true)
	defer s.busy.Store(false)
	fence := s.seq.Add(1)

	err := s.api.Delete(ctx, fmt.Sprintf("/cart/cart/remove/%d", lineID), nil)
	if err != nil {
		return failure(err)
	}

	if err := s.refreshAfterWrite(ctx, fence); err != nil {
		s.logger.Warn("refresh after remove failed", zap.Int64("line_id", lineID), zap.Error(err))
	}
	return ok()
}
