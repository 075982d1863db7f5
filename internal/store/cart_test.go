package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/powerzone/gymclient/internal/api"
	"github.com/powerzone/gymclient/internal/config"
	"github.com/powerzone/gymclient/internal/credentials"
	"github.com/powerzone/gymclient/internal/domain"
)

// cartServer is a minimal in-memory backend for the product cart
// endpoints. It computes line and cart totals itself, like the real one.
type cartServer struct {
	mu       sync.Mutex
	nextLine int64
	lines    []domain.CartLine
	requests int

	addErr string // when set, POST add fails with this message

	// when non-nil, GET blocks until the channel is closed
	blockGet chan struct{}
	blockmu  sync.Mutex
}

func newCartServer() *cartServer {
	return &cartServer{nextLine: 1}
}

func (cs *cartServer) snapshot() domain.CartSnapshot {
	snap := domain.CartSnapshot{Items: append([]domain.CartLine{}, cs.lines...)}
	for _, line := range cs.lines {
		snap.TotalItems += line.Quantity
		snap.TotalPrice += line.ItemTotal
	}
	return snap
}

func (cs *cartServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.requests++
		cs.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/cart/cart":
			cs.blockmu.Lock()
			block := cs.blockGet
			cs.blockmu.Unlock()
			if block != nil {
				<-block
			}
			cs.mu.Lock()
			snap := cs.snapshot()
			cs.mu.Unlock()
			json.NewEncoder(w).Encode(snap)

		case r.Method == http.MethodPost && r.URL.Path == "/cart/cart/add":
			var req struct {
				ProductID int64 `json:"product_id"`
				Quantity  int   `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			cs.mu.Lock()
			defer cs.mu.Unlock()
			if cs.addErr != "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": cs.addErr})
				return
			}
			for i := range cs.lines {
				if cs.lines[i].ProductID == req.ProductID {
					cs.lines[i].Quantity += req.Quantity
					cs.lines[i].ItemTotal = cs.lines[i].Price * float64(cs.lines[i].Quantity)
					w.WriteHeader(http.StatusOK)
					return
				}
			}
			cs.lines = append(cs.lines, domain.CartLine{
				ID:        cs.nextLine,
				ProductID: req.ProductID,
				Quantity:  req.Quantity,
				Price:     10,
				ItemTotal: 10 * float64(req.Quantity),
			})
			cs.nextLine++

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/cart/cart/update/"):
			id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/cart/cart/update/"), 10, 64)
			var req struct {
				Quantity int `json:"quantity"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			cs.mu.Lock()
			defer cs.mu.Unlock()
			for i := range cs.lines {
				if cs.lines[i].ID == id {
					cs.lines[i].Quantity = req.Quantity
					cs.lines[i].ItemTotal = cs.lines[i].Price * float64(req.Quantity)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Cart item not found"})

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/cart/cart/remove/"):
			id, _ := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/cart/cart/remove/"), 10, 64)
			cs.mu.Lock()
			defer cs.mu.Unlock()
			for i := range cs.lines {
				if cs.lines[i].ID == id {
					cs.lines = append(cs.lines[:i], cs.lines[i+1:]...)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "Cart item not found"})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestCartStore(t *testing.T, cs *cartServer, token string) *CartStore {
	t.Helper()
	srv := httptest.NewServer(cs.handler())
	t.Cleanup(srv.Close)

	client := api.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		credentials.StaticToken(token), zap.NewNop())
	return NewCartStore(client, zap.NewNop())
}

func TestCartStore_AddItemReplacesSnapshotWithServerState(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "tok")
	ctx := context.Background()

	require.NoError(t, store.Refresh(ctx))
	assert.False(t, store.Snapshot().HasItems())

	res := store.AddItem(ctx, 7, 2)
	require.True(t, res.Success)

	snap := store.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, &domain.CartSnapshot{
		Items: []domain.CartLine{
			{ID: 1, ProductID: 7, Quantity: 2, Price: 10, ItemTotal: 20},
		},
		TotalItems: 2,
		TotalPrice: 20,
	}, snap)
}

func TestCartStore_TotalsMatchSumOfLines(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "tok")
	ctx := context.Background()

	require.True(t, store.AddItem(ctx, 1, 2).Success)
	require.True(t, store.AddItem(ctx, 2, 3).Success)
	require.True(t, store.UpdateQuantity(ctx, 1, 5).Success)
	require.True(t, store.RemoveItem(ctx, 2).Success)

	snap := store.Snapshot()
	require.NotNil(t, snap)

	wantItems := 0
	wantPrice := 0.0
	for _, line := range snap.Items {
		wantItems += line.Quantity
		wantPrice += line.ItemTotal
	}
	assert.Equal(t, wantItems, snap.TotalItems)
	assert.InDelta(t, wantPrice, snap.TotalPrice, 1e-9)
}

func TestCartStore_RefreshWithoutCredentialIsNoop(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "")

	require.NoError(t, store.Refresh(context.Background()))

	assert.Nil(t, store.Snapshot())
	cs.mu.Lock()
	defer cs.mu.Unlock()
	assert.Zero(t, cs.requests, "no network call should be issued without a credential")
}

func TestCartStore_FailedAddLeavesSnapshotUntouched(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "tok")
	ctx := context.Background()

	require.True(t, store.AddItem(ctx, 1, 1).Success)
	before := store.Snapshot()

	cs.mu.Lock()
	cs.addErr = "Out of stock"
	cs.mu.Unlock()

	res := store.AddItem(ctx, 2, 1)
	assert.Equal(t, Result{Success: false, Error: "Out of stock"}, res)
	assert.Equal(t, before, store.Snapshot())
}

func TestCartStore_QuantityIsFlooredToOne(t *testing.T) {
	var gotAdd, gotUpdate int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Quantity int `json:"quantity"`
		}
		switch {
		case r.Method == http.MethodPost:
			json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			gotAdd = req.Quantity
			mu.Unlock()
		case r.Method == http.MethodPut:
			json.NewDecoder(r.Body).Decode(&req)
			mu.Lock()
			gotUpdate = req.Quantity
			mu.Unlock()
		default:
			json.NewEncoder(w).Encode(domain.CartSnapshot{})
		}
	}))
	defer srv.Close()

	client := api.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		credentials.StaticToken("tok"), zap.NewNop())
	store := NewCartStore(client, zap.NewNop())
	ctx := context.Background()

	require.True(t, store.AddItem(ctx, 1, 0).Success)
	require.True(t, store.UpdateQuantity(ctx, 1, -3).Success)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, gotAdd, "quantity 0 must never be sent on the wire")
	assert.Equal(t, 1, gotUpdate)
}

func TestCartStore_ConcurrentAddsBothReachServer(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "tok")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(ctx, 7, 1)
		}()
	}
	wg.Wait()

	// No de-duplication: both increments applied server-side, and the
	// final snapshot carries the server's total, not a naive local sum.
	require.NoError(t, store.Refresh(ctx))
	snap := store.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.TotalItems)
}

func TestCartStore_StaleRefreshIsDiscarded(t *testing.T) {
	cs := newCartServer()
	store := newTestCartStore(t, cs, "tok")
	ctx := context.Background()

	// Block the GET issued by a plain Refresh while the cart is still empty.
	block := make(chan struct{})
	cs.blockmu.Lock()
	cs.blockGet = block
	cs.blockmu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- store.Refresh(ctx)
	}()

	// Give the background refresh time to issue its GET, then let the
	// mutation's own refresh through unblocked.
	time.Sleep(50 * time.Millisecond)
	cs.blockmu.Lock()
	cs.blockGet = nil
	cs.blockmu.Unlock()

	require.True(t, store.AddItem(ctx, 7, 2).Success)
	snap := store.Snapshot()
	require.NotNil(t, snap)
	require.Equal(t, 2, snap.TotalItems)

	// Release the stale fetch; its empty-cart response must not clobber
	// the newer state.
	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, 2, store.Snapshot().TotalItems)
}

func TestCartStore_RefreshRacingAWriteCannotMaskIt(t *testing.T) {
	cs := newCartServer()

	postEntered := make(chan struct{})
	postRelease := make(chan struct{})
	getEntered := make(chan struct{})
	getRelease := make(chan struct{})
	var postOnce, getOnce sync.Once
	var mu sync.Mutex
	gets := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			mu.Lock()
			gets++
			first := gets == 1
			mu.Unlock()
			if first {
				// This fetch observed the cart before the write and its
				// response is delayed until after everything else.
				getOnce.Do(func() { close(getEntered) })
				<-getRelease
				json.NewEncoder(w).Encode(domain.CartSnapshot{Items: []domain.CartLine{}})
				return
			}
		}
		if r.Method == http.MethodPost {
			postOnce.Do(func() { close(postEntered) })
			<-postRelease
		}
		cs.handler().ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := api.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		credentials.StaticToken("tok"), zap.NewNop())
	store := NewCartStore(client, zap.NewNop())
	ctx := context.Background()

	// The mutation goes out first and is held at the server.
	addDone := make(chan Result, 1)
	go func() {
		addDone <- store.AddItem(ctx, 7, 2)
	}()
	<-postEntered

	// A background sync starts while the write is still in flight; its GET
	// sees the empty cart.
	refreshDone := make(chan error, 1)
	go func() {
		refreshDone <- store.Refresh(ctx)
	}()
	<-getEntered

	// The write completes; its follow-up refresh must do its own round
	// trip and observe the added line.
	close(postRelease)
	res := <-addDone
	require.True(t, res.Success)

	snap := store.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.TotalItems, "a successful add must be visible once it returns")

	// The pre-write response arrives last and must be discarded.
	close(getRelease)
	require.NoError(t, <-refreshDone)
	assert.Equal(t, 2, store.Snapshot().TotalItems)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, gets, "the follow-up refresh must not share the racing fetch")
}

func TestCartStore_BusyFlagLifecycle(t *testing.T) {
	cs := newCartServer()

	proceed := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			once.Do(func() { close(entered) })
			<-proceed
		}
		cs.handler().ServeHTTP(w, r)
	}))
	defer srv.Close()

	client := api.NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second},
		credentials.StaticToken("tok"), zap.NewNop())
	store := NewCartStore(client, zap.NewNop())

	assert.False(t, store.Busy())

	done := make(chan Result, 1)
	go func() {
		done <- store.AddItem(context.Background(), 1, 1)
	}()

	<-entered
	assert.True(t, store.Busy())
	close(proceed)
	res := <-done
	require.True(t, res.Success)
	assert.False(t, store.Busy())
}
