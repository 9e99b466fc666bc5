package memory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/model"
)

type cartEntry struct {
	cart      model.Cart
	expiresAt time.Time
}

// CartStore はセッションIDごとのカートをTTL付きでメモリに持つ
type CartStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	carts     map[string]cartEntry
	lastSweep time.Time
	now       func() time.Time
}

func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{
		ttl:   ttl,
		carts: make(map[string]cartEntry),
		now:   time.Now,
	}
}

func (s *CartStore) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[sessionID]
	if !ok || s.now().After(e.expiresAt) {
		delete(s.carts, sessionID)
		return model.NewCart(sessionID), nil
	}
	return copyCart(e.cart), nil
}

func (s *CartStore) Save(ctx context.Context, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	s.carts[cart.SessionID] = cartEntry{cart: copyCart(cart), expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, sessionID)
	return nil
}

// 放置されたセッションのカートを消す。走査はTTLに1回まで。
func (s *CartStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for id, e := range s.carts {
		if now.After(e.expiresAt) {
			delete(s.carts, id)
		}
	}
}

// 呼び出し側の変更がストアに漏れないようにコピーする
func copyCart(c model.Cart) model.Cart {
	lines := make([]model.CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return model.Cart{SessionID: c.SessionID, Generation: c.Generation, Lines: lines}
}
