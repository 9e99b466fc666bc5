package memory

import (
	"context"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// キーはセッションごとに一意
type claimKey struct {
	sessionID      string
	idempotencyKey string
}

type CheckoutStore struct {
	mu     sync.Mutex
	claims map[claimKey]model.Checkout
}

func NewCheckoutStore() *CheckoutStore {
	return &CheckoutStore{claims: make(map[claimKey]model.Checkout)}
}

func (s *CheckoutStore) Claim(ctx context.Context, c model.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := claimKey{sessionID: c.SessionID, idempotencyKey: c.IdempotencyKey}
	if _, ok := s.claims[k]; ok {
		return repo.ErrDuplicate
	}
	s.claims[k] = c
	return nil
}

func (s *CheckoutStore) Release(ctx context.Context, sessionID string, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.claims, claimKey{sessionID: sessionID, idempotencyKey: idempotencyKey})
	return nil
}
