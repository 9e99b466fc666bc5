package memory

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/model"
)

// OrderLineStore はメモリ上の注文台帳（追記のみ）
type OrderLineStore struct {
	mu     sync.Mutex
	nextID int64
	lines  []model.OrderLine
}

func NewOrderLineStore() *OrderLineStore {
	return &OrderLineStore{}
}

func (s *OrderLineStore) Append(ctx context.Context, line model.OrderLine) (model.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	line.ID = s.nextID
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}
	s.lines = append(s.lines, line)
	return line, nil
}

func (s *OrderLineStore) ListBySession(ctx context.Context, sessionID string) ([]model.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.OrderLine{}
	for _, l := range s.lines {
		if l.SessionID == sessionID {
			out = append(out, l)
		}
	}
	return out, nil
}

// 全件のコピー
func (s *OrderLineStore) All() []model.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OrderLine, len(s.lines))
	copy(out, s.lines)
	return out
}
