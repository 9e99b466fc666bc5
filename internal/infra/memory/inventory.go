package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// InventoryStore はメモリ上の商品カタログ兼在庫。
// ProductRepository と InventoryRepository の両方を満たす。
type InventoryStore struct {
	mu       sync.RWMutex
	products map[int64]model.Product
}

func NewInventoryStore(products ...model.Product) *InventoryStore {
	s := &InventoryStore{products: make(map[int64]model.Product, len(products))}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// 商品を登録（初期データ・テスト用）
func (s *InventoryStore) Put(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *InventoryStore) List(ctx context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InventoryStore) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return s.Get(ctx, id)
}

func (s *InventoryStore) Get(ctx context.Context, productID int64) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *InventoryStore) IsAvailable(ctx context.Context, productID int64, qty int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	return ok && p.Inventory >= qty, nil
}

// 判定と減算を同じロックの中で行う
func (s *InventoryStore) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("invalid quantity %d", qty)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return false, repo.ErrNotFound
	}
	if p.Inventory < qty {
		return false, nil
	}
	p.Inventory -= qty
	s.products[productID] = p
	return true, nil
}

func (s *InventoryStore) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Inventory += qty
	s.products[productID] = p
	return nil
}
