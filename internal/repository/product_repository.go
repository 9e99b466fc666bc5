package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（同じキーの二重登録など）
	ErrDuplicate = errors.New("duplicate")
)

// 商品カタログの読み取りだけを約束。
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
}
