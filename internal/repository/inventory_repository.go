package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 商品ごとの在庫カウンタ。減算は条件付きの1回の更新で行う。
type InventoryRepository interface {
	// 商品を取得（無ければErrNotFound）
	Get(ctx context.Context, productID int64) (model.Product, error)

	// 商品が存在し、在庫がqty以上ならtrue。副作用なし。
	IsAvailable(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫が足りるときだけ減算。足りなければ(false, nil)、商品が無ければErrNotFound。
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（台帳書き込み失敗時の補償）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
}
