package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 注文台帳。追記のみ（更新・削除は持たない）。
type OrderLineRepository interface {
	Append(ctx context.Context, line model.OrderLine) (model.OrderLine, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.OrderLine, error)
}
