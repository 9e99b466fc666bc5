package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// セッションIDをキーにしたカート置き場。
// 未知のセッションは空のカートを返す（エラーにしない）。
type CartRepository interface {
	Get(ctx context.Context, sessionID string) (model.Cart, error)
	Save(ctx context.Context, cart model.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
