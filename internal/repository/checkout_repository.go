package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 決済の受付記録（二重送信防止）
type CheckoutRepository interface {
	// 同じセッションに同じidempotency_keyが既にあればErrDuplicate
	Claim(ctx context.Context, c model.Checkout) error

	// 何も確定しなかった決済のキーを解放する
	Release(ctx context.Context, sessionID string, idempotencyKey string) error
}
