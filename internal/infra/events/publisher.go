package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// 台帳に1行コミットされたときのイベント
type OrderLineCommitted struct {
	CheckoutID string          `json:"checkoutId"`
	SessionID  string          `json:"sessionId"`
	ProductID  int64           `json:"productId"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	At         time.Time       `json:"at"`
}

// Publisherはコミット済み注文行の通知先
type Publisher interface {
	PublishOrderLine(ctx context.Context, ev OrderLineCommitted) error
	Close() error
}

// 何もしないPublisher（KAFKA_BROKERS未設定時）
type NopPublisher struct{}

func (NopPublisher) PublishOrderLine(ctx context.Context, ev OrderLineCommitted) error { return nil }
func (NopPublisher) Close() error                                                      { return nil }
