package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 確定した注文明細（台帳）。書いたら更新も削除もしない。
type OrderLine struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CheckoutID string          `gorm:"type:uuid;not null;index" json:"checkoutId"`
	SessionID  string          `gorm:"column:sessionid;type:varchar(255);not null;index" json:"sessionId"`
	ProductID  int64           `gorm:"column:productid;not null;index" json:"productId"`
	Price      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Quantity   int64           `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"column:totalprice;type:numeric(12,2);not null" json:"totalPrice"`
	CreatedAt  time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (OrderLine) TableName() string {
	return "orders"
}
