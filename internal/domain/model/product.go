package model

import (
	"github.com/shopspring/decimal"
)

// 商品。inventoryは販売可能な在庫数（0以上）。
type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Image     string          `gorm:"type:text" json:"image"`
	Inventory int64           `gorm:"not null;check:inventory >= 0" json:"inventory"`
}

// 既存スキーマのテーブル名はproduct（単数）
func (Product) TableName() string {
	return "product"
}
