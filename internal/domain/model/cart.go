package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// カートの1行。同じ商品IDの行はカート内に1つだけ。
type CartLine struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Image      string          `json:"image"`
	Quantity   int64           `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// price × quantity
func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(l.Quantity))
}

// セッションが持つカート。セッションと一緒に消える。
// Generationは注文が確定するたびに変わる。同じ世代のカートは1回しか決済しない。
type Cart struct {
	SessionID  string     `json:"sessionId"`
	Generation string     `json:"generation"`
	Lines      []CartLine `json:"lines"`
}

// 新しい世代の空カート
func NewCart(sessionID string) Cart {
	return Cart{SessionID: sessionID, Generation: uuid.NewString(), Lines: []CartLine{}}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// 商品IDの行番号を返す（無ければ-1）
func (c *Cart) Find(productID int64) int {
	for i, l := range c.Lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// 同一商品は数量加算、無ければ末尾に追加
func (c *Cart) Upsert(line CartLine) {
	if i := c.Find(line.ID); i >= 0 {
		c.Lines[i].Quantity += line.Quantity
		c.Lines[i].TotalPrice = c.Lines[i].Total()
		return
	}
	line.TotalPrice = line.Total()
	c.Lines = append(c.Lines, line)
}

// 数量を絶対値で置き換える。行が無ければfalse。
func (c *Cart) SetQuantity(productID int64, qty int64) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Lines[i].Quantity = qty
	c.Lines[i].TotalPrice = c.Lines[i].Total()
	return true
}

// 行を削除。行が無ければfalse。
func (c *Cart) Remove(productID int64) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}
