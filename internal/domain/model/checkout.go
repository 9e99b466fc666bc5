package model

import "time"

// 決済1回分の受付記録。セッション内で同じidempotency_keyは1回しか通さない。
type Checkout struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID      string    `gorm:"type:varchar(255);not null;uniqueIndex:checkouts_session_key_unique,priority:1" json:"sessionId"`
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:checkouts_session_key_unique,priority:2" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}
