package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// unique_violation
const pgUniqueViolation = "23505"

type CheckoutGormRepository struct {
	db *gorm.DB
}

func NewCheckoutGormRepository(db *gorm.DB) *CheckoutGormRepository {
	return &CheckoutGormRepository{db: db}
}

// 同じセッション・同じキーが既にあればErrDuplicate（一意インデックスで判定）
func (r *CheckoutGormRepository) Claim(ctx context.Context, c model.Checkout) error {
	err := r.db.WithContext(ctx).Create(&c).Error
	if isUniqueViolation(err) {
		return repo.ErrDuplicate
	}
	return err
}

func (r *CheckoutGormRepository) Release(ctx context.Context, sessionID string, idempotencyKey string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND idempotency_key = ?", sessionID, idempotencyKey).
		Delete(&model.Checkout{}).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
