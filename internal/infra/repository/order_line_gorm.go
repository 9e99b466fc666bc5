package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
)

type OrderLineGormRepository struct {
	db *gorm.DB
}

func NewOrderLineGormRepository(db *gorm.DB) *OrderLineGormRepository {
	return &OrderLineGormRepository{db: db}
}

// 1行INSERT。途中まで書かれることはない。
func (r *OrderLineGormRepository) Append(ctx context.Context, line model.OrderLine) (model.OrderLine, error) {
	if err := r.db.WithContext(ctx).Create(&line).Error; err != nil {
		return model.OrderLine{}, err
	}
	return line, nil
}

func (r *OrderLineGormRepository) ListBySession(ctx context.Context, sessionID string) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	err := r.db.WithContext(ctx).
		Where("sessionid = ?", sessionID).
		Order("id asc").
		Find(&lines).Error
	if err != nil {
		return []model.OrderLine{}, err
	}
	return lines, nil
}
