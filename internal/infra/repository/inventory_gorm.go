package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 商品を取得
func (r *InventoryGormRepository) Get(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, productID).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 在庫がqty以上あるか（読むだけ）
func (r *InventoryGormRepository) IsAvailable(ctx context.Context, productID int64, qty int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND inventory >= ?", productID, qty).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 在庫が足りるときだけ減らす。判定と減算は同じUPDATE文の中で行う。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("invalid quantity %d", qty)
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND inventory >= ?", productID, qty).
		Update("inventory", gorm.Expr("inventory - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	//0件なら在庫不足か商品なしかを見分ける
	if _, err := r.Get(ctx, productID); err != nil {
		return false, err
	}
	return false, nil
}

// 在庫戻し（補償）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("inventory", gorm.Expr("inventory + ?", qty))

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
