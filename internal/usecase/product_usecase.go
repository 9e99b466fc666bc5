package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	log         *slog.Logger
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, log *slog.Logger) *ProductUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &ProductUsecase{productRepo: productRepo, log: log}
}

func (u *ProductUsecase) ListProducts(ctx context.Context) ([]model.Product, error) {
	items, err := u.productRepo.List(ctx)
	if err != nil {
		u.log.Error("product list failed", "error", err)
		return nil, WrapHTTPError(http.StatusInternalServerError, "Erreur lors de la récupération des produits", ErrPersistence)
	}
	if items == nil {
		items = []model.Product{}
	}
	return items, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, WrapHTTPError(http.StatusBadRequest, "invalid product id", ErrValidation)
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, WrapHTTPError(http.StatusNotFound, "Produit introuvable", ErrNotFound)
	}
	if err != nil {
		u.log.Error("product read failed", "product_id", productID, "error", err)
		return model.Product{}, WrapHTTPError(http.StatusInternalServerError, "Erreur lors de la récupération du produit", ErrPersistence)
	}
	return p, nil
}
