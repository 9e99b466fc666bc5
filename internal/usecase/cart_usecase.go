package usecase

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	msgCartEmpty       = "Le panier est vide"
	msgCartReadFailed  = "Erreur lors de la récupération du panier"
	msgAdded           = "Article ajouté au panier avec succès"
	msgAddUnavailable  = "Le produit n'est plus disponible dans la quantité choisie"
	msgAddFailed       = "Erreur lors de l'ajout d'un article au panier"
	msgQuantityUpdated = "La quantité a été modifiée avec succès"
	msgQuantityTooHigh = "La quantité en stock est insuffisante pour le moment"
	msgUpdateFailed    = "Erreur lors de la mise à jour de la quantité d'un article"
	msgNotInCart       = "L'article n'est pas présent dans le panier"
	msgRemoved         = "L'article a été supprimé du panier avec succès"
	msgRemoveFailed    = "Erreur lors de la suppression de l'article du panier"
	msgInvalidRequest  = "Requête invalide"
)

// CartUsecase はセッションのカート操作。
// 追加・数量変更のたびに在庫を確認する（チェックアウト時だけではない）。
type CartUsecase struct {
	carts      repo.CartRepository
	inventory  repo.InventoryRepository
	reconciler *StockReconciler
	log        *slog.Logger
}

func NewCartUsecase(
	carts repo.CartRepository,
	inventory repo.InventoryRepository,
	reconciler *StockReconciler,
	log *slog.Logger,
) *CartUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &CartUsecase{carts: carts, inventory: inventory, reconciler: reconciler, log: log}
}

type ErrorItem struct {
	Error string `json:"error"`
}

// GET /shoppingCart/getCart のレスポンス
type CartView struct {
	ShoppingCart []model.CartLine `json:"shoppingCart"`
	Errors       []ErrorItem      `json:"errors"`
}

type MessageOutput struct {
	Message string `json:"message"`
}

type AddToCartInput struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int64
}

type AddToCartOutput struct {
	Message string `json:"message"`
	Added   bool   `json:"-"`
}

type UpdateQuantityInput struct {
	ID       int64
	Quantity int64
}

// カートを返す。在庫が足りなくなった行は外してエラーとして返し、保存済みのカートからも消す。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		u.log.Error("cart read failed", "session_id", sessionID, "error", err)
		return CartView{}, WrapHTTPError(http.StatusInternalServerError, msgCartReadFailed, ErrPersistence)
	}
	if cart.IsEmpty() {
		return CartView{ShoppingCart: []model.CartLine{}, Errors: []ErrorItem{{Error: msgCartEmpty}}}, nil
	}

	res, err := u.reconciler.Reconcile(ctx, cart.Lines)
	if err != nil {
		u.log.Error("cart stock check failed", "session_id", sessionID, "error", err)
		return CartView{}, WrapHTTPError(http.StatusInternalServerError, msgCartReadFailed, ErrPersistence)
	}

	view := CartView{ShoppingCart: res.Fulfillable, Errors: make([]ErrorItem, 0, len(res.Errors))}
	for _, e := range res.Errors {
		view.Errors = append(view.Errors, ErrorItem{Error: e.Message})
	}

	//外した行を保存済みカートにも反映
	if len(res.Errors) > 0 {
		cart.Lines = res.Fulfillable
		if err := u.carts.Save(ctx, cart); err != nil {
			u.log.Error("cart save failed", "session_id", sessionID, "error", err)
			return CartView{}, WrapHTTPError(http.StatusInternalServerError, msgCartReadFailed, ErrPersistence)
		}
	}
	return view, nil
}

// 追加分の数量で在庫を確認し、同じ商品があれば数量を足す。
// 在庫不足はエラーではなくメッセージで返す。
func (u *CartUsecase) AddToCart(ctx context.Context, sessionID string, in AddToCartInput) (AddToCartOutput, error) {
	if in.ID <= 0 || in.Quantity < 1 || in.Price.IsNegative() {
		return AddToCartOutput{}, WrapHTTPError(http.StatusBadRequest, msgInvalidRequest, ErrValidation)
	}

	ok, err := u.inventory.IsAvailable(ctx, in.ID, in.Quantity)
	if err != nil {
		u.log.Error("stock check failed", "session_id", sessionID, "product_id", in.ID, "error", err)
		return AddToCartOutput{}, WrapHTTPError(http.StatusInternalServerError, msgAddFailed, ErrPersistence)
	}
	if !ok {
		return AddToCartOutput{Message: msgAddUnavailable, Added: false}, nil
	}

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		u.log.Error("cart read failed", "session_id", sessionID, "error", err)
		return AddToCartOutput{}, WrapHTTPError(http.StatusInternalServerError, msgAddFailed, ErrPersistence)
	}
	cart.SessionID = sessionID
	cart.Upsert(model.CartLine{
		ID:       in.ID,
		Name:     in.Name,
		Price:    in.Price,
		Image:    in.Image,
		Quantity: in.Quantity,
	})
	if err := u.carts.Save(ctx, cart); err != nil {
		u.log.Error("cart save failed", "session_id", sessionID, "error", err)
		return AddToCartOutput{}, WrapHTTPError(http.StatusInternalServerError, msgAddFailed, ErrPersistence)
	}
	return AddToCartOutput{Message: msgAdded, Added: true}, nil
}

// 数量を絶対値で置き換える。カートに無ければ404、在庫不足なら400で行は変えない。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID string, in UpdateQuantityInput) (MessageOutput, error) {
	if in.ID <= 0 || in.Quantity < 1 {
		return MessageOutput{}, WrapHTTPError(http.StatusBadRequest, msgInvalidRequest, ErrValidation)
	}

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		u.log.Error("cart read failed", "session_id", sessionID, "error", err)
		return MessageOutput{}, WrapHTTPError(http.StatusInternalServerError, msgUpdateFailed, ErrPersistence)
	}
	if cart.Find(in.ID) < 0 {
		return MessageOutput{}, WrapHTTPError(http.StatusNotFound, msgNotInCart, ErrNotFound)
	}

	ok, err := u.inventory.IsAvailable(ctx, in.ID, in.Quantity)
	if err != nil {
		u.log.Error("stock check failed", "session_id", sessionID, "product_id", in.ID, "error", err)
		return MessageOutput{}, WrapHTTPError(http.StatusInternalServerError, msgUpdateFailed, ErrPersistence)
	}
	if !ok {
		return MessageOutput{}, WrapHTTPError(http.StatusBadRequest, msgQuantityTooHigh, ErrInsufficientStock)
	}

	cart.SetQuantity(in.ID, in.Quantity)
	if err := u.carts.Save(ctx, cart); err != nil {
		u.log.Error("cart save failed", "session_id", sessionID, "error", err)
		return MessageOutput{}, WrapHTTPError(http.StatusInternalServerError, msgUpdateFailed, ErrPersistence)
	}
	return MessageOutput{Message: msgQuantityUpdated}, nil
}

func (u *CartUsecase) RemoveLine(ctx context.Context, sessionID string, productID int64) (MessageOutput, error) {
	if productID <= 0 {
		return MessageOutput{}, WrapHTTPError(http.StatusBadRequest, msgInvalidRequest, ErrValidation)
	}

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		u.log.Error("cart read failed", "session_id", sessionID, "error", err)
		return MessageOutput{}, WrapHTTPError(http.StatusInternalServerError, msgRemoveFailed, ErrPersistence)
	}
	if !cart.Remove(productID) {
		return MessageOutput{}, WrapHTTPError(http.StatusNotFound, msgNotInCart, ErrNotFound)
	}
	if err := u.carts.Save(ctx, cart); err != nil {
		u.log.Error("cart save failed", "session_id", sessionID, "error", err)
		return MessageOutput{}, WrapHTTPError(http.StatusInternalServerError, msgRemoveFailed, ErrPersistence)
	}
	return MessageOutput{Message: msgRemoved}, nil
}
