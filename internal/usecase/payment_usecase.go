package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 支払い手段の検証（状態を持たない）
type PaymentValidator interface {
	Validate(cardNumber string, dateExpiration string) error
}

const (
	msgPaymentInvalid    = "Les informations de paiement sont invalides"
	msgCheckoutDuplicate = "Cette commande a déjà été traitée"
	msgCheckoutFailed    = "Erreur lors de la création de la commande"
	msgOrderComplete     = "Commande validée"
	msgOrderPartial      = "Commande partiellement validée"
	msgOrderNone         = "Aucun article n'a pu être commandé"
)

type PaymentInput struct {
	SessionID      string
	CardNumber     string
	DateExpiration string
	IdempotencyKey string
}

type PaymentOutput struct {
	CheckoutID string            `json:"checkoutId"`
	Message    string            `json:"message"`
	Order      []model.OrderLine `json:"order"`
	Errors     []ErrorItem       `json:"errors"`
}

// 1行でもコミットされたか
func (o PaymentOutput) Fulfilled() bool {
	return len(o.Order) > 0
}

// PaymentUsecase は支払い検証→チェックアウト→カート更新を行う。
// 一部の行だけ確定する部分的な注文を許す。
type PaymentUsecase struct {
	validator PaymentValidator
	carts     repo.CartRepository
	checkouts repo.CheckoutRepository
	checkout  *CheckoutUsecase
	log       *slog.Logger
}

func NewPaymentUsecase(
	validator PaymentValidator,
	carts repo.CartRepository,
	checkouts repo.CheckoutRepository,
	checkout *CheckoutUsecase,
	log *slog.Logger,
) *PaymentUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentUsecase{
		validator: validator,
		carts:     carts,
		checkouts: checkouts,
		checkout:  checkout,
		log:       log,
	}
}

func (u *PaymentUsecase) Pay(ctx context.Context, in PaymentInput) (PaymentOutput, error) {
	if err := u.validator.Validate(in.CardNumber, in.DateExpiration); err != nil {
		return PaymentOutput{}, WrapHTTPError(http.StatusBadRequest, msgPaymentInvalid, ErrValidation)
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return PaymentOutput{}, WrapHTTPError(http.StatusBadRequest, "invalid idempotency key", ErrValidation)
	}

	cart, err := u.carts.Get(ctx, in.SessionID)
	if err != nil {
		u.log.Error("cart read failed", "session_id", in.SessionID, "error", err)
		return PaymentOutput{}, WrapHTTPError(http.StatusInternalServerError, msgCartReadFailed, ErrPersistence)
	}
	if cart.IsEmpty() {
		return PaymentOutput{}, WrapHTTPError(http.StatusBadRequest, msgCartEmpty, ErrValidation)
	}
	if key == "" {
		key = cartIdempotencyKey(cart)
	}

	//同じキーでの再送は受け付けない
	checkoutID := uuid.NewString()
	err = u.checkouts.Claim(ctx, model.Checkout{
		ID:             checkoutID,
		SessionID:      in.SessionID,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return PaymentOutput{}, WrapHTTPError(http.StatusConflict, msgCheckoutDuplicate, ErrDuplicateCheckout)
	}
	if err != nil {
		u.log.Error("checkout claim failed", "session_id", in.SessionID, "error", err)
		return PaymentOutput{}, WrapHTTPError(http.StatusInternalServerError, msgCheckoutFailed, ErrPersistence)
	}

	res, err := u.checkout.Checkout(ctx, CheckoutInput{SessionID: in.SessionID, CheckoutID: checkoutID, Cart: cart})
	if err != nil {
		u.releaseClaim(ctx, in.SessionID, key)
		return PaymentOutput{}, WrapHTTPError(http.StatusInternalServerError, msgCheckoutFailed, ErrPersistence)
	}

	out := PaymentOutput{
		CheckoutID: checkoutID,
		Order:      res.Committed(),
		Errors:     make([]ErrorItem, 0, len(res.Errors)),
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ErrorItem{Error: e.Message})
	}

	switch {
	case len(out.Order) == 0:
		//何も確定していないので同じキーで再試行できるようにする
		u.releaseClaim(ctx, in.SessionID, key)
		out.Message = msgOrderNone
		return out, nil
	case len(out.Errors) == 0:
		out.Message = msgOrderComplete
	default:
		out.Message = msgOrderPartial
	}

	u.removeCommitted(ctx, in.SessionID, checkoutID, out.Order)
	return out, nil
}

// キー指定が無いときはカートの世代から作る。
// 同じカートを同時に送っても同じキーになり、2回目はClaimで弾かれる。
func cartIdempotencyKey(cart model.Cart) string {
	if cart.Generation == "" {
		return uuid.NewString()
	}
	return "cart:" + cart.Generation
}

// 確定した行だけカートから外す。確定しなかった行は残して再挑戦できるようにする。
// 処理中に追加された行を消さないよう、最新のカートを読み直す。
// 残ったカートは新しい世代にする。空になったら消す。
func (u *PaymentUsecase) removeCommitted(ctx context.Context, sessionID string, checkoutID string, committed []model.OrderLine) {
	ctx = context.WithoutCancel(ctx)

	cart, err := u.carts.Get(ctx, sessionID)
	if err != nil {
		u.log.Error("cart read after checkout failed", "session_id", sessionID, "error", err)
		return
	}
	for _, ol := range committed {
		cart.Remove(ol.ProductID)
	}

	if cart.IsEmpty() {
		if err := u.carts.Delete(ctx, sessionID); err != nil {
			u.log.Error("cart delete after checkout failed", "session_id", sessionID, "error", err)
		}
		return
	}
	cart.Generation = checkoutID
	if err := u.carts.Save(ctx, cart); err != nil {
		u.log.Error("cart save after checkout failed", "session_id", sessionID, "error", err)
	}
}

func (u *PaymentUsecase) releaseClaim(ctx context.Context, sessionID string, key string) {
	if err := u.checkouts.Release(context.WithoutCancel(ctx), sessionID, key); err != nil {
		u.log.Error("checkout release failed", "session_id", sessionID, "error", err)
	}
}
