package usecase

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// OrderUsecase は台帳の読み取り（セッションの注文履歴）
type OrderUsecase struct {
	ledger repo.OrderLineRepository
	log    *slog.Logger
}

func NewOrderUsecase(ledger repo.OrderLineRepository, log *slog.Logger) *OrderUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &OrderUsecase{ledger: ledger, log: log}
}

func (u *OrderUsecase) History(ctx context.Context, sessionID string) ([]model.OrderLine, error) {
	lines, err := u.ledger.ListBySession(ctx, sessionID)
	if err != nil {
		u.log.Error("order history failed", "session_id", sessionID, "error", err)
		return nil, WrapHTTPError(http.StatusInternalServerError, "Erreur lors de la récupération des commandes", ErrPersistence)
	}
	if lines == nil {
		lines = []model.OrderLine{}
	}
	return lines, nil
}
