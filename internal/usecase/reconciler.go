package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReconcileResult struct {
	Fulfillable []model.CartLine
	Errors      []LineError
}

// StockReconciler はカートの各行が在庫で賄えるかを並行に確認する。
// 結果は参考値で、在庫を確保はしない（確定はCheckoutUsecase側）。
type StockReconciler struct {
	inventory   repo.InventoryRepository
	parallelism int
}

func NewStockReconciler(inventory repo.InventoryRepository, parallelism int) *StockReconciler {
	if parallelism < 1 {
		parallelism = 1
	}
	return &StockReconciler{inventory: inventory, parallelism: parallelism}
}

func (r *StockReconciler) Reconcile(ctx context.Context, lines []model.CartLine) (ReconcileResult, error) {
	//行ごとの結果をindexで保持して順序を保つ
	available := make([]bool, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			ok, err := r.inventory.IsAvailable(gctx, line.ID, line.Quantity)
			if err != nil {
				return fmt.Errorf("check stock of product %d: %w", line.ID, err)
			}
			available[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ReconcileResult{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	out := ReconcileResult{
		Fulfillable: make([]model.CartLine, 0, len(lines)),
		Errors:      []LineError{},
	}
	for i, line := range lines {
		if available[i] {
			out.Fulfillable = append(out.Fulfillable, line)
			continue
		}
		out.Errors = append(out.Errors, LineError{
			ProductID: line.ID,
			Name:      line.Name,
			Kind:      LineKindInsufficientStock,
			Message:   unavailableInCartMessage(line.Name),
		})
	}
	return out, nil
}
