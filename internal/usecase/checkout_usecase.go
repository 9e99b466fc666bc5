package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront/internal/domain/model"
	"storefront/internal/infra/events"
	repo "storefront/internal/repository"
)

// LineState はチェックアウト中の1行の状態。Pending以外は終端。
type LineState string

const (
	LinePending   LineState = "pending"
	LineCommitted LineState = "committed"
	LineRejected  LineState = "rejected"
	LineFailed    LineState = "failed"
)

// 行ごとの結果を数える先（Prometheusなど）
type LineObserver interface {
	ObserveLine(outcome string)
}

type LineOutcome struct {
	Line      model.CartLine
	State     LineState
	OrderLine *model.OrderLine
	Err       *LineError
}

type CheckoutInput struct {
	SessionID  string
	CheckoutID string
	Cart       model.Cart
}

type CheckoutResult struct {
	Lines  []LineOutcome
	Errors []LineError
}

// コミットされた注文行（カート順）
func (r CheckoutResult) Committed() []model.OrderLine {
	out := []model.OrderLine{}
	for _, l := range r.Lines {
		if l.State == LineCommitted && l.OrderLine != nil {
			out = append(out, *l.OrderLine)
		}
	}
	return out
}

// CheckoutUsecase はカートの各行を独立に確定する。
// 在庫の減算は必ず条件付きの一発更新で行い、台帳への記録に失敗したら戻す。
type CheckoutUsecase struct {
	inventory   repo.InventoryRepository
	ledger      repo.OrderLineRepository
	publisher   events.Publisher
	observer    LineObserver
	log         *slog.Logger
	parallelism int
}

func NewCheckoutUsecase(
	inventory repo.InventoryRepository,
	ledger repo.OrderLineRepository,
	publisher events.Publisher,
	observer LineObserver,
	log *slog.Logger,
	parallelism int,
) *CheckoutUsecase {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &CheckoutUsecase{
		inventory:   inventory,
		ledger:      ledger,
		publisher:   publisher,
		observer:    observer,
		log:         log,
		parallelism: parallelism,
	}
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if in.SessionID == "" {
		return CheckoutResult{}, ErrValidation
	}

	lines := in.Cart.Lines
	out := CheckoutResult{
		Lines:  make([]LineOutcome, len(lines)),
		Errors: []LineError{},
	}
	//空なら何もしない
	if len(lines) == 0 {
		return out, nil
	}

	//行ごとに並行処理。1行の失敗で他を止めないので、goroutineはエラーを返さない
	var g errgroup.Group
	g.SetLimit(u.parallelism)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			out.Lines[i] = u.commitLine(ctx, in, line)
			return nil
		})
	}
	_ = g.Wait()

	for _, l := range out.Lines {
		if l.Err != nil {
			out.Errors = append(out.Errors, *l.Err)
		}
		if u.observer != nil {
			u.observer.ObserveLine(string(l.State))
		}
	}
	return out, nil
}

func (u *CheckoutUsecase) commitLine(ctx context.Context, in CheckoutInput, line model.CartLine) LineOutcome {
	log := u.log.With("session_id", in.SessionID, "checkout_id", in.CheckoutID, "product_id", line.ID, "quantity", line.Quantity)

	//確定直前にもう一度在庫を見る
	ok, err := u.inventory.IsAvailable(ctx, line.ID, line.Quantity)
	if err != nil {
		log.Error("stock check failed", "error", err)
		return failed(line, persistenceAtCheckoutMessage(line.Name))
	}
	if !ok {
		return rejected(line, LineKindInsufficientStock)
	}

	//在庫が足りるときだけ減らす（確認と減算の間に他が買った場合はここで弾かれる）
	dec, err := u.inventory.DecreaseStockIfEnough(ctx, line.ID, line.Quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return rejected(line, LineKindNotFound)
	}
	if err != nil {
		log.Error("stock decrement failed", "error", err)
		return failed(line, persistenceAtCheckoutMessage(line.Name))
	}
	if !dec {
		return rejected(line, LineKindInsufficientStock)
	}

	ol, err := u.ledger.Append(ctx, model.OrderLine{
		CheckoutID: in.CheckoutID,
		SessionID:  in.SessionID,
		ProductID:  line.ID,
		Price:      line.Price,
		Quantity:   line.Quantity,
		TotalPrice: line.Total(),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		//台帳に書けなかったので在庫を戻す。リクエストが切れても戻しは実行する
		if cerr := u.inventory.IncreaseStock(context.WithoutCancel(ctx), line.ID, line.Quantity); cerr != nil {
			log.Error("stock compensation failed", "error", cerr, "ledger_error", err)
		} else {
			log.Warn("ledger append failed, stock restored", "error", err)
		}
		return failed(line, persistenceAtCheckoutMessage(line.Name))
	}

	if perr := u.publisher.PublishOrderLine(ctx, events.OrderLineCommitted{
		CheckoutID: ol.CheckoutID,
		SessionID:  ol.SessionID,
		ProductID:  ol.ProductID,
		Quantity:   ol.Quantity,
		Price:      ol.Price,
		TotalPrice: ol.TotalPrice,
		At:         ol.CreatedAt,
	}); perr != nil {
		log.Warn("order line event not published", "error", perr)
	}

	return LineOutcome{Line: line, State: LineCommitted, OrderLine: &ol}
}

func rejected(line model.CartLine, kind LineKind) LineOutcome {
	return LineOutcome{
		Line:  line,
		State: LineRejected,
		Err: &LineError{
			ProductID: line.ID,
			Name:      line.Name,
			Kind:      kind,
			Message:   unavailableAtCheckoutMessage(line.Name),
		},
	}
}

func failed(line model.CartLine, msg string) LineOutcome {
	return LineOutcome{
		Line:  line,
		State: LineFailed,
		Err: &LineError{
			ProductID: line.ID,
			Name:      line.Name,
			Kind:      LineKindPersistence,
			Message:   msg,
		},
	}
}
