package usecase_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	"storefront/internal/infra/memory"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

const (
	validCard = "4111 1111 1111 1111"
	validExp  = "2030/12"
)

type paymentFixture struct {
	inv    *memory.InventoryStore
	carts  *memory.CartStore
	ledger *memory.OrderLineStore
	cartUC *usecase.CartUsecase
	uc     *usecase.PaymentUsecase
}

func newPaymentFixture(products ...model.Product) paymentFixture {
	return newPaymentFixtureWith(func(c *memory.CartStore) repo.CartRepository { return c }, products...)
}

// wrapで決済側から見えるカートストアを差し替えられる
func newPaymentFixtureWith(wrap func(*memory.CartStore) repo.CartRepository, products ...model.Product) paymentFixture {
	inv := memory.NewInventoryStore(products...)
	carts := memory.NewCartStore(time.Hour)
	ledger := memory.NewOrderLineStore()
	checkout := usecase.NewCheckoutUsecase(inv, ledger, nil, nil, discardLogger(), 4)
	v := validator.NewPaymentValidatorAt(func() time.Time {
		return time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	})
	return paymentFixture{
		inv:    inv,
		carts:  carts,
		ledger: ledger,
		cartUC: usecase.NewCartUsecase(carts, inv, usecase.NewStockReconciler(inv, 4), discardLogger()),
		uc:     usecase.NewPaymentUsecase(v, wrap(carts), memory.NewCheckoutStore(), checkout, discardLogger()),
	}
}

func table(inventory int64) model.Product {
	return model.Product{ID: 2, Name: "Table", Price: decimal.RequireFromString("80"), Inventory: inventory}
}

func addTable(qty int64) usecase.AddToCartInput {
	return usecase.AddToCartInput{ID: 2, Name: "Table", Price: decimal.RequireFromString("80"), Quantity: qty}
}

func TestPayment_InvalidCard(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(5))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(1))

	_, err := f.uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: "1234", DateExpiration: validExp})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assert.ErrorIs(t, err, usecase.ErrValidation)

	_, err = f.uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: "2020/01"})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	assert.Empty(t, f.ledger.All())
	p, _ := f.inv.Get(ctx, 1)
	assert.Equal(t, int64(5), p.Inventory)
}

func TestPayment_EmptyCart(t *testing.T) {
	f := newPaymentFixture(chaise(5))

	_, err := f.uc.Pay(context.Background(), usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "Le panier est vide")
}

func TestPayment_AllLinesCommitted(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(5), table(3))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addTable(1))

	out, err := f.uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp})
	require.NoError(t, err)
	assert.True(t, out.Fulfilled())
	assert.Equal(t, "Commande validée", out.Message)
	assert.Len(t, out.Order, 2)
	assert.Empty(t, out.Errors)
	assert.NotEmpty(t, out.CheckoutID)

	cart, _ := f.carts.Get(ctx, "s1")
	assert.True(t, cart.IsEmpty())
}

func TestPayment_PartialKeepsRejectedLinesInCart(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(5), table(3))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addTable(3))

	//Tableが先に売れてしまった
	_, _ = f.inv.DecreaseStockIfEnough(ctx, 2, 2)

	out, err := f.uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp})
	require.NoError(t, err)
	assert.Equal(t, "Commande partiellement validée", out.Message)
	require.Len(t, out.Order, 1)
	assert.Equal(t, int64(1), out.Order[0].ProductID)
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0].Error, "Table")

	cart, _ := f.carts.Get(ctx, "s1")
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2), cart.Lines[0].ID)
}

func TestPayment_NothingCommittedReleasesKey(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(table(3))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addTable(3))
	_, _ = f.inv.DecreaseStockIfEnough(ctx, 2, 1)

	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp, IdempotencyKey: "k1"}
	out, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)
	assert.False(t, out.Fulfilled())
	assert.Equal(t, "Aucun article n'a pu être commandé", out.Message)

	//在庫が戻れば同じキーで再挑戦できる
	require.NoError(t, f.inv.IncreaseStock(ctx, 2, 1))
	out, err = f.uc.Pay(ctx, in)
	require.NoError(t, err)
	assert.True(t, out.Fulfilled())
}

func TestPayment_ResubmissionIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(10))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))

	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp, IdempotencyKey: "k1"}
	_, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)

	//同じキーでの再送は409、在庫も台帳も変わらない
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, err = f.uc.Pay(ctx, in)
	assertHTTPStatus(t, err, http.StatusConflict)
	assert.ErrorIs(t, err, usecase.ErrDuplicateCheckout)

	p, _ := f.inv.Get(ctx, 1)
	assert.Equal(t, int64(8), p.Inventory)
	assert.Len(t, f.ledger.All(), 1)
}

func TestPayment_ResubmissionWithoutKeyHitsEmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(10))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))

	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp}
	_, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)

	_, err = f.uc.Pay(ctx, in)
	assertErrContains(t, err, "Le panier est vide")
	assert.Len(t, f.ledger.All(), 1)
}

// 最初のn回のGetを全員揃うまで止める（読み取りは揃う前に済ませる）
type gatedCarts struct {
	*memory.CartStore
	mu      sync.Mutex
	n       int
	arrived sync.WaitGroup
}

func newGatedCarts(store *memory.CartStore, n int) *gatedCarts {
	g := &gatedCarts{CartStore: store, n: n}
	g.arrived.Add(n)
	return g
}

func (g *gatedCarts) Get(ctx context.Context, sessionID string) (model.Cart, error) {
	cart, err := g.CartStore.Get(ctx, sessionID)

	g.mu.Lock()
	gated := g.n > 0
	g.n--
	g.mu.Unlock()

	if gated {
		g.arrived.Done()
		g.arrived.Wait()
	}
	return cart, err
}

func TestPayment_ConcurrentSubmitsWithoutKeyCommitOnce(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixtureWith(func(c *memory.CartStore) repo.CartRepository { return newGatedCarts(c, 2) }, chaise(10))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))

	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp}
	var wg sync.WaitGroup
	outs := make([]usecase.PaymentOutput, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			outs[i], errs[i] = f.uc.Pay(ctx, in)
		}()
	}
	wg.Wait()

	committed, conflicts := 0, 0
	for i := 0; i < 2; i++ {
		if errs[i] == nil {
			assert.True(t, outs[i].Fulfilled())
			committed++
			continue
		}
		assertHTTPStatus(t, errs[i], http.StatusConflict)
		assert.ErrorIs(t, errs[i], usecase.ErrDuplicateCheckout)
		conflicts++
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, conflicts)

	assert.Len(t, f.ledger.All(), 1)
	p, _ := f.inv.Get(ctx, 1)
	assert.Equal(t, int64(8), p.Inventory)
	cart, _ := f.carts.Get(ctx, "s1")
	assert.True(t, cart.IsEmpty())
}

func TestPayment_SameContentsAfterOrderIsNewCheckout(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(10))
	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp}

	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)

	//同じ中身でも注文後に入れ直したカートは別の決済
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	out, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)
	assert.True(t, out.Fulfilled())
	assert.Len(t, f.ledger.All(), 2)
}

func TestPayment_PartialOrderRetryWithoutKey(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(5), table(3))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addTable(3))
	_, _ = f.inv.DecreaseStockIfEnough(ctx, 2, 2)

	in := usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp}
	out, err := f.uc.Pay(ctx, in)
	require.NoError(t, err)
	require.Len(t, out.Order, 1)

	//残ったTableは数量を直せば注文できる
	_, err = f.cartUC.UpdateQuantity(ctx, "s1", usecase.UpdateQuantityInput{ID: 2, Quantity: 1})
	require.NoError(t, err)
	out, err = f.uc.Pay(ctx, in)
	require.NoError(t, err)
	require.Len(t, out.Order, 1)
	assert.Equal(t, int64(2), out.Order[0].ProductID)
}

func TestPayment_EmptiedCartIsDeleted(t *testing.T) {
	ctx := context.Background()
	inv := memory.NewInventoryStore(chaise(5))
	checkout := usecase.NewCheckoutUsecase(inv, memory.NewOrderLineStore(), nil, nil, discardLogger(), 4)
	v := validator.NewPaymentValidatorAt(func() time.Time {
		return time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	})

	cart := model.NewCart("s1")
	cart.Upsert(model.CartLine{ID: 1, Name: "Chaise", Price: decimal.RequireFromString("20"), Quantity: 2})

	carts := new(CartRepoMock)
	carts.On("Get", mock.Anything, "s1").Return(cart, nil)
	carts.On("Delete", mock.Anything, "s1").Return(nil).Once()

	uc := usecase.NewPaymentUsecase(v, carts, memory.NewCheckoutStore(), checkout, discardLogger())
	out, err := uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp})
	require.NoError(t, err)
	assert.True(t, out.Fulfilled())

	carts.AssertExpectations(t)
	carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOrderUsecase_History(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture(chaise(10))
	_, _ = f.cartUC.AddToCart(ctx, "s1", addChaise(2))
	_, err := f.uc.Pay(ctx, usecase.PaymentInput{SessionID: "s1", CardNumber: validCard, DateExpiration: validExp})
	require.NoError(t, err)

	uc := usecase.NewOrderUsecase(f.ledger, discardLogger())
	lines, err := uc.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Quantity)

	other, err := uc.History(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}
