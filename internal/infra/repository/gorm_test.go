package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

var (
	decreaseSQL = regexp.QuoteMeta(`UPDATE "product" SET "inventory"=inventory - `)
	increaseSQL = regexp.QuoteMeta(`UPDATE "product" SET "inventory"=inventory + `)
	selectSQL   = regexp.QuoteMeta(`SELECT * FROM "product"`)
	countSQL    = regexp.QuoteMeta(`SELECT count(*) FROM "product"`)
)

func TestInventory_DecreaseStockIfEnough_SingleGuardedUpdate(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	// 判定と減算が同じUPDATE文（SELECTを先に投げない）
	mock.ExpectExec(decreaseSQL).
		WithArgs(int64(3), int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventory_DecreaseStockIfEnough_Insufficient(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectExec(decreaseSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "image", "inventory"}).
			AddRow(1, "Tasse", "9.90", "tasse.png", 2))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventory_DecreaseStockIfEnough_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectExec(decreaseSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 99, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventory_DecreaseStockIfEnough_InvalidQuantity(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	_, err := r.DecreaseStockIfEnough(context.Background(), 1, 0)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventory_IncreaseStock(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectExec(increaseSQL).
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.IncreaseStock(context.Background(), 1, 2))

	mock.ExpectExec(increaseSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.IncreaseStock(context.Background(), 42, 2), repo.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventory_IsAvailable(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectQuery(countSQL).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(countSQL).
		WithArgs(int64(1), int64(50)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := r.IsAvailable(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.IsAvailable(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProduct_FindByID_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewProductGormRepository(gdb)

	mock.ExpectQuery(selectSQL).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := r.FindByID(context.Background(), 5)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestProduct_List(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewProductGormRepository(gdb)

	mock.ExpectQuery(selectSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "image", "inventory"}).
			AddRow(1, "Tasse", "9.90", "tasse.png", 4).
			AddRow(2, "Théière", "24.50", "theiere.png", 0))

	products, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Théière", products[1].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("9.90")))
}

func TestOrderLine_Append(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewOrderLineGormRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	line, err := r.Append(context.Background(), model.OrderLine{
		CheckoutID: uuid.NewString(),
		SessionID:  "sess-1",
		ProductID:  1,
		Price:      decimal.RequireFromString("9.90"),
		Quantity:   2,
		TotalPrice: decimal.RequireFromString("19.80"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), line.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderLine_Append_Error(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewOrderLineGormRepository(gdb)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnError(errors.New("connection reset"))

	_, err := r.Append(context.Background(), model.OrderLine{SessionID: "s", ProductID: 1, Quantity: 1})
	assert.Error(t, err)
}

func TestCheckout_Claim_Duplicate(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewCheckoutGormRepository(gdb)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "checkouts"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "checkouts"`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	c := model.Checkout{ID: uuid.NewString(), SessionID: "s", IdempotencyKey: "k1"}
	require.NoError(t, r.Claim(context.Background(), c))

	c.ID = uuid.NewString()
	assert.ErrorIs(t, r.Claim(context.Background(), c), repo.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_Release(t *testing.T) {
	gdb, mock := newMockDB(t)
	r := NewCheckoutGormRepository(gdb)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "checkouts" WHERE session_id = $1 AND idempotency_key = $2`)).
		WithArgs("s", "k1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Release(context.Background(), "s", "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
