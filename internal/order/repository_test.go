package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/order-pipeline/internal/order"
	"github.com/vasiliy-maslov/order-pipeline/internal/testutil"
)

func setupOrderRepo(t *testing.T) (order.Repository, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool, "../../migrations")
	testutil.TruncateAll(t, ctx, pool)
	t.Cleanup(func() {
		testutil.TruncateAll(t, context.Background(), pool)
	})
	return order.NewRepository(pool), pool
}

func insertCartEntry(t *testing.T, pool *pgxpool.Pool, userID, productID uuid.UUID, quantity int) {
	t.Helper()
	id := uuid.Must(uuid.NewV4())
	_, err := pool.Exec(context.Background(),
		`INSERT INTO cart (id, user_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		id, userID, productID, quantity)
	require.NoError(t, err)
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(), `SELECT count(*) FROM `+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestPostgresRepository_CreateOrder_ClearsCartAtomically(t *testing.T) {
	repo, pool := setupOrderRepo(t)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())
	insertCartEntry(t, pool, userID, productID, 2)

	// A second user's cart must survive the checkout.
	otherUser := uuid.Must(uuid.NewV4())
	insertCartEntry(t, pool, otherUser, productID, 1)

	newOrder := &order.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("25.00"),
		Status:      order.StatusPending,
		Items: []order.OrderItem{
			{ProductID: productID, Quantity: 2, Price: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("20.00")},
			{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1, Price: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("5.00")},
		},
	}

	orderID, err := repo.CreateOrder(ctx, newOrder)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, orderID)

	var cartCount int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM cart WHERE user_id = $1`, userID).Scan(&cartCount)
	require.NoError(t, err)
	assert.Equal(t, 0, cartCount, "checkout must clear the user's cart")

	err = pool.QueryRow(ctx, `SELECT count(*) FROM cart WHERE user_id = $1`, otherUser).Scan(&cartCount)
	require.NoError(t, err)
	assert.Equal(t, 1, cartCount, "another user's cart must be untouched")

	stored, err := repo.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.Equal(t, order.StatusPending, stored.Status)
	assert.Len(t, stored.Items, 2)
}

func TestPostgresRepository_CreateOrder_RollsBackOnItemFailure(t *testing.T) {
	repo, pool := setupOrderRepo(t)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	insertCartEntry(t, pool, userID, uuid.Must(uuid.NewV4()), 2)

	// The second item violates the quantity check constraint, which must
	// abort the whole transaction.
	badOrder := &order.Order{
		UserID:      userID,
		TotalAmount: decimal.RequireFromString("10.00"),
		Status:      order.StatusPending,
		Items: []order.OrderItem{
			{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1, Price: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("10.00")},
			{ProductID: uuid.Must(uuid.NewV4()), Quantity: -1, Price: decimal.RequireFromString("5.00"), Subtotal: decimal.RequireFromString("5.00")},
		},
	}

	_, err := repo.CreateOrder(ctx, badOrder)
	assert.Error(t, err)

	assert.Equal(t, 0, countRows(t, pool, "orders"), "no order row may survive a failed create")
	assert.Equal(t, 0, countRows(t, pool, "order_items"), "no order_items rows may survive a failed create")

	var cartCount int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM cart WHERE user_id = $1`, userID).Scan(&cartCount)
	require.NoError(t, err)
	assert.Equal(t, 1, cartCount, "the cart must be unchanged after a failed create")
}

func TestPostgresRepository_GetOrderByID_NotFound(t *testing.T) {
	repo, _ := setupOrderRepo(t)

	_, err := repo.GetOrderByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestPostgresRepository_GetOrdersByUserID_NewestFirst(t *testing.T) {
	repo, pool := setupOrderRepo(t)
	ctx := context.Background()

	userID := uuid.Must(uuid.NewV4())
	base := time.Now().UTC().Add(-time.Hour)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id := uuid.Must(uuid.NewV4())
		_, err := pool.Exec(ctx,
			`INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
			id, userID, decimal.RequireFromString("10.00"), string(order.StatusPending), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	orders, err := repo.GetOrdersByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[1], orders[1].ID)
	assert.Equal(t, ids[0], orders[2].ID)
}

func TestPostgresRepository_GetOrdersByUserID_Empty(t *testing.T) {
	repo, _ := setupOrderRepo(t)

	orders, err := repo.GetOrdersByUserID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPostgresRepository_UpdateOrderStatus(t *testing.T) {
	repo, _ := setupOrderRepo(t)
	ctx := context.Background()

	newOrder := &order.Order{
		UserID:      uuid.Must(uuid.NewV4()),
		TotalAmount: decimal.RequireFromString("10.00"),
		Status:      order.StatusPending,
		Items: []order.OrderItem{
			{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1, Price: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("10.00")},
		},
	}
	orderID, err := repo.CreateOrder(ctx, newOrder)
	require.NoError(t, err)

	err = repo.UpdateOrderStatus(ctx, orderID, order.StatusProcessing)
	require.NoError(t, err)

	stored, err := repo.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, stored.Status, "an accepted update must be visible on the next read")

	err = repo.UpdateOrderStatus(ctx, uuid.Must(uuid.NewV4()), order.StatusProcessing)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestPostgresRepository_OrderItemsCascadeOnDelete(t *testing.T) {
	repo, pool := setupOrderRepo(t)
	ctx := context.Background()

	newOrder := &order.Order{
		UserID:      uuid.Must(uuid.NewV4()),
		TotalAmount: decimal.RequireFromString("10.00"),
		Status:      order.StatusPending,
		Items: []order.OrderItem{
			{ProductID: uuid.Must(uuid.NewV4()), Quantity: 1, Price: decimal.RequireFromString("10.00"), Subtotal: decimal.RequireFromString("10.00")},
		},
	}
	orderID, err := repo.CreateOrder(ctx, newOrder)
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, pool, "order_items"))

	_, err = pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	require.NoError(t, err)

	assert.Equal(t, 0, countRows(t, pool, "order_items"), "order items must be deleted with their order")
}
