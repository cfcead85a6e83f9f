package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test, skipped in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	store, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.InitSchema(ctx))
	return store
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		FullName:     "Test Shopper",
		PasswordHash: "not-a-real-hash",
		Verified:     true,
		Role:         models.RoleShopper,
	}
	otp := &models.OtpRecord{
		Email:     email,
		Code:      "123456",
		Purpose:   models.OtpPurposeRegister,
		ExpiresAt: time.Now().UnixMilli() + 300000,
	}
	require.NoError(t, s.UpsertOtp(context.Background(), otp))
	require.NoError(t, s.RegisterUserTx(context.Background(), user, otp.ID))
	return user
}

func seedProduct(t *testing.T, s *Store, title string, sellingPrice int64, quantity int) *models.Product {
	t.Helper()
	ctx := context.Background()

	cat, err := s.GetCategoryByName(ctx, "electronics")
	require.NoError(t, err)
	if cat == nil {
		cat = &models.Category{Name: "electronics"}
		require.NoError(t, s.CreateCategory(ctx, cat))
	}

	p := &models.Product{
		Title:        title,
		MrpPrice:     sellingPrice * 2,
		SellingPrice: sellingPrice,
		CategoryID:   cat.ID,
		Quantity:     quantity,
	}
	require.NoError(t, s.CreateProduct(ctx, p))
	return p
}

func fillCart(t *testing.T, s *Store, userID int64, p *models.Product, qty int) *models.Cart {
	t.Helper()
	ctx := context.Background()

	cart, err := s.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	item := &models.CartItem{
		ProductID:    p.ID,
		Quantity:     qty,
		MrpPrice:     p.MrpPrice,
		SellingPrice: p.SellingPrice,
	}
	require.NoError(t, s.AddCartItemTx(ctx, cart.ID, item))

	cart, err = s.GetOrCreateCart(ctx, userID)
	require.NoError(t, err)
	return cart
}

func testAddress() *models.Address {
	return &models.Address{
		Locality:   "MG Road",
		Street:     "1st Cross",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Mobile:     "9999999999",
	}
}

func TestOtpSingleUse(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	otp := &models.OtpRecord{
		Email:     "a@x.com",
		Code:      "123456",
		Purpose:   models.OtpPurposeRegister,
		ExpiresAt: time.Now().UnixMilli() + 300000,
	}
	require.NoError(t, store.UpsertOtp(ctx, otp))
	require.NotZero(t, otp.ID)

	user := &models.User{
		Email:        "a@x.com",
		FullName:     "A",
		PasswordHash: "h",
		Verified:     true,
		Role:         models.RoleShopper,
	}
	require.NoError(t, store.RegisterUserTx(ctx, user, otp.ID))

	rec, err := store.GetOtpByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, rec.Used)

	// Replaying the same OTP must fail and roll the insert back.
	second := &models.User{
		Email:        "b@x.com",
		FullName:     "B",
		PasswordHash: "h",
		Role:         models.RoleShopper,
	}
	err = store.RegisterUserTx(ctx, second, otp.ID)
	require.Error(t, err)
	assert.Equal(t, "OTP_USED", errs.CodeOf(err))

	missing, err := store.GetUserByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "dup@x.com")

	otp := &models.OtpRecord{
		Email:     "dup@x.com",
		Code:      "654321",
		Purpose:   models.OtpPurposeRegister,
		ExpiresAt: time.Now().UnixMilli() + 300000,
	}
	require.NoError(t, store.UpsertOtp(ctx, otp))

	dup := &models.User{
		Email:        "dup@x.com",
		PasswordHash: "h",
		Role:         models.RoleShopper,
	}
	err := store.RegisterUserTx(ctx, dup, otp.ID)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_REGISTERED", errs.CodeOf(err))
}

func TestCartTotalsRecomputed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "cart@x.com")
	p1 := seedProduct(t, store, "phone", 50000, 10)
	p2 := seedProduct(t, store, "case", 1000, 10)

	cart := fillCart(t, store, user.ID, p1, 2)
	assert.Equal(t, 2, cart.TotalItem)
	assert.Equal(t, int64(100000), cart.TotalSellingPrice)
	assert.Equal(t, int64(200000), cart.TotalMrpPrice)
	assert.Equal(t, 50, cart.Discount)

	// Adding the same product increments quantity, not a second row.
	cart = fillCart(t, store, user.ID, p1, 1)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, int64(150000), cart.TotalSellingPrice)

	item, err := store.FindCartItem(ctx, cart.ID, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 3, item.Quantity)

	cart = fillCart(t, store, user.ID, p2, 5)
	assert.Equal(t, 8, cart.TotalItem)
	assert.Equal(t, int64(155000), cart.TotalSellingPrice)

	require.NoError(t, store.UpdateCartItemQuantityTx(ctx, cart.ID, cart.Items[0].ID, 1))
	cart, err = store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, cart.TotalItem)
	assert.Equal(t, int64(55000), cart.TotalSellingPrice)

	require.NoError(t, store.ClearCartTx(ctx, cart.ID))
	cart, err = store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItem)
	assert.Zero(t, cart.TotalSellingPrice)
	assert.Zero(t, cart.TotalMrpPrice)
	assert.Zero(t, cart.Discount)
}

func TestCreateOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "order@x.com")
	p := seedProduct(t, store, "laptop", 250000, 5)
	cart := fillCart(t, store, user.ID, p, 2)

	order, err := store.CreateOrderTx(ctx, user.ID, testAddress(), cart)
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	assert.Equal(t, models.OrderStatusPending, order.OrderStatus)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, int64(500000), order.TotalSellingPrice)
	assert.Equal(t, int64(1000000), order.TotalMrpPrice)
	assert.Equal(t, int64(500000), order.Discount)
	assert.Equal(t, 2, order.TotalItem)
	require.Len(t, order.Items, 1)

	// Stock decremented by the line quantity.
	got, err := store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)

	// Cart emptied.
	cart, err = store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalItem)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "empty@x.com")
	cart, err := store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)

	_, err = store.CreateOrderTx(ctx, user.ID, testAddress(), cart)
	require.Error(t, err)
	assert.Equal(t, "EMPTY_CART", errs.CodeOf(err))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "greedy@x.com")
	p := seedProduct(t, store, "limited", 1000, 1)
	cart := fillCart(t, store, user.ID, p, 3)

	_, err := store.CreateOrderTx(ctx, user.ID, testAddress(), cart)
	require.Error(t, err)
	assert.Equal(t, "INSUFFICIENT_STOCK", errs.CodeOf(err))

	// Abort leaves stock and cart untouched.
	got, err := store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	cart, err = store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	orders, err := store.ListOrdersByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConcurrentOrdersDoNotOversell(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := seedProduct(t, store, "hot item", 1000, 5)

	const shoppers = 4
	carts := make([]*models.Cart, shoppers)
	userIDs := make([]int64, shoppers)
	for i := 0; i < shoppers; i++ {
		u := seedUser(t, store, fmt.Sprintf("racer%d@x.com", i))
		userIDs[i] = u.ID
		carts[i] = fillCart(t, store, u.ID, p, 3)
	}

	var wg sync.WaitGroup
	results := make([]error, shoppers)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = store.CreateOrderTx(ctx, userIDs[i], testAddress(), carts[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, "INSUFFICIENT_STOCK", errs.CodeOf(err))
		}
	}
	// 5 units / 3 per order admits exactly one success.
	assert.Equal(t, 1, succeeded)

	got, err := store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
}

func TestCancelOrderRestoresStockOnce(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "cancel@x.com")
	p := seedProduct(t, store, "gadget", 2000, 10)
	cart := fillCart(t, store, user.ID, p, 4)

	order, err := store.CreateOrderTx(ctx, user.ID, testAddress(), cart)
	require.NoError(t, err)

	require.NoError(t, store.CancelOrderTx(ctx, order.ID))

	got, err := store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)

	cancelled, err := store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.OrderStatus)

	// Second cancel must not restore the stock again.
	err = store.CancelOrderTx(ctx, order.ID)
	require.Error(t, err)
	assert.Equal(t, "ALREADY_CANCELLED", errs.CodeOf(err))

	got, err = store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
}

func TestPaymentCaptureExactlyOnce(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "payer@x.com")
	p := seedProduct(t, store, "headphones", 4000, 10)
	cart := fillCart(t, store, user.ID, p, 1)

	order, err := store.CreateOrderTx(ctx, user.ID, testAddress(), cart)
	require.NoError(t, err)

	po := &models.PaymentOrder{
		UserID:        user.ID,
		OrderID:       order.ID,
		Amount:        order.TotalSellingPrice,
		PaymentMethod: models.PaymentMethodRazorpay,
		Status:        models.PaymentOrderPending,
	}
	require.NoError(t, store.CreatePaymentOrder(ctx, po))
	require.NoError(t, store.AttachPaymentLink(ctx, po.ID, "plink_1", "https://rzp.io/l/x"))

	loaded, err := store.GetPaymentOrderByLinkID(ctx, "plink_1")
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/l/x", loaded.PaymentURL)

	require.NoError(t, store.MarkPaymentCapturedTx(ctx, loaded, "pay_1"))

	settled, err := store.GetPaymentOrderByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOrderSuccess, settled.Status)

	confirmed, err := store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.OrderStatus)
	assert.Equal(t, models.PaymentStatusCompleted, confirmed.PaymentStatus)

	// Replaying the capture is rejected by the PENDING guard.
	err = store.MarkPaymentCapturedTx(ctx, loaded, "pay_1")
	require.Error(t, err)
	assert.Equal(t, "PAYMENT_NOT_PENDING", errs.CodeOf(err))

	txs, err := store.ListTransactionsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "SUCCESS", txs[0].Status)
	assert.Equal(t, order.TotalSellingPrice, txs[0].Amount)
}

func TestDeleteCategoryEvictsCartsAndWishlists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "evict@x.com")
	p := seedProduct(t, store, "doomed", 3000, 10)
	keeperCat := &models.Category{Name: "keepers"}
	require.NoError(t, store.CreateCategory(ctx, keeperCat))
	keeper := &models.Product{
		Title:        "survivor",
		MrpPrice:     2000,
		SellingPrice: 1000,
		CategoryID:   keeperCat.ID,
		Quantity:     10,
	}
	require.NoError(t, store.CreateProduct(ctx, keeper))

	fillCart(t, store, user.ID, p, 2)
	cart := fillCart(t, store, user.ID, keeper, 1)
	require.Len(t, cart.Items, 2)

	wl, err := store.GetOrCreateWishlist(ctx, user.ID)
	require.NoError(t, err)
	added, err := store.ToggleWishlistProduct(ctx, wl.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	require.NoError(t, store.DeleteCategoryTx(ctx, p.CategoryID))

	// The doomed product is gone from cart and wishlist, the keeper
	// stays, and totals reflect only the keeper.
	cart, err = store.GetOrCreateCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, keeper.ID, cart.Items[0].ProductID)
	assert.Equal(t, 1, cart.TotalItem)
	assert.Equal(t, int64(1000), cart.TotalSellingPrice)

	wl, err = store.GetOrCreateWishlist(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, wl.Products)

	gone, err := store.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestWishlistToggleAndRemove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "wish@x.com")
	p := seedProduct(t, store, "wanted", 5000, 3)

	wl, err := store.GetOrCreateWishlist(ctx, user.ID)
	require.NoError(t, err)

	added, err := store.ToggleWishlistProduct(ctx, wl.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.ToggleWishlistProduct(ctx, wl.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, added)

	err = store.RemoveWishlistProduct(ctx, wl.ID, p.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_IN_WISHLIST", errs.CodeOf(err))
}
