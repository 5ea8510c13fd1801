package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/junaidrashid-git/checkout-api/events"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateOrder_CommitsOrderAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	y := f.product(t, "y", "12.50", 10)
	z := f.product(t, "z", "3.20", 2)

	_, err := f.carts.AddLine(ctx, user.ID, y.ID, 4)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, z.ID, 2)
	require.NoError(t, err)

	order := f.checkout(t, user.ID)

	assert.NotZero(t, order.ID)
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	requireDecimal(t, "56.40", order.TotalAmount) // 4*12.50 + 2*3.20
	assert.Equal(t, "Dubai", order.ShippingAddress.City)
	assert.Equal(t, order.ShippingAddress, order.BillingAddress)

	require.Len(t, order.Items, 2)
	byProduct := map[uint]models.OrderItem{}
	for _, item := range order.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 4, byProduct[y.ID].Quantity)
	assert.Equal(t, "y", byProduct[y.ID].ProductName)
	assert.Equal(t, "SKU-Y", byProduct[y.ID].ProductSKU)
	requireDecimal(t, "12.50", byProduct[y.ID].UnitPrice)
	requireDecimal(t, "50.00", byProduct[y.ID].LineTotal)
	requireDecimal(t, "6.40", byProduct[z.ID].LineTotal)

	assert.Equal(t, 6, f.stock(t, y.ID))
	assert.Equal(t, 0, f.stock(t, z.ID))

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	assert.Equal(t, []events.Type{events.OrderCreated}, f.events.types())
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.factory.CreateOrder(ctx, user.ID, testCheckout())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, f.countOrders(t))
}

func TestCreateOrder_InvalidAddress(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "1.00", 5)
	_, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	req := testCheckout()
	req.ShippingAddress.Country = " "
	_, err = f.factory.CreateOrder(ctx, user.ID, req)
	assert.ErrorIs(t, err, models.ErrInvalidAddress)

	req = testCheckout()
	req.BillingAddress = &models.Address{Line1: "only a street"}
	_, err = f.factory.CreateOrder(ctx, user.ID, req)
	assert.ErrorIs(t, err, models.ErrInvalidAddress)

	assert.Zero(t, f.countOrders(t))
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestCreateOrder_SeparateBillingAddress(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "1.00", 5)
	_, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	req := testCheckout()
	req.BillingAddress = &models.Address{Line1: "1 Office Park", City: "Abu Dhabi", PostalCode: "11111", Country: "AE"}
	req.Notes = "leave at reception"

	order, err := f.factory.CreateOrder(ctx, user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Abu Dhabi", order.BillingAddress.City)
	assert.Equal(t, "Dubai", order.ShippingAddress.City)
	assert.Equal(t, "leave at reception", order.Notes)
	assert.Equal(t, "cod", order.PaymentMethod)
}

func TestCreateOrder_ValidationFailureChangesNothing(t *testing.T) {
	f := newFixture(t)
	plenty := f.product(t, "plenty", "5.00", 10)
	scarce := f.product(t, "scarce", "5.00", 3)

	_, err := f.carts.AddLine(ctx, user.ID, plenty.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, scarce.ID, 3)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&scarce).Update("stock_quantity", 1).Error)

	_, err = f.factory.CreateOrder(ctx, user.ID, testCheckout())
	require.ErrorIs(t, err, ErrCartValidationFailed)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var validationErr *CartValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, scarce.ID, validationErr.Issues[0].ProductID)

	assert.Equal(t, 10, f.stock(t, plenty.ID))
	assert.Equal(t, 1, f.stock(t, scarce.ID))
	assert.Zero(t, f.countOrders(t))
	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Empty(t, f.events.types())
}

// drainingLedger takes stock away from one product inside the checkout
// transaction, right before its decrement, the way a concurrent checkout
// committing between validation and commit would.
type drainingLedger struct {
	*inventory.Ledger
	drain   uint
	leaveTo int
}

func (l *drainingLedger) Decrement(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error) {
	if productID == l.drain {
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).
			Update("stock_quantity", l.leaveTo).Error; err != nil {
			return false, err
		}
	}
	return l.Ledger.Decrement(ctx, tx, productID, qty)
}

// cartWritingLedger changes the cart from inside the checkout transaction,
// after the lines were read, the way a concurrent cart request would.
type cartWritingLedger struct {
	*inventory.Ledger
	userID  string
	addID   uint
	growID  uint
	applied bool
}

func (l *cartWritingLedger) Decrement(ctx context.Context, tx *gorm.DB, productID uint, qty int) (bool, error) {
	if !l.applied {
		l.applied = true
		if err := tx.Create(&models.CartItem{UserID: l.userID, ProductID: l.addID, Quantity: 2}).Error; err != nil {
			return false, err
		}
		if err := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND product_id = ?", l.userID, l.growID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", 1)).Error; err != nil {
			return false, err
		}
	}
	return l.Ledger.Decrement(ctx, tx, productID, qty)
}

func TestCreateOrder_KeepsCartChangesMadeDuringCheckout(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "a", "1.00", 10)
	b := f.product(t, "b", "2.00", 10)

	_, err := f.carts.AddLine(ctx, user.ID, a.ID, 3)
	require.NoError(t, err)

	f.factory.ledger = &cartWritingLedger{Ledger: f.ledger, userID: user.ID, addID: b.ID, growID: a.ID}

	order, err := f.factory.CreateOrder(ctx, user.ID, testCheckout())
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, a.ID, order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	left := map[uint]int{}
	for _, line := range lines {
		left[line.ProductID] = line.Quantity
	}
	assert.Equal(t, map[uint]int{a.ID: 1, b.ID: 2}, left)
}

func TestCreateOrder_StockGuardRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	first := f.product(t, "first", "4.00", 10)
	second := f.product(t, "second", "6.00", 5)

	_, err := f.carts.AddLine(ctx, user.ID, first.ID, 3)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, second.ID, 2)
	require.NoError(t, err)

	f.factory.ledger = &drainingLedger{Ledger: f.ledger, drain: second.ID, leaveTo: 1}

	_, err = f.factory.CreateOrder(ctx, user.ID, testCheckout())
	require.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, second.ID, stockErr.ProductID)
	assert.Equal(t, "second", stockErr.ProductName)
	assert.Equal(t, 1, stockErr.Available)

	// The first product was decremented inside the aborted transaction.
	assert.Equal(t, 10, f.stock(t, first.ID))
	assert.Equal(t, 5, f.stock(t, second.ID))
	assert.Zero(t, f.countOrders(t))
	var items int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestCreateOrder_ConcurrentCheckoutsForLastUnit(t *testing.T) {
	f := newFixture(t)
	w := f.product(t, "w", "99.00", 1)

	buyers := []string{"buyer-a", "buyer-b"}
	for _, b := range buyers {
		// Adding checks stock but holds nothing, so both carts accept it.
		_, err := f.carts.AddLine(ctx, b, w.ID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, len(buyers))
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, b string) {
			defer wg.Done()
			<-start
			_, errs[i] = f.factory.CreateOrder(ctx, b, testCheckout())
		}(i, b)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stock(t, w.ID))
	assert.EqualValues(t, 1, f.countOrders(t))
}

func TestCreateOrder_StockNeverNegativeUnderLoad(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "hot", "1.00", 7)

	const buyers = 12
	for i := 0; i < buyers; i++ {
		_, err := f.carts.AddLine(ctx, buyerID(i), p.ID, 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed := 0
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.factory.CreateOrder(ctx, buyerID(i), testCheckout())
			if err == nil {
				mu.Lock()
				placed++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 7, placed)
	assert.Equal(t, 0, f.stock(t, p.ID))
	assert.EqualValues(t, 7, f.countOrders(t))
}

func buyerID(i int) string {
	return "buyer-" + string(rune('a'+i))
}

func TestCreateOrder_OrderNumberCollision(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "1.00", 5)

	taken := models.Order{UserID: other.ID, OrderNumber: "ORD-TAKEN", Status: models.OrderStatusPending, PaymentStatus: models.PaymentStatusPending}
	require.NoError(t, f.db.Create(&taken).Error)

	t.Run("retries once with a fresh number", func(t *testing.T) {
		_, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
		require.NoError(t, err)

		numbers := []string{"ORD-TAKEN", "ORD-FRESH"}
		f.factory.newOrderNumber = func(time.Time) string {
			n := numbers[0]
			numbers = numbers[1:]
			return n
		}

		order, err := f.factory.CreateOrder(ctx, user.ID, testCheckout())
		require.NoError(t, err)
		assert.Equal(t, "ORD-FRESH", order.OrderNumber)
		assert.Equal(t, 4, f.stock(t, p.ID))
	})

	t.Run("surfaces a retryable conflict", func(t *testing.T) {
		_, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
		require.NoError(t, err)

		f.factory.newOrderNumber = func(time.Time) string { return "ORD-TAKEN" }

		_, err = f.factory.CreateOrder(ctx, user.ID, testCheckout())
		require.ErrorIs(t, err, ErrConflictRetry)
		assert.Equal(t, 4, f.stock(t, p.ID))
		lines, err := f.carts.ListLines(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2025, 9, 8, 13, 5, 0, 0, time.UTC)
	a := GenerateOrderNumber(at)
	b := GenerateOrderNumber(at)

	assert.Regexp(t, `^ORD-20250908130500-[0-9A-F]{6}$`, a)
	assert.NotEqual(t, a, b)
}

func TestOrderSnapshotsSurviveCatalogChanges(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "lamp", "40.00", 3)
	_, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)
	order := f.checkout(t, user.ID)

	require.NoError(t, f.db.Model(&p).Updates(map[string]interface{}{"name": "desk lamp", "price": "55.00"}).Error)
	require.NoError(t, f.db.Delete(&p).Error)

	got, err := f.lifecycle.GetOrder(ctx, order.ID, user)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "lamp", got.Items[0].ProductName)
	requireDecimal(t, "40.00", got.Items[0].UnitPrice)
	requireDecimal(t, "40.00", got.TotalAmount)
}
