package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLine_MergesUntilStockRunsOut(t *testing.T) {
	f := newFixture(t)
	x := f.product(t, "x", "10.00", 5)

	line, err := f.carts.AddLine(ctx, user.ID, x.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	line, err = f.carts.AddLine(ctx, user.ID, x.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	require.NotNil(t, line.Product)
	assert.Equal(t, "x", line.Product.Name)

	_, err = f.carts.AddLine(ctx, user.ID, x.ID, 1)
	require.ErrorIs(t, err, ErrInsufficientStock)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)

	// The rejected add leaves the line as it was.
	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	// Adding never touches stock.
	assert.Equal(t, 5, f.stock(t, x.ID))
}

func TestAddLine_QuantityIsSumOfAdds(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "1.00", 1000)

	adds := []int{1, 7, 3, 12, 5}
	want := 0
	for _, q := range adds {
		_, err := f.carts.AddLine(ctx, user.ID, p.ID, q)
		require.NoError(t, err)
		want += q
	}

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, want, lines[0].Quantity)
}

func TestAddLine_ConcurrentAddsAllCount(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "1.00", 1000)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts.AddLine(ctx, user.ID, p.ID, 2)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var lines []models.CartItem
	require.NoError(t, f.db.Where("user_id = ?", user.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.Equal(t, workers*2, lines[0].Quantity)
}

func TestAddLine_Rejections(t *testing.T) {
	f := newFixture(t)
	active := f.product(t, "active", "3.00", 10)
	inactive := f.product(t, "inactive", "3.00", 10)
	require.NoError(t, f.db.Model(&inactive).Update("is_active", false).Error)
	deleted := f.product(t, "deleted", "3.00", 10)
	require.NoError(t, f.db.Delete(&deleted).Error)

	tests := []struct {
		name      string
		productID uint
		qty       int
		want      error
	}{
		{name: "missing product", productID: 9999, qty: 1, want: ErrNotFound},
		{name: "deleted product", productID: deleted.ID, qty: 1, want: ErrNotFound},
		{name: "inactive product", productID: inactive.ID, qty: 1, want: ErrProductUnavailable},
		{name: "zero quantity", productID: active.ID, qty: 0, want: ErrInvalidQuantity},
		{name: "negative quantity", productID: active.ID, qty: -2, want: ErrInvalidQuantity},
		{name: "above cap", productID: active.ID, qty: DefaultMaxLineQuantity + 1, want: ErrInvalidQuantity},
		{name: "more than stock", productID: active.ID, qty: 11, want: ErrInsufficientStock},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.carts.AddLine(ctx, user.ID, tc.productID, tc.qty)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSetLineQuantity(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "p", "2.50", 4)

	line, err := f.carts.AddLine(ctx, user.ID, p.ID, 1)
	require.NoError(t, err)

	updated, err := f.carts.SetLineQuantity(ctx, user.ID, line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = f.carts.SetLineQuantity(ctx, user.ID, line.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.carts.SetLineQuantity(ctx, other.ID, line.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.carts.SetLineQuantity(ctx, user.ID, line.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestRemoveLineAndClear(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "a", "1.00", 10)
	b := f.product(t, "b", "1.00", 10)

	lineA, err := f.carts.AddLine(ctx, user.ID, a.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, b.ID, 1)
	require.NoError(t, err)

	assert.ErrorIs(t, f.carts.RemoveLine(ctx, other.ID, lineA.ID), ErrNotFound)
	require.NoError(t, f.carts.RemoveLine(ctx, user.ID, lineA.ID))
	assert.ErrorIs(t, f.carts.RemoveLine(ctx, user.ID, lineA.ID), ErrNotFound)

	require.NoError(t, f.carts.Clear(ctx, user.ID))
	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Clearing an empty cart is a no-op.
	require.NoError(t, f.carts.Clear(ctx, user.ID))
	require.NoError(t, f.carts.Clear(ctx, "never-had-a-cart"))
}

func TestListLines_NewestFirstAndScopedToUser(t *testing.T) {
	f := newFixture(t)
	first := f.product(t, "first", "1.00", 10)
	second := f.product(t, "second", "1.00", 10)

	_, err := f.carts.AddLine(ctx, user.ID, first.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, second.ID, 1)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, other.ID, first.ID, 3)
	require.NoError(t, err)

	lines, err := f.carts.ListLines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, second.ID, lines[0].ProductID)
	assert.Equal(t, first.ID, lines[1].ProductID)
	for _, l := range lines {
		assert.Equal(t, user.ID, l.UserID)
	}
}

func TestSummarize_UsesLivePrices(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "a", "10.00", 10)
	b := f.product(t, "b", "2.50", 10)

	_, err := f.carts.AddLine(ctx, user.ID, a.ID, 2)
	require.NoError(t, err)
	_, err = f.carts.AddLine(ctx, user.ID, b.ID, 4)
	require.NoError(t, err)

	summary, err := f.carts.Summarize(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.LineCount)
	assert.Equal(t, 6, summary.TotalQuantity)
	requireDecimal(t, "30.00", summary.TotalAmount)

	require.NoError(t, f.db.Model(&a).Update("price", "12.00").Error)
	summary, err = f.carts.Summarize(ctx, user.ID)
	require.NoError(t, err)
	requireDecimal(t, "34.00", summary.TotalAmount)

	empty, err := f.carts.Summarize(ctx, other.ID)
	require.NoError(t, err)
	assert.Zero(t, empty.LineCount)
	assert.True(t, empty.TotalAmount.IsZero())
}
