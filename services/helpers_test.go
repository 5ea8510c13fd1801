package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/junaidrashid-git/checkout-api/events"
	"github.com/junaidrashid-git/checkout-api/inventory"
	"github.com/junaidrashid-git/checkout-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. One connection serializes
// transactions the way row locks would on the real store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	ledger    *inventory.Ledger
	carts     *CartService
	validator *CartValidator
	factory   *OrderFactory
	lifecycle *OrderLifecycle
	events    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	pub := &recordingPublisher{}

	ledger := inventory.NewLedger(db)
	carts := NewCartService(db, ledger, log, DefaultMaxLineQuantity)
	validator := NewCartValidator(carts)
	return &fixture{
		db:        db,
		ledger:    ledger,
		carts:     carts,
		validator: validator,
		factory:   NewOrderFactory(db, ledger, carts, validator, pub, log),
		lifecycle: NewOrderLifecycle(db, ledger, pub, log),
		events:    pub,
	}
}

func (f *fixture) product(t *testing.T, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		SKU:           "SKU-" + strings.ToUpper(name),
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}

func (f *fixture) stock(t *testing.T, productID uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.db.Unscoped().First(&p, productID).Error)
	return p.StockQuantity
}

func (f *fixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func (f *fixture) checkout(t *testing.T, userID string) *models.Order {
	t.Helper()
	order, err := f.factory.CreateOrder(ctx, userID, testCheckout())
	require.NoError(t, err)
	return order
}

func testCheckout() CheckoutRequest {
	return CheckoutRequest{
		ShippingAddress: models.Address{
			FullName:   "Sara Ali",
			Line1:      "12 Harbour Road",
			City:       "Dubai",
			PostalCode: "00000",
			Country:    "AE",
		},
		PaymentMethod: "cod",
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

var ctx = context.Background()

var (
	user  = models.Principal{ID: "user-1", Role: models.RoleUser}
	other = models.Principal{ID: "user-2", Role: models.RoleUser}
	admin = models.Principal{ID: "admin", Role: models.RoleAdmin}
)
