package service

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/model"
	"github.com/flicky/furniture-store/internal/payment"
	"github.com/flicky/furniture-store/internal/repository"
)

// testStore wires the services over in-memory repositories.
type testStore struct {
	users     repository.UserRepository
	inventory *repository.Inventory
	orders    *repository.OrderIndex
	payments  *fakeProcessor
	publisher *fakePublisher
	auth      *AuthService
	catalog   *CatalogService
	carts     *CartService
	orderSvc  *OrderService
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	catalog, err := repository.NewCatalog(
		model.StoreItem{ID: 1, Title: "Dining Table", Price: decimal.NewFromInt(150), Details: model.Table{}},
		model.StoreItem{ID: 2, Title: "King Bed", Price: decimal.NewFromInt(300), Details: model.Bed{PillowCount: 4}},
		model.StoreItem{ID: 3, Title: "Wardrobe", Price: decimal.NewFromInt(200), Details: model.Closet{WithMirror: true}},
		model.StoreItem{ID: 4, Title: "Office Chair", Price: decimal.NewFromInt(100), Details: model.Chair{Material: "leather"}},
	)
	require.NoError(t, err)

	inv := repository.NewInventory(catalog)
	require.NoError(t, inv.AddStock(1, 10))
	require.NoError(t, inv.AddStock(2, 1))
	require.NoError(t, inv.AddStock(3, 0))

	ts := &testStore{
		users:     repository.NewUserRepository(),
		inventory: inv,
		orders:    repository.NewOrderIndex(),
		payments:  &fakeProcessor{MockProcessor: payment.NewMockProcessor()},
		publisher: &fakePublisher{},
	}
	ts.auth = NewAuthService(ts.users, ts.orders, "test-secret", time.Hour, bcrypt.MinCost)
	ts.catalog = NewCatalogService(inv)
	ts.carts = NewCartService(inv)
	ts.orderSvc = NewOrderService(OrderServiceDeps{
		Users: ts.users, Carts: ts.carts, Inventory: inv, Orders: ts.orders,
		Payments: ts.payments, Publisher: ts.publisher, PaymentTimeout: time.Second,
	})
	return ts
}

// signedIn registers and logs in a customer.
func (ts *testStore) signedIn(t *testing.T, username string) {
	t.Helper()
	ctx := context.Background()
	_, err := ts.auth.SignUp(ctx, dto.SignUpRequest{
		Username: username, FullName: username, Email: username + "@example.com", Password: "password123",
	})
	require.NoError(t, err)
	_, err = ts.auth.Login(ctx, dto.LoginRequest{Email: username + "@example.com", Password: "password123"})
	require.NoError(t, err)
}

type fakeProcessor struct {
	*payment.MockProcessor
	fail     error
	onCharge func()
}

func (f *fakeProcessor) Charge(ctx context.Context, amount decimal.Decimal, method payment.Method) (*payment.Receipt, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if f.onCharge != nil {
		f.onCharge()
	}
	return f.MockProcessor.Charge(ctx, amount, method)
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg.Body)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
