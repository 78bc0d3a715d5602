package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/furniture-store/internal/model"
	"github.com/flicky/furniture-store/internal/payment"
	"github.com/flicky/furniture-store/internal/repository"
)

const (
	OrderQueueName     = "orders"
	compensateTimeout  = 5 * time.Second
	idempotencyKeyFmt  = "checkout:%s:%s"
	defaultPayTimeout  = 5 * time.Second
	orderMessageFormat = "application/json"
)

var (
	ErrOrderAccessDenied  = errors.New("access denied")
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is in progress")
)

// Publisher is the part of *amqp.Channel used to announce placed orders.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type OrderService struct {
	userRepo   repository.UserRepository
	carts      *CartService
	inventory  *repository.Inventory
	orders     *repository.OrderIndex
	payments   payment.Processor
	idem       repository.IdempotencyStore
	publisher  Publisher
	payTimeout time.Duration
	log        *slog.Logger
}

type OrderServiceDeps struct {
	Users          repository.UserRepository
	Carts          *CartService
	Inventory      *repository.Inventory
	Orders         *repository.OrderIndex
	Payments       payment.Processor
	Idempotency    repository.IdempotencyStore
	Publisher      Publisher
	PaymentTimeout time.Duration
	Log            *slog.Logger
}

func NewOrderService(d OrderServiceDeps) *OrderService {
	s := &OrderService{
		userRepo: d.Users, carts: d.Carts, inventory: d.Inventory, orders: d.Orders,
		payments: d.Payments, idem: d.Idempotency, publisher: d.Publisher,
		payTimeout: d.PaymentTimeout, log: d.Log,
	}
	if s.idem == nil {
		s.idem = repository.NewMemoryIdempotency()
	}
	if s.payTimeout <= 0 {
		s.payTimeout = defaultPayTimeout
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Checkout turns the user's cart into an order. The cart is claimed first so
// a concurrent checkout sees it empty. Stock is validated before payment and
// deducted all-or-nothing after it; any failure after the charge is
// compensated by a refund and, if stock was taken, a restock. A failed
// checkout hands the cart back.
func (s *OrderService) Checkout(ctx context.Context, username, paymentMethod, idempotencyKey string) (*model.Order, error) {
	if _, err := s.loggedIn(ctx, username); err != nil {
		return nil, err
	}
	if idempotencyKey == "" {
		return s.checkout(ctx, username, paymentMethod)
	}

	key := fmt.Sprintf(idempotencyKeyFmt, username, idempotencyKey)
	existing, claimed, err := s.idem.Claim(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if !claimed {
		if existing == uuid.Nil {
			return nil, ErrCheckoutInProgress
		}
		order, err := s.orders.Get(existing)
		if err != nil {
			return nil, fmt.Errorf("get replayed order: %w", err)
		}
		return &order, nil
	}

	order, err := s.checkout(ctx, username, paymentMethod)
	if err != nil {
		if relErr := s.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
			s.log.Warn("release idempotency key", "key", key, "error", relErr)
		}
		return nil, err
	}
	if err := s.idem.Complete(ctx, key, order.ID); err != nil {
		s.log.Warn("complete idempotency key", "key", key, "error", err)
	}
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, username, paymentMethod string) (order *model.Order, err error) {
	c := s.carts.Claim(username)
	defer func() {
		if err != nil {
			s.carts.Restore(username, c)
		}
	}()

	lines, total := c.Snapshot()
	if len(lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	if err := s.inventory.CheckAvailability(lines); err != nil {
		return nil, err
	}

	method, err := payment.ParseMethod(paymentMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentFailed, err)
	}

	log := s.log.With("username", username, "total", total.StringFixed(2))

	payCtx, cancel := context.WithTimeout(ctx, s.payTimeout)
	receipt, err := s.payments.Charge(payCtx, total, method)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentFailed, err)
	}

	if err := s.inventory.Reserve(lines); err != nil {
		s.refund(ctx, log, receipt)
		return nil, err
	}

	catalog := s.inventory.CatalogSnapshot()
	now := time.Now()
	placed := model.Order{
		ID:            uuid.New(),
		Username:      username,
		TotalPrice:    total,
		Status:        model.OrderStatusPending,
		PaymentMethod: string(method),
		CreatedAt:     now,
		UpdatedAt:     now,
		Lines:         make([]model.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		item := catalog[l.ItemID]
		placed.Lines = append(placed.Lines, model.OrderLine{Item: item, Quantity: l.Quantity, UnitPrice: item.Price})
	}

	if err := s.orders.Record(placed); err != nil {
		s.inventory.Release(lines)
		s.refund(ctx, log, receipt)
		return nil, fmt.Errorf("record order: %w", err)
	}

	log.Info("order placed", "order_id", placed.ID, "lines", len(placed.Lines))

	s.publish(ctx, log, placed)
	return &placed, nil
}

func (s *OrderService) refund(ctx context.Context, log *slog.Logger, receipt *payment.Receipt) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()
	if err := s.payments.Refund(ctx, receipt); err != nil {
		log.Error("refund after failed checkout", "charge_id", receipt.ChargeID, "error", err)
		return
	}
	log.Info("charge refunded", "charge_id", receipt.ChargeID)
}

func (s *OrderService) publish(ctx context.Context, log *slog.Logger, order model.Order) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(model.NewOrderMessage(order))
	if err != nil {
		log.Error("marshal order message", "order_id", order.ID, "error", err)
		return
	}
	err = s.publisher.PublishWithContext(ctx, "", OrderQueueName, false, false, amqp.Publishing{
		ContentType:  orderMessageFormat,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    order.ID.String(),
		Timestamp:    order.CreatedAt,
	})
	if err != nil {
		log.Error("publish order message", "order_id", order.ID, "error", err)
	}
}

// GetByID returns the order if it belongs to username, or to anyone for admins.
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID, username string) (*model.Order, error) {
	user, err := s.loggedIn(ctx, username)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.Username != username && user.Role != model.RoleAdmin {
		return nil, ErrOrderAccessDenied
	}
	return &order, nil
}

// UpdateStatus accepts any status string.
func (s *OrderService) UpdateStatus(_ context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	order, err := s.orders.UpdateStatus(orderID, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("order status updated", "order_id", orderID, "status", status)
	return &order, nil
}

func (s *OrderService) ClearHistory(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}
	s.orders.ClearUser(username)
	return nil
}

func (s *OrderService) loggedIn(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	if !user.LoggedIn {
		return nil, model.ErrNotLoggedIn
	}
	return user, nil
}
