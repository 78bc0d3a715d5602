package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/furniture-store/internal/model"
	"github.com/flicky/furniture-store/internal/repository"
	"github.com/flicky/furniture-store/internal/service"
)

const (
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.dlq"
	idempotencyTTL = 24 * time.Hour
)

// OrderStore is the part of the order index the worker advances.
type OrderStore interface {
	Get(id uuid.UUID) (model.Order, error)
	UpdateStatus(id uuid.UUID, status model.OrderStatus) (model.Order, error)
}

// OrderWorker consumes placed-order events, writes them to the archive and
// moves pending orders to Processing. archive and redisClient may be nil.
type OrderWorker struct {
	channel     *amqp.Channel
	orders      OrderStore
	archive     repository.OrderArchive
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewOrderWorker(
	ch *amqp.Channel,
	orders OrderStore,
	archive repository.OrderArchive,
	redisClient *redis.Client,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orders:      orders,
		archive:     archive,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, service.OrderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(service.OrderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": service.OrderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *OrderWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(service.OrderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

func (w *OrderWorker) Stop() { close(w.done) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "username", orderMsg.Username)

	key := "order_archived:" + orderMsg.OrderID.String()
	if w.redisClient != nil {
		exists, err := w.redisClient.Exists(ctx, key).Result()
		if err != nil {
			log.Error("check idempotency key", "error", err)
			_ = msg.Nack(false, true)
			return
		}
		if exists > 0 {
			log.Info("order already processed, skipping")
			_ = msg.Ack(false)
			return
		}
	}

	if err := w.processOrder(ctx, log, orderMsg); err != nil {
		log.Error("process order failed", "error", err)
		_ = msg.Nack(false, false) // → DLQ
		return
	}

	if w.redisClient != nil {
		if err := w.redisClient.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
			log.Error("set idempotency key", "error", err)
		}
	}

	_ = msg.Ack(false)
	log.Info("order processed successfully")
}

func (w *OrderWorker) processOrder(ctx context.Context, log *slog.Logger, msg model.OrderMessage) error {
	if msg.OrderID == uuid.Nil {
		return errors.New("order message without id")
	}

	if w.archive != nil {
		stored, err := w.archive.Archive(ctx, msg)
		if err != nil {
			return fmt.Errorf("archive order: %w", err)
		}
		if !stored {
			log.Info("order already archived")
		}
	}

	order, err := w.orders.Get(msg.OrderID)
	if errors.Is(err, model.ErrOrderNotFound) {
		// history was cleared before the event arrived
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order.Status != model.OrderStatusPending {
		return nil
	}
	if _, err := w.orders.UpdateStatus(msg.OrderID, model.OrderStatusProcessing); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}
	return nil
}
