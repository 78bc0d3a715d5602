package repository

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/furniture-store/internal/model"
)

// OrderIndex maps usernames to their orders. It is the only place order
// history is kept; a user's history is read from here.
type OrderIndex struct {
	mu     sync.RWMutex
	byUser map[string][]*model.Order
	byID   map[uuid.UUID]*model.Order
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{
		byUser: make(map[string][]*model.Order),
		byID:   make(map[uuid.UUID]*model.Order),
	}
}

// Record appends order to its user's history.
func (x *OrderIndex) Record(order model.Order) error {
	if order.Username == "" {
		return model.ErrUserNotFound
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.byID[order.ID]; ok {
		return model.ErrDuplicateOrder
	}
	o := order.Clone()
	x.byUser[o.Username] = append(x.byUser[o.Username], &o)
	x.byID[o.ID] = &o
	return nil
}

// ForUser returns copies of the user's orders, oldest first.
func (x *OrderIndex) ForUser(username string) []model.Order {
	x.mu.RLock()
	defer x.mu.RUnlock()
	orders := x.byUser[username]
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Clone())
	}
	return out
}

func (x *OrderIndex) Count(username string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byUser[username])
}

func (x *OrderIndex) Get(id uuid.UUID) (model.Order, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	o, ok := x.byID[id]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// UpdateStatus sets any status string; transitions are not validated.
func (x *OrderIndex) UpdateStatus(id uuid.UUID, status model.OrderStatus) (model.Order, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	o, ok := x.byID[id]
	if !ok {
		return model.Order{}, model.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return o.Clone(), nil
}

// ClearUser empties the user's history.
func (x *OrderIndex) ClearUser(username string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, o := range x.byUser[username] {
		delete(x.byID, o.ID)
	}
	x.byUser[username] = []*model.Order{}
}
