package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User carries identity and profile. Order history is not stored here; it is
// read from the order index.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Address      string
	Phone        string
	Role         string
	LoggedIn     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Line is a requested quantity of one item.
type Line struct {
	ItemID   int
	Quantity int
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCanceled   OrderStatus = "Canceled"
)

type Order struct {
	ID            uuid.UUID
	Username      string
	Lines         []OrderLine
	TotalPrice    decimal.Decimal
	Status        OrderStatus
	PaymentMethod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine pairs the purchased item with its quantity and the unit price
// charged at checkout.
type OrderLine struct {
	Item      StoreItem
	Quantity  int
	UnitPrice decimal.Decimal
}

func (o Order) Clone() Order {
	c := o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	return c
}

// OrderMessage is published for every placed order.
type OrderMessage struct {
	OrderID    uuid.UUID          `json:"order_id"`
	Username   string             `json:"username"`
	Status     OrderStatus        `json:"status"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	Lines      []OrderMessageLine `json:"lines"`
	CreatedAt  time.Time          `json:"created_at"`
}

type OrderMessageLine struct {
	ItemID    int             `json:"item_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func NewOrderMessage(o Order) OrderMessage {
	msg := OrderMessage{
		OrderID:    o.ID,
		Username:   o.Username,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt,
		Lines:      make([]OrderMessageLine, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		msg.Lines = append(msg.Lines, OrderMessageLine{
			ItemID: l.Item.ID, Title: l.Item.Title, Quantity: l.Quantity, UnitPrice: l.UnitPrice,
		})
	}
	return msg
}
