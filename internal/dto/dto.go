package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/model"
)

// --- Auth ---

type SignUpRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Address  string `json:"address"`
	Phone    string `json:"phone_number"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ProfileUpdateRequest struct {
	FullName *string `json:"full_name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone_number"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Address  string    `json:"address"`
	Phone    string    `json:"phone_number"`
	Role     string    `json:"role"`
}

// --- Items ---

type SearchItemsRequest struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	MinPrice string `form:"min_price"`
	MaxPrice string `form:"max_price"`
}

type ItemResponse struct {
	ID                int             `json:"item_id"`
	Title             string          `json:"title"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	Height            int             `json:"height"`
	Width             int             `json:"width"`
	Weight            decimal.Decimal `json:"weight"`
	Description       string          `json:"description"`
	PillowCount       *int            `json:"pillow_count,omitempty"`
	WithMirror        *bool           `json:"with_mirror,omitempty"`
	Material          *string         `json:"material,omitempty"`
	SeatingCapacity   *int            `json:"seating_capacity,omitempty"`
	AvailableQuantity int             `json:"available_quantity"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int            `json:"total"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ItemID   int `json:"item_id" binding:"required,min=1"`
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

type DiscountRequest struct {
	Percentage decimal.Decimal `json:"percentage"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

type CartItemResponse struct {
	ItemID   int             `json:"item_id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// --- Inventory ---

type StockRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type InventoryEntry struct {
	ItemID   int    `json:"item_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type InventoryResponse struct {
	Items []InventoryEntry `json:"items"`
}

// --- Order ---

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Username      string              `json:"username"`
	Status        model.OrderStatus   `json:"status"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
	PaymentMethod string              `json:"payment_method"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ItemID   int             `json:"item_id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}
