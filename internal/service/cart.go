package service

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/cart"
	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/repository"
)

// CartService keeps one cart per username.
type CartService struct {
	inventory *repository.Inventory

	mu    sync.Mutex
	carts map[string]*cart.Cart
}

func NewCartService(inventory *repository.Inventory) *CartService {
	return &CartService{inventory: inventory, carts: make(map[string]*cart.Cart)}
}

// Cart returns the user's cart, creating an empty one on first use.
func (s *CartService) Cart(username string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[username]
	if !ok {
		c = cart.New(s.inventory)
		s.carts[username] = c
	}
	return c
}

// Reset replaces the user's cart with a fresh empty one.
func (s *CartService) Reset(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[username] = cart.New(s.inventory)
}

// Claim detaches the user's cart and leaves a fresh empty one in its place,
// so only one checkout can consume a given cart.
func (s *CartService) Claim(username string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed, ok := s.carts[username]
	if !ok {
		claimed = cart.New(s.inventory)
	}
	s.carts[username] = cart.New(s.inventory)
	return claimed
}

// Restore returns a claimed cart after a failed checkout. Anything added
// while it was claimed is kept alongside it.
func (s *CartService) Restore(username string, claimed *cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.carts[username]
	if !ok || current.IsEmpty() {
		s.carts[username] = claimed
		return
	}
	current.Merge(claimed)
}

func (s *CartService) GetCart(username string) *dto.CartResponse {
	return s.view(s.Cart(username))
}

func (s *CartService) AddItem(username string, itemID, quantity int) (*dto.CartResponse, error) {
	c := s.Cart(username)
	if err := c.Add(itemID, quantity); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *CartService) UpdateItem(username string, itemID, quantity int) (*dto.CartResponse, error) {
	c := s.Cart(username)
	if err := c.Update(itemID, quantity); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *CartService) RemoveItem(username string, itemID, quantity int) (*dto.CartResponse, error) {
	c := s.Cart(username)
	if err := c.Remove(itemID, quantity); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *CartService) ApplyDiscount(username string, percentage decimal.Decimal) (*dto.CartResponse, error) {
	c := s.Cart(username)
	if err := c.ApplyDiscount(percentage); err != nil {
		return nil, err
	}
	return s.view(c), nil
}

func (s *CartService) view(c *cart.Cart) *dto.CartResponse {
	catalog := s.inventory.CatalogSnapshot()
	items := make([]dto.CartItemResponse, 0, c.Len())
	for id, qty := range c.Items() {
		item := catalog[id]
		items = append(items, dto.CartItemResponse{ItemID: id, Title: item.Title, Price: item.Price, Quantity: qty})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return &dto.CartResponse{Items: items, TotalPrice: c.Total()}
}

var _ cart.Stock = (*repository.Inventory)(nil)
