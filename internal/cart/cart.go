// Package cart holds a single user's shopping cart.
package cart

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Stock is the read side of the inventory a cart validates against.
type Stock interface {
	Quantity(id int) int
	Item(id int) (model.StoreItem, bool)
}

// Cart maps item ids to quantities and keeps a running total. It reads stock
// but never changes it; only checkout deducts inventory.
type Cart struct {
	mu    sync.Mutex
	stock Stock
	items map[int]int
	price map[int]decimal.Decimal
	total decimal.Decimal
}

func New(stock Stock) *Cart {
	return &Cart{stock: stock, items: make(map[int]int), price: make(map[int]decimal.Decimal)}
}

// Add puts quantity units of id in the cart if the inventory can cover what
// the cart would then hold.
func (c *Cart) Add(id, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	item, ok := c.stock.Item(id)
	if !ok {
		return model.ErrItemNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	want := c.items[id] + quantity
	if available := c.stock.Quantity(id); want > available {
		return &model.InsufficientStockError{ItemID: id, Requested: want, Available: available}
	}
	c.items[id] = want
	c.price[id] = item.Price
	c.total = c.total.Add(item.Price.Mul(decimal.NewFromInt(int64(quantity))))
	return nil
}

// Remove takes quantity units of id out of the cart.
func (c *Cart) Remove(id, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	held, ok := c.items[id]
	if !ok {
		return model.ErrItemNotInCart
	}
	if quantity > held {
		return model.ErrInvalidQuantity
	}
	c.take(id, quantity)
	return nil
}

// Update sets the quantity of id. Zero removes the entry. A rejected update
// leaves the cart as it was.
func (c *Cart) Update(id, quantity int) error {
	if quantity < 0 {
		return model.ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	held := c.items[id]
	if quantity == 0 {
		if held == 0 {
			return model.ErrItemNotInCart
		}
		c.take(id, held)
		return nil
	}

	item, ok := c.stock.Item(id)
	if !ok {
		return model.ErrItemNotFound
	}
	if available := c.stock.Quantity(id); quantity > available {
		return &model.InsufficientStockError{ItemID: id, Requested: quantity, Available: available}
	}
	if held > 0 {
		c.take(id, held)
	}
	c.items[id] = quantity
	c.price[id] = item.Price
	c.total = c.total.Add(item.Price.Mul(decimal.NewFromInt(int64(quantity))))
	return nil
}

// ApplyDiscount reduces the current total by percentage percent. Applying it
// again compounds.
func (c *Cart) ApplyDiscount(percentage decimal.Decimal) error {
	if !percentage.IsPositive() || percentage.GreaterThan(hundred) {
		return model.ErrInvalidDiscount
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total = c.total.Sub(c.total.Mul(percentage).Div(hundred))
	return nil
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Items returns a copy of the cart contents.
func (c *Cart) Items() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int, len(c.items))
	for id, qty := range c.items {
		out[id] = qty
	}
	return out
}

// Lines returns the contents ordered by item id.
func (c *Cart) Lines() []model.Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines()
}

// Snapshot returns the contents and the total as of the same instant.
func (c *Cart) Snapshot() ([]model.Line, decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines(), c.total
}

// Merge adds the contents and total of other to c. Quantities are not
// re-validated against stock; other must not be in use elsewhere.
func (c *Cart) Merge(other *Cart) {
	if other == c {
		return
	}
	other.mu.Lock()
	items := make(map[int]int, len(other.items))
	prices := make(map[int]decimal.Decimal, len(other.price))
	for id, qty := range other.items {
		items[id] = qty
		prices[id] = other.price[id]
	}
	total := other.total
	other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, qty := range items {
		c.items[id] += qty
		if _, ok := c.price[id]; !ok {
			c.price[id] = prices[id]
		}
	}
	c.total = c.total.Add(total)
}

func (c *Cart) lines() []model.Line {
	lines := make([]model.Line, 0, len(c.items))
	for id, qty := range c.items {
		lines = append(lines, model.Line{ItemID: id, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
	return lines
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

func (c *Cart) take(id, quantity int) {
	c.total = c.total.Sub(c.price[id].Mul(decimal.NewFromInt(int64(quantity))))
	c.items[id] -= quantity
	if c.items[id] == 0 {
		delete(c.items, id)
		delete(c.price, id)
	}
	if len(c.items) == 0 || c.total.IsNegative() {
		c.total = decimal.Zero
	}
}
