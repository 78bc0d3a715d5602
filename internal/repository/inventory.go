package repository

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/model"
)

// SearchCriteria filters stocked catalog items. Zero values disable a filter.
type SearchCriteria struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Inventory tracks stock per item id. The catalog is read-only and shared;
// the inventory never defines items itself.
type Inventory struct {
	mu      sync.RWMutex
	stock   map[int]int
	catalog map[int]model.StoreItem
}

func NewInventory(catalog map[int]model.StoreItem) *Inventory {
	c := make(map[int]model.StoreItem, len(catalog))
	for id, item := range catalog {
		c[id] = item
	}
	return &Inventory{stock: make(map[int]int), catalog: c}
}

// AddStock increments the quantity for id, creating the entry if needed.
func (inv *Inventory) AddStock(id, quantity int) error {
	if quantity < 0 {
		return model.ErrInvalidQuantity
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stock[id] += quantity
	return nil
}

func (inv *Inventory) RemoveItem(id int) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.stock[id]; !ok {
		return model.ErrItemNotFound
	}
	delete(inv.stock, id)
	return nil
}

// SetQuantity overwrites the stock of an existing entry. Negative stock is
// rejected.
func (inv *Inventory) SetQuantity(id, quantity int) error {
	if quantity < 0 {
		return model.ErrInvalidQuantity
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if _, ok := inv.stock[id]; !ok {
		return model.ErrItemNotFound
	}
	inv.stock[id] = quantity
	return nil
}

// Quantity returns 0 for unknown ids.
func (inv *Inventory) Quantity(id int) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.stock[id]
}

func (inv *Inventory) Has(id int) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.stock[id]
	return ok
}

// Item returns the catalog entry for id if it is currently stocked.
func (inv *Inventory) Item(id int) (model.StoreItem, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if _, ok := inv.stock[id]; !ok {
		return model.StoreItem{}, false
	}
	item, ok := inv.catalog[id]
	return item, ok
}

func (inv *Inventory) Search(c SearchCriteria) []model.StoreItem {
	name := strings.ToLower(c.Name)

	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var out []model.StoreItem
	for id := range inv.stock {
		item, ok := inv.catalog[id]
		if !ok {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(item.Title), name) {
			continue
		}
		if c.Category != "" && !strings.EqualFold(item.Category(), c.Category) {
			continue
		}
		if c.MinPrice != nil && item.Price.LessThan(*c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && item.Price.GreaterThan(*c.MaxPrice) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (inv *Inventory) CatalogSnapshot() map[int]model.StoreItem {
	out := make(map[int]model.StoreItem, len(inv.catalog))
	for id, item := range inv.catalog {
		out[id] = item
	}
	return out
}

// Snapshot copies the current stock levels.
func (inv *Inventory) Snapshot() map[int]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make(map[int]int, len(inv.stock))
	for id, qty := range inv.stock {
		out[id] = qty
	}
	return out
}

// CheckAvailability reports the first line that cannot be covered without
// changing anything.
func (inv *Inventory) CheckAvailability(lines []model.Line) error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.check(lines)
}

// Reserve deducts every line or none of them. Validation and deduction run
// under the same write lock.
func (inv *Inventory) Reserve(lines []model.Line) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if err := inv.check(lines); err != nil {
		return err
	}
	for _, l := range lines {
		inv.stock[l.ItemID] -= l.Quantity
	}
	return nil
}

// Release returns previously reserved quantities to stock.
func (inv *Inventory) Release(lines []model.Line) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, l := range lines {
		inv.stock[l.ItemID] += l.Quantity
	}
}

func (inv *Inventory) check(lines []model.Line) error {
	need := make(map[int]int, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return model.ErrInvalidQuantity
		}
		need[l.ItemID] += l.Quantity
	}
	for _, l := range lines {
		available := inv.stock[l.ItemID]
		if need[l.ItemID] > available {
			return &model.InsufficientStockError{ItemID: l.ItemID, Requested: need[l.ItemID], Available: available}
		}
	}
	return nil
}
