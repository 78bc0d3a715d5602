package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/model"
)

// DefaultCatalog is the furniture the store opens with.
func DefaultCatalog() map[int]model.StoreItem {
	items := []model.StoreItem{
		{
			ID: 101, Title: "Dining Table", Price: decimal.NewFromInt(250),
			Height: 75, Width: 150, Weight: decimal.NewFromInt(30),
			Description: "A sturdy wooden dining table.", Details: model.Table{},
		},
		{
			ID: 102, Title: "Office Chair", Price: decimal.NewFromInt(80),
			Height: 100, Width: 50, Weight: decimal.NewFromInt(10),
			Description: "An ergonomic office chair.", Details: model.Chair{Material: "Leather"},
		},
		{
			ID: 103, Title: "Luxury Sofa", Price: decimal.NewFromInt(500),
			Height: 40, Width: 200, Weight: decimal.NewFromInt(50),
			Description: "A comfortable luxury sofa.", Details: model.Sofa{SeatingCapacity: 3},
		},
		{
			ID: 104, Title: "King Bed", Price: decimal.NewFromInt(300),
			Height: 60, Width: 80, Weight: decimal.NewFromInt(70),
			Description: "A king-sized bed.", Details: model.Bed{PillowCount: 4},
		},
		{
			ID: 105, Title: "Wardrobe", Price: decimal.NewFromInt(200),
			Height: 180, Width: 100, Weight: decimal.NewFromInt(80),
			Description: "A wardrobe with mirror.", Details: model.Closet{WithMirror: true},
		},
	}
	catalog, err := NewCatalog(items...)
	if err != nil {
		panic(err)
	}
	return catalog
}

// NewCatalog builds an id-keyed catalog, rejecting invalid or duplicate items.
func NewCatalog(items ...model.StoreItem) (map[int]model.StoreItem, error) {
	catalog := make(map[int]model.StoreItem, len(items))
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", item.ID, err)
		}
		if _, ok := catalog[item.ID]; ok {
			return nil, fmt.Errorf("duplicate item id %d", item.ID)
		}
		catalog[item.ID] = item
	}
	return catalog, nil
}

// SeedInventory stocks every catalog item with quantity units.
func SeedInventory(inv *Inventory, quantity int) error {
	for id := range inv.CatalogSnapshot() {
		if err := inv.AddStock(id, quantity); err != nil {
			return fmt.Errorf("seed item %d: %w", id, err)
		}
	}
	return nil
}
