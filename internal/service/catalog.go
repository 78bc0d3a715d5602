package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/model"
	"github.com/flicky/furniture-store/internal/repository"
)

var ErrInvalidPriceFilter = errors.New("invalid price filter")

// CatalogService serves item browsing and the admin side of the inventory.
type CatalogService struct {
	inventory *repository.Inventory
}

func NewCatalogService(inventory *repository.Inventory) *CatalogService {
	return &CatalogService{inventory: inventory}
}

func (s *CatalogService) Search(req dto.SearchItemsRequest) (*dto.ItemListResponse, error) {
	criteria := repository.SearchCriteria{Name: req.Name, Category: req.Category}
	var err error
	if criteria.MinPrice, err = parsePrice(req.MinPrice); err != nil {
		return nil, fmt.Errorf("%w: min_price: %v", ErrInvalidPriceFilter, err)
	}
	if criteria.MaxPrice, err = parsePrice(req.MaxPrice); err != nil {
		return nil, fmt.Errorf("%w: max_price: %v", ErrInvalidPriceFilter, err)
	}

	found := s.inventory.Search(criteria)
	items := make([]dto.ItemResponse, 0, len(found))
	for _, item := range found {
		items = append(items, toItemResponse(item, s.inventory.Quantity(item.ID)))
	}
	return &dto.ItemListResponse{Items: items, Total: len(items)}, nil
}

func (s *CatalogService) GetItem(id int) (*dto.ItemResponse, error) {
	item, ok := s.inventory.Item(id)
	if !ok {
		return nil, model.ErrItemNotFound
	}
	resp := toItemResponse(item, s.inventory.Quantity(id))
	return &resp, nil
}

func (s *CatalogService) Stock() *dto.InventoryResponse {
	catalog := s.inventory.CatalogSnapshot()
	entries := make([]dto.InventoryEntry, 0)
	for id, qty := range s.inventory.Snapshot() {
		entries = append(entries, dto.InventoryEntry{ItemID: id, Title: catalog[id].Title, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ItemID < entries[j].ItemID })
	return &dto.InventoryResponse{Items: entries}
}

// AddStock only accepts ids present in the catalog.
func (s *CatalogService) AddStock(id, quantity int) error {
	if _, ok := s.inventory.CatalogSnapshot()[id]; !ok {
		return model.ErrItemNotFound
	}
	return s.inventory.AddStock(id, quantity)
}

func (s *CatalogService) SetQuantity(id, quantity int) error {
	return s.inventory.SetQuantity(id, quantity)
}

func (s *CatalogService) RemoveItem(id int) error {
	return s.inventory.RemoveItem(id)
}

func parsePrice(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toItemResponse(item model.StoreItem, available int) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:                item.ID,
		Title:             item.Title,
		Category:          item.Category(),
		Price:             item.Price,
		Height:            item.Height,
		Width:             item.Width,
		Weight:            item.Weight,
		Description:       item.Describe(),
		AvailableQuantity: available,
	}
	switch d := item.Details.(type) {
	case model.Bed:
		resp.PillowCount = &d.PillowCount
	case model.Closet:
		resp.WithMirror = &d.WithMirror
	case model.Chair:
		resp.Material = &d.Material
	case model.Sofa:
		resp.SeatingCapacity = &d.SeatingCapacity
	}
	return resp
}
