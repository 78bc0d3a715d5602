package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/model"
)

func TestCatalogService_Search(t *testing.T) {
	ts := newTestStore(t)

	resp, err := ts.catalog.Search(dto.SearchItemsRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total, "unstocked chair is hidden")

	resp, err = ts.catalog.Search(dto.SearchItemsRequest{Name: "dining"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Dining Table", resp.Items[0].Title)
	assert.Equal(t, 10, resp.Items[0].AvailableQuantity)

	resp, err = ts.catalog.Search(dto.SearchItemsRequest{Category: "bed"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.NotNil(t, resp.Items[0].PillowCount)
	assert.Equal(t, 4, *resp.Items[0].PillowCount)

	resp, err = ts.catalog.Search(dto.SearchItemsRequest{MinPrice: "200", MaxPrice: "400"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, 2, resp.Items[0].ID)
	assert.Equal(t, 3, resp.Items[1].ID)
}

func TestCatalogService_Search_BadPrice(t *testing.T) {
	ts := newTestStore(t)

	_, err := ts.catalog.Search(dto.SearchItemsRequest{MinPrice: "cheap"})
	assert.ErrorIs(t, err, ErrInvalidPriceFilter)
}

func TestCatalogService_GetItem(t *testing.T) {
	ts := newTestStore(t)

	item, err := ts.catalog.GetItem(3)
	require.NoError(t, err)
	assert.Equal(t, "Closet", item.Category)
	assert.Equal(t, 0, item.AvailableQuantity)
	require.NotNil(t, item.WithMirror)
	assert.True(t, *item.WithMirror)

	_, err = ts.catalog.GetItem(4)
	assert.ErrorIs(t, err, model.ErrItemNotFound)
}

func TestCatalogService_InventoryAdmin(t *testing.T) {
	ts := newTestStore(t)

	require.NoError(t, ts.catalog.AddStock(4, 7))
	assert.Equal(t, 7, ts.inventory.Quantity(4))
	assert.ErrorIs(t, ts.catalog.AddStock(99, 1), model.ErrItemNotFound)

	require.NoError(t, ts.catalog.SetQuantity(1, 15))
	assert.Equal(t, 15, ts.inventory.Quantity(1))
	assert.ErrorIs(t, ts.catalog.SetQuantity(1, -1), model.ErrInvalidQuantity)

	require.NoError(t, ts.catalog.RemoveItem(2))
	assert.ErrorIs(t, ts.catalog.RemoveItem(2), model.ErrItemNotFound)

	stock := ts.catalog.Stock()
	require.Len(t, stock.Items, 3)
	assert.Equal(t, "Dining Table", stock.Items[0].Title)
	assert.Equal(t, 15, stock.Items[0].Quantity)
}
