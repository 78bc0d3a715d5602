package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/middleware"
	"github.com/flicky/furniture-store/internal/payment"
	"github.com/flicky/furniture-store/internal/repository"
	"github.com/flicky/furniture-store/internal/service"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router    *gin.Engine
	inventory *repository.Inventory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	inv := repository.NewInventory(repository.DefaultCatalog())
	require.NoError(t, repository.SeedInventory(inv, 10))
	users := repository.NewUserRepository()
	orders := repository.NewOrderIndex()

	authSvc := service.NewAuthService(users, orders, testSecret, time.Hour, bcrypt.MinCost)
	catalogSvc := service.NewCatalogService(inv)
	cartSvc := service.NewCartService(inv)
	orderSvc := service.NewOrderService(service.OrderServiceDeps{
		Users: users, Carts: cartSvc, Inventory: inv, Orders: orders, Payments: payment.NewMockProcessor(),
	})
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "admin", "admin@example.com", "adminpass"))

	authH := NewAuthHandler(authSvc)
	itemH := NewItemHandler(catalogSvc)
	inventoryH := NewInventoryHandler(catalogSvc)
	cartH := NewCartHandler(cartSvc)
	orderH := NewOrderHandler(orderSvc, authSvc)
	healthH := NewHealthHandler(nil, nil, nil)

	r := gin.New()
	r.GET("/readyz", healthH.Readyz)
	authRequired := middleware.AuthMiddleware(testSecret)
	v1 := r.Group("/api/v1")
	v1.POST("/auth/signup", authH.SignUp)
	v1.POST("/auth/login", authH.Login)
	v1.POST("/auth/logout", authRequired, authH.Logout)
	v1.GET("/users/me", authRequired, authH.Me)
	v1.PUT("/users/me", authRequired, authH.UpdateMe)
	v1.GET("/items", itemH.List)
	v1.GET("/items/:id", itemH.GetByID)
	v1.GET("/inventory", authRequired, middleware.AdminOnly(), inventoryH.List)
	v1.PUT("/inventory/:id", authRequired, middleware.AdminOnly(), inventoryH.SetQuantity)
	v1.GET("/cart", authRequired, cartH.GetCart)
	v1.POST("/cart/items", authRequired, cartH.AddItem)
	v1.PUT("/cart/items/:id", authRequired, cartH.UpdateItem)
	v1.DELETE("/cart/items/:id", authRequired, cartH.DeleteItem)
	v1.POST("/cart/discount", authRequired, cartH.ApplyDiscount)
	v1.POST("/orders/checkout", authRequired, orderH.Checkout)
	v1.GET("/orders", authRequired, orderH.ListOrders)
	v1.GET("/orders/:id", authRequired, orderH.GetOrder)

	return &testAPI{router: r, inventory: inv}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (a *testAPI) customer(t *testing.T, username string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/signup", "", dto.SignUpRequest{
		Username: username, FullName: "Test " + username, Email: username + "@example.com", Password: "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return a.login(t, username+"@example.com", "password123")
}

func TestItems(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/items?category=bed&max_price=300", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.ItemListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "King Bed", list.Items[0].Title)

	w = api.do(t, http.MethodGet, "/api/v1/items?min_price=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/items/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/items/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignUpAndProfile(t *testing.T) {
	api := newTestAPI(t)
	token := api.customer(t, "alice")

	w := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", dto.SignUpRequest{
		Username: "alice", FullName: "Again", Email: "alice@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	addr := "456 Elm St"
	w = api.do(t, http.MethodPut, "/api/v1/users/me", token, dto.ProfileUpdateRequest{Address: &addr})
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "456 Elm St", me.Address)

	w = api.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "logout ends the session even with a valid token")

	w = api.do(t, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "alice@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignUpBlankUsername(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/v1/auth/signup", "", dto.SignUpRequest{
		Username: "   ", FullName: "Blank", Email: "blank@example.com", Password: "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.customer(t, "alice")

	w := api.do(t, http.MethodPost, "/api/v1/orders/checkout", token, dto.CheckoutRequest{PaymentMethod: "credit_card"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty cart")

	w = api.do(t, http.MethodPost, "/api/v1/cart/items", token, dto.AddCartItemRequest{ItemID: 101, Quantity: 11})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/cart/items", token, dto.AddCartItemRequest{ItemID: 101, Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/cart/discount", token, map[string]string{"percentage": "10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart dto.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, "450", cart.TotalPrice.String())

	w = api.do(t, http.MethodPost, "/api/v1/orders/checkout", token, dto.CheckoutRequest{PaymentMethod: "bitcoin"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/orders/checkout", token, dto.CheckoutRequest{PaymentMethod: "PayPal"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order dto.OrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "Pending", string(order.Status))
	assert.Equal(t, "450", order.TotalPrice.String())
	assert.Equal(t, 8, api.inventory.Quantity(101))

	w = api.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	w = api.do(t, http.MethodGet, "/api/v1/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.OrderListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	other := api.customer(t, "bob")
	w = api.do(t, http.MethodGet, "/api/v1/orders/"+order.ID.String(), other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/orders/not-a-uuid", other, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartEdits(t *testing.T) {
	api := newTestAPI(t)
	token := api.customer(t, "alice")

	w := api.do(t, http.MethodDelete, "/api/v1/cart/items/101", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/cart/items", token, dto.AddCartItemRequest{ItemID: 102, Quantity: 3})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/cart/items/102", token, map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart dto.CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	w = api.do(t, http.MethodDelete, "/api/v1/cart/items/102?quantity=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, 3, cart.Items[0].Quantity)

	w = api.do(t, http.MethodDelete, "/api/v1/cart/items/102", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)
}

func TestInventoryAdmin(t *testing.T) {
	api := newTestAPI(t)
	customer := api.customer(t, "alice")
	admin := api.login(t, "admin@example.com", "adminpass")

	w := api.do(t, http.MethodGet, "/api/v1/inventory", customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPut, "/api/v1/inventory/105", admin, map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, api.inventory.Quantity(105))

	w = api.do(t, http.MethodPut, "/api/v1/inventory/105", admin, map[string]int{"quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/api/v1/inventory", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var inv dto.InventoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inv))
	assert.Len(t, inv.Items, 5)
}

func TestReadyzWithoutBackends(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"disabled"`)
}
