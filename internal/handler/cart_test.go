package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/order-pipeline/internal/cart"
	"github.com/vasiliy-maslov/order-pipeline/internal/client"
	"github.com/vasiliy-maslov/order-pipeline/internal/handler"
)

type mockCartService struct {
	getCartFunc    func(ctx context.Context, userID uuid.UUID) ([]cart.EnrichedEntry, error)
	addItemFunc    func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Entry, error)
	removeItemFunc func(ctx context.Context, userID, entryID uuid.UUID) error
	clearCartFunc  func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockCartService) GetCart(ctx context.Context, userID uuid.UUID) ([]cart.EnrichedEntry, error) {
	return m.getCartFunc(ctx, userID)
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Entry, error) {
	return m.addItemFunc(ctx, userID, productID, quantity)
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, entryID uuid.UUID) error {
	return m.removeItemFunc(ctx, userID, entryID)
}

func (m *mockCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return m.clearCartFunc(ctx, userID)
}

func newCartRouter(svc cart.Service) *chi.Mux {
	r := chi.NewRouter()
	handler.NewCartHandler(svc).RegisterRoutes(r)
	return r
}

func TestCartHandler_GetCart(t *testing.T) {
	router := newCartRouter(&mockCartService{
		getCartFunc: func(ctx context.Context, userID uuid.UUID) ([]cart.EnrichedEntry, error) {
			entry := cart.Entry{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: uuid.Must(uuid.FromString(testProductID)), Quantity: 2}
			return []cart.EnrichedEntry{
				{Entry: entry, Product: &client.Product{ID: entry.ProductID, Name: "Widget", Price: decimal.RequireFromString("10.00"), StockQuantity: 5}},
				{Entry: entry, Product: nil},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/cart/"+testUserID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Widget"`)
	assert.Contains(t, rec.Body.String(), `"product":null`)
}

func TestCartHandler_AddItem(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		addItemFunc    func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Entry, error)
		expectedStatus int
		expectedInBody string
	}{
		{
			name: "created",
			body: fmt.Sprintf(`{"product_id":%q,"quantity":2}`, testProductID),
			addItemFunc: func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Entry, error) {
				return &cart.Entry{ID: uuid.Must(uuid.NewV4()), UserID: userID, ProductID: productID, Quantity: quantity}, nil
			},
			expectedStatus: http.StatusCreated,
			expectedInBody: `"quantity":2`,
		},
		{
			name: "unknown_product",
			body: fmt.Sprintf(`{"product_id":%q,"quantity":2}`, testProductID),
			addItemFunc: func(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Entry, error) {
				return nil, fmt.Errorf("service: product %s: %w", productID, client.ErrProductNotFound)
			},
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid product_id",
		},
		{
			name:           "missing_quantity",
			body:           fmt.Sprintf(`{"product_id":%q}`, testProductID),
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Validation failed",
		},
		{
			name:           "invalid_json",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
			expectedInBody: "Invalid request payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCartRouter(&mockCartService{addItemFunc: tt.addItemFunc})

			req := httptest.NewRequest(http.MethodPost, "/cart/"+testUserID+"/items", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedInBody)
		})
	}
}

func TestCartHandler_RemoveItem(t *testing.T) {
	entryID := uuid.Must(uuid.NewV4())

	t.Run("success", func(t *testing.T) {
		router := newCartRouter(&mockCartService{
			removeItemFunc: func(ctx context.Context, userID, id uuid.UUID) error { return nil },
		})

		req := httptest.NewRequest(http.MethodDelete, "/cart/"+testUserID+"/items/"+entryID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Item removed from cart")
	})

	t.Run("not_found", func(t *testing.T) {
		router := newCartRouter(&mockCartService{
			removeItemFunc: func(ctx context.Context, userID, id uuid.UUID) error { return cart.ErrEntryNotFound },
		})

		req := httptest.NewRequest(http.MethodDelete, "/cart/"+testUserID+"/items/"+entryID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Cart item not found")
	})
}

func TestCartHandler_ClearCart(t *testing.T) {
	router := newCartRouter(&mockCartService{
		clearCartFunc: func(ctx context.Context, userID uuid.UUID) error { return nil },
	})

	req := httptest.NewRequest(http.MethodDelete, "/cart/"+testUserID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cart cleared successfully")
}
