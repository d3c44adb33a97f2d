package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

type stubCatalog struct {
	products []pos.Product
	err      error
}

func (s *stubCatalog) Products(context.Context) ([]pos.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) Customers(context.Context, string) ([]pos.CustomerRef, error) {
	return nil, s.err
}

func (s *stubCatalog) OtherChargeTypes(context.Context) ([]catalog.OtherChargeType, error) {
	return nil, s.err
}

func (s *stubCatalog) PaymentMethods(context.Context) ([]catalog.PaymentMethodDef, error) {
	return nil, s.err
}

func (s *stubCatalog) CarGates(context.Context) ([]catalog.CarGate, error) {
	return nil, s.err
}

func newCartRouter(store *pos.Store, cat catalog.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/contexts/{saleContext}/cart", func(r chi.Router) {
		r.Post("/items", AddToCart(store, cat, nil))
		r.Post("/items/qty", UpdateCartQty(store, nil))
		r.Put("/items/qty", SetCartQty(store, nil))
		r.Put("/items/price", SetCartPrice(store, nil))
		r.Post("/items/remove", RemoveCartLine(store, nil))
	})
	return r
}

func boardCatalog() *stubCatalog {
	return &stubCatalog{products: []pos.Product{{
		ID:    7,
		Name:  "Gypsum Board",
		Price: decimal.NewFromInt(500),
		UnitConversions: []pos.UnitConversion{
			{Name: "Pallet", ConversionRate: decimal.NewFromInt(12)},
		},
	}}}
}

type activeTabEnvelope struct {
	Data struct {
		Tab    pos.Tab    `json:"tab"`
		Totals pos.Totals `json:"totals"`
	} `json:"data"`
}

func TestAddToCartBaseUnit(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCartRouter(store, boardCatalog())

	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(`{"product_id":7}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope activeTabEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	cart := envelope.Data.Tab.Cart
	if len(cart) != 1 || cart[0].Qty != 1 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if !cart[0].UnitPrice.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected unit price: %s", cart[0].UnitPrice)
	}
	if !envelope.Data.Totals.Payable.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected payable: %s", envelope.Data.Totals.Payable)
	}
}

func TestAddToCartConvertedUnit(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCartRouter(store, boardCatalog())

	body := `{"product_id":7,"unit_name":"Pallet"}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope activeTabEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	cart := envelope.Data.Tab.Cart
	if len(cart) != 1 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if !cart[0].UnitPrice.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("pallet price should be 500x12, got %s", cart[0].UnitPrice)
	}
}

func TestAddToCartUnknownUnit(t *testing.T) {
	router := newCartRouter(pos.NewStore(nil), boardCatalog())

	body := `{"product_id":7,"unit_name":"Crate"}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	router := newCartRouter(pos.NewStore(nil), boardCatalog())

	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(`{"product_id":99}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdateCartQtyRemovesAtZero(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCartRouter(store, boardCatalog())

	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(`{"product_id":7}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", resp.Code)
	}

	body := `{"product_id":7,"delta":-1}`
	req = httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items/qty", strings.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope activeTabEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Tab.Cart) != 0 {
		t.Fatalf("line should be removed at zero: %+v", envelope.Data.Tab.Cart)
	}
}

func TestSetCartPriceClampsNegative(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCartRouter(store, boardCatalog())

	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(`{"product_id":7}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", resp.Code)
	}

	body := `{"product_id":7,"unit_price":-50}`
	req = httptest.NewRequest(http.MethodPut, "/contexts/retail/cart/items/price", strings.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	tab, err := store.ActiveTab(enums.SaleContextRetail)
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if !tab.Cart[0].UnitPrice.IsZero() {
		t.Fatalf("negative price should clamp to zero, got %s", tab.Cart[0].UnitPrice)
	}
}

func TestAddToCartRejectsUnknownField(t *testing.T) {
	router := newCartRouter(pos.NewStore(nil), boardCatalog())

	body := `{"product_id":7,"quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/cart/items", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}
