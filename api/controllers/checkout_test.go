package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

func newCheckoutRouter(store *pos.Store) http.Handler {
	r := chi.NewRouter()
	r.Route("/contexts/{saleContext}/checkout", func(r chi.Router) {
		r.Put("/customer", SetCustomer(store, nil))
		r.Put("/car-gate", SetCarGate(store, nil))
		r.Put("/remark", SetRemark(store, nil))
		r.Put("/discount", SetGlobalDiscount(store, nil))
		r.Post("/other-charges", AddOtherCharge(store, nil))
		r.Put("/other-charges/{chargeID}", UpdateOtherCharge(store, nil))
		r.Delete("/other-charges/{chargeID}", RemoveOtherCharge(store, nil))
		r.Post("/payments", AddPayment(store, nil))
		r.Put("/payments/{methodID}", UpdatePayment(store, nil))
		r.Delete("/payments/{methodID}", RemovePayment(store, nil))
	})
	return r
}

func TestAddPaymentAndDuplicate(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCheckoutRouter(store)

	body := `{"method_id":1,"name":"Cash","amount":1000,"role":"change_absorber"}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/checkout/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	tab, err := store.ActiveTab(enums.SaleContextRetail)
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if len(tab.Details.Payments) != 1 || tab.Details.Payments[0].Role != enums.PaymentRoleChangeAbsorber {
		t.Fatalf("unexpected payments: %+v", tab.Details.Payments)
	}

	req = httptest.NewRequest(http.MethodPost, "/contexts/retail/checkout/payments", strings.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate method should conflict, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAddPaymentRejectsUnknownRole(t *testing.T) {
	router := newCheckoutRouter(pos.NewStore(nil))

	body := `{"method_id":1,"name":"Cash","amount":1000,"role":"tip"}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/checkout/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUpdatePaymentAmount(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCheckoutRouter(store)

	body := `{"method_id":2,"name":"Transfer","amount":1000}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/retail/checkout/payments", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("seed payment failed: %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/contexts/retail/checkout/payments/2", strings.NewReader(`{"amount":2500}`))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	tab, err := store.ActiveTab(enums.SaleContextRetail)
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if !tab.Details.Payments[0].Amount.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("unexpected amount: %s", tab.Details.Payments[0].Amount)
	}
}

func TestAddOtherChargeDuplicate(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCheckoutRouter(store)

	body := `{"charge_id":4,"name":"Delivery","amount":300}`
	req := httptest.NewRequest(http.MethodPost, "/contexts/purchase/checkout/other-charges", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/contexts/purchase/checkout/other-charges", strings.NewReader(body))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate charge should conflict, got %d", resp.Code)
	}
}

func TestSetGlobalDiscountClampsNegative(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCheckoutRouter(store)

	req := httptest.NewRequest(http.MethodPut, "/contexts/retail/checkout/discount", strings.NewReader(`{"amount":-100}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope activeTabEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Tab.Details.GlobalDiscount.IsZero() {
		t.Fatalf("negative discount should clamp to zero, got %s", envelope.Data.Tab.Details.GlobalDiscount)
	}
}

func TestSetCustomerAttachAndClear(t *testing.T) {
	store := pos.NewStore(nil)
	router := newCheckoutRouter(store)

	body := `{"customer":{"id":12,"name":"Somchai Hardware"}}`
	req := httptest.NewRequest(http.MethodPut, "/contexts/purchase/checkout/customer", strings.NewReader(body))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	tab, err := store.ActiveTab(enums.SaleContextPurchase)
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if tab.Customer == nil || tab.Customer.ID != 12 {
		t.Fatalf("customer not attached: %+v", tab.Customer)
	}

	req = httptest.NewRequest(http.MethodPut, "/contexts/purchase/checkout/customer", strings.NewReader(`{"customer":null}`))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	tab, err = store.ActiveTab(enums.SaleContextPurchase)
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if tab.Customer != nil {
		t.Fatalf("customer should be cleared, got %+v", tab.Customer)
	}
}
