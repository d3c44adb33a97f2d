package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/api/responses"
	"github.com/tillworks/tillpoint-backend/api/validators"
	catalogsvc "github.com/tillworks/tillpoint-backend/internal/catalog"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

type addToCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	UnitName  string `json:"unit_name"`
}

// AddToCart resolves the product against the catalog and adds one unit
// of it to the active tab. The unit name selects a configured
// conversion; empty means the base unit.
func AddToCart(store *pos.Store, catalog catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addToCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := catalog.Products(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, ok := findProduct(products, payload.ProductID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}
		multiplier, err := resolveMultiplier(product, payload.UnitName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.AddToCart(sc, product, payload.UnitName, multiplier); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type cartQtyRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	UnitName  string `json:"unit_name"`
	Delta     int    `json:"delta" validate:"required"`
}

// UpdateCartQty applies a signed quantity delta to one line.
func UpdateCartQty(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.UpdateCartQty(sc, payload.ProductID, payload.UnitName, payload.Delta); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type setCartQtyRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	UnitName  string `json:"unit_name"`
	Qty       int    `json:"qty" validate:"required"`
}

// SetCartQty sets one line's quantity outright.
func SetCartQty(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setCartQtyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetCartItemQty(sc, payload.ProductID, payload.UnitName, payload.Qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type setCartPriceRequest struct {
	ProductID int64           `json:"product_id" validate:"required"`
	UnitName  string          `json:"unit_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SetCartPrice overrides one line's unit price.
func SetCartPrice(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setCartPriceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.UpdateCartItemPrice(sc, payload.ProductID, payload.UnitName, payload.UnitPrice); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type removeCartLineRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	UnitName  string `json:"unit_name"`
}

// RemoveCartLine drops one line from the active tab.
func RemoveCartLine(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload removeCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveFromCart(sc, payload.ProductID, payload.UnitName); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

func findProduct(products []pos.Product, id int64) (pos.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return pos.Product{}, false
}

func resolveMultiplier(product pos.Product, unitName string) (decimal.Decimal, error) {
	if unitName == "" {
		return decimal.NewFromInt(1), nil
	}
	for _, uc := range product.UnitConversions {
		if uc.Name == unitName {
			return uc.ConversionRate, nil
		}
	}
	return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown unit for product")
}
