package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/api/responses"
	"github.com/tillworks/tillpoint-backend/api/validators"
	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

type setCustomerRequest struct {
	Customer *pos.CustomerRef `json:"customer"`
}

// SetCustomer attaches or detaches the tab's customer.
func SetCustomer(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetCustomer(sc, payload.Customer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type setCarGateRequest struct {
	CarGateID *int64 `json:"car_gate_id"`
}

// SetCarGate records or clears the dispatch gate.
func SetCarGate(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setCarGateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetCarGate(sc, payload.CarGateID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type setRemarkRequest struct {
	Remark string `json:"remark"`
}

// SetRemark replaces the free-text remark.
func SetRemark(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setRemarkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetRemark(sc, payload.Remark); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type setDiscountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// SetGlobalDiscount sets the order-level discount.
func SetGlobalDiscount(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.SetGlobalDiscount(sc, payload.Amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type otherChargeRequest struct {
	ChargeID int64           `json:"charge_id" validate:"required"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// AddOtherCharge appends a fee row; duplicates are rejected.
func AddOtherCharge(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload otherChargeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		charge := pos.OtherCharge{ChargeID: payload.ChargeID, Name: payload.Name, Amount: payload.Amount}
		if err := store.AddOtherCharge(sc, charge); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

// UpdateOtherCharge replaces one fee row's amount.
func UpdateOtherCharge(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chargeID, err := int64Param(r, "chargeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.UpdateOtherCharge(sc, chargeID, payload.Amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

// RemoveOtherCharge drops one fee row.
func RemoveOtherCharge(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		chargeID, err := int64Param(r, "chargeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveOtherCharge(sc, chargeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type addPaymentRequest struct {
	MethodID    int64           `json:"method_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	QRPayload   string          `json:"qr_payload"`
	Role        string          `json:"role" validate:"omitempty,oneof=standard change_absorber"`
}

// AddPayment appends a payment allocation row; one row per method.
func AddPayment(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.PaymentRoleStandard
		if payload.Role != "" {
			role, err = enums.ParsePaymentRole(payload.Role)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment role"))
				return
			}
		}
		entry := pos.PaymentEntry{
			MethodID:    payload.MethodID,
			Name:        payload.Name,
			Amount:      payload.Amount,
			ReferenceID: payload.ReferenceID,
			QRPayload:   payload.QRPayload,
			Role:        role,
		}
		if err := store.AddPayment(sc, entry); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

type updatePaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	ReferenceID *string          `json:"reference_id"`
	QRPayload   *string          `json:"qr_payload"`
}

// UpdatePayment patches the row for one payment method.
func UpdatePayment(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := int64Param(r, "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch := pos.PaymentPatch{
			Amount:      payload.Amount,
			ReferenceID: payload.ReferenceID,
			QRPayload:   payload.QRPayload,
		}
		if err := store.UpdatePayment(sc, methodID, patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}

// RemovePayment drops the row for one payment method.
func RemovePayment(store *pos.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := saleContextParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := int64Param(r, "methodID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemovePayment(sc, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeActiveTab(w, r, store, logg)
	}
}
